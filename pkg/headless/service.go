// Package headless runs a session without a terminal: every line the server
// shows is logged, and a small HTTP server reports liveness and state.
package headless

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"mudclient/pkg/bus"
	"mudclient/pkg/channel"
	"mudclient/pkg/config"
	"mudclient/pkg/oob"
	"mudclient/pkg/session"

	"github.com/go-chi/chi/v5"
)

type Service struct {
	cfg       *config.Config
	log       *slog.Logger
	transport channel.Transport
	registry  *oob.Registry
	commands  []string
	out       *logDisplay

	mu        sync.RWMutex
	startedAt time.Time
	session   *session.Session
}

type statusResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Session       *session.Status `json:"session,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
	Recent        []string        `json:"recent,omitempty"`
}

// NewService prepares a headless run. Commands are sent once the connection
// opens.
func NewService(cfg *config.Config, transport channel.Transport, commands []string, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		log:       log.With("component", "headless.service"),
		transport: transport,
		registry:  oob.NewRegistry(),
		commands:  commands,
		out:       newLogDisplay(cfg.Client.ScrollbackLines, log),
	}, nil
}

// Run connects and consumes frames until the server closes the connection or
// ctx is canceled. The transport's error, if any, is returned.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := session.Start(ctx, session.Options{
		Config:        s.cfg,
		Transport:     s.transport,
		Display:       s.out,
		Registry:      s.registry,
		Log:           s.log,
		ObserveEvents: true,
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.Close()

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.session = sess
	s.mu.Unlock()

	serverErrors := make(chan error, 1)
	go s.runStatusServer(ctx, serverErrors)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.consume(ctx, sess)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case <-workerDone:
	}

	select {
	case <-sess.Done():
	case <-ctx.Done():
		return nil
	}
	return sess.Err()
}

// consume is the session's single frame consumer.
func (s *Service) consume(ctx context.Context, sess *session.Session) {
	for {
		frame, ok := sess.Next(ctx)
		if !ok {
			return
		}

		sess.HandleFrame(frame)

		switch frame.Kind {
		case bus.InboundOpen:
			for _, line := range s.commands {
				if err := sess.Send(ctx, line); err != nil {
					s.log.Error("Failed to send command", "command", line, "error", err)
					break
				}
				s.log.Info("Command sent", "command", line)
			}
		case bus.InboundClose:
			return
		}
	}
}

// Handler serves /healthz, /readyz and /status.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/status", s.handleStatus)
	return r
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Status.Host)
	if host == "" {
		host = config.DefaultStatusHost
	}

	port := s.cfg.Status.Port
	if port <= 0 {
		port = config.DefaultStatusPort
	}

	addr := host + ":" + strconv.Itoa(port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.currentStatus("ok", false))
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respond(w, statusCode, s.currentStatus(status, false))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, s.currentStatus("ok", true))
}

func (s *Service) respond(w http.ResponseWriter, statusCode int, payload statusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string, detailed bool) statusResponse {
	s.mu.RLock()
	startedAt := s.startedAt
	sess := s.session
	s.mu.RUnlock()

	response := statusResponse{Status: status}
	if !startedAt.IsZero() {
		response.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}
	if sess != nil {
		snapshot := sess.Status()
		response.Session = &snapshot
	}
	if detailed {
		response.Prompt, response.Recent = s.out.snapshot()
	}

	return response
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()

	return sess != nil && sess.State() == session.StateConnected
}
