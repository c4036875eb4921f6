// Package oob resolves out-of-band function calls sent by the game server to
// handlers registered on the client.
package oob

import (
	"sort"

	"mudclient/pkg/display"
	"mudclient/pkg/protocol"
)

// Handler runs one out-of-band call, writing its effects to out.
type Handler func(out display.Display, args []any, kwargs protocol.Kwargs) error

// Registry maps handler names to handlers. It is built once and read-only
// afterwards.
type Registry struct {
	handlers map[string]Handler
}

// Option adds or replaces a handler while the registry is being built.
type Option func(map[string]Handler)

// WithHandler registers an extra handler; a nil handler removes the name.
func WithHandler(name string, handler Handler) Option {
	return func(handlers map[string]Handler) {
		if handler == nil {
			delete(handlers, name)
			return
		}
		handlers[name] = handler
	}
}

// NewRegistry returns the built-in handlers plus any extra options.
func NewRegistry(opts ...Option) *Registry {
	handlers := map[string]Handler{
		"echo":   echo,
		"list":   list,
		"send":   keyValues,
		"report": keyValues,
		"repeat": repeat,
		"err":    errorLine,
	}
	for _, opt := range opts {
		opt(handlers)
	}

	return &Registry{handlers: handlers}
}

// Lookup finds a handler by exact name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	if r == nil {
		return nil, false
	}

	handler, ok := r.handlers[name]
	return handler, ok
}

// Names lists the registered handler names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func echo(out display.Display, args []any, _ protocol.Kwargs) error {
	out.AppendLine(display.ChannelOut, "ECHO return: "+FormatArgs(args))
	return nil
}

func list(out display.Display, args []any, _ protocol.Kwargs) error {
	out.AppendLine(display.ChannelOut, FormatArgs(args))
	return nil
}

// keyValues serves both send and report: one "key = value" line per kwarg.
func keyValues(out display.Display, _ []any, kwargs protocol.Kwargs) error {
	for _, kwarg := range kwargs {
		out.AppendLine(display.ChannelOut, kwarg.Key+" = "+FormatValue(kwarg.Value))
	}
	return nil
}

func repeat(out display.Display, args []any, _ protocol.Kwargs) error {
	out.AppendLine(display.ChannelOut, FormatArgs(args))
	return nil
}

func errorLine(out display.Display, args []any, _ protocol.Kwargs) error {
	out.AppendLine(display.ChannelError, FormatArgs(args))
	return nil
}
