package oob

import (
	"errors"
	"fmt"
	"log/slog"

	"mudclient/pkg/display"
	"mudclient/pkg/protocol"
)

// FailureFunc observes dispatch failures after they have been reported.
type FailureFunc func(err error)

// Dispatcher invokes registered handlers and turns every failure into one
// error line on the display. It never returns or panics on bad calls.
type Dispatcher struct {
	registry  *Registry
	out       display.Display
	log       *slog.Logger
	onFailure FailureFunc
}

// NewDispatcher binds a registry to the display its handlers write to.
func NewDispatcher(registry *Registry, out display.Display, log *slog.Logger, onFailure FailureFunc) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		registry:  registry,
		out:       out,
		log:       log.With("component", "oob.dispatcher"),
		onFailure: onFailure,
	}
}

// Dispatch runs the handler registered under name.
func (d *Dispatcher) Dispatch(name string, args []any, kwargs protocol.Kwargs) {
	err := d.invoke(name, args, kwargs)
	if err == nil {
		return
	}

	d.out.AppendLine(display.ChannelError, failureLine(name, args, kwargs, err))
	d.log.Warn("OOB dispatch failed", "name", name, "category", CategoryFromError(err), "error", err)
	if d.onFailure != nil {
		d.onFailure(err)
	}
}

// DispatchAll runs a batch in order, one call at a time.
func (d *Dispatcher) DispatchAll(calls []protocol.OOBCall) {
	for _, call := range calls {
		d.Dispatch(call.Name, call.Args, call.Kwargs)
	}
}

func (d *Dispatcher) invoke(name string, args []any, kwargs protocol.Kwargs) (err error) {
	handler, ok := d.registry.Lookup(name)
	if !ok {
		return &Error{Category: ErrorLookup, Name: name, Args: FormatArgs(args), Detail: "no handler registered"}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = &Error{Category: ErrorInvocation, Name: name, Args: FormatArgs(args), Detail: fmt.Sprintf("panic: %v", recovered)}
		}
	}()

	if callErr := handler(d.out, args, kwargs); callErr != nil {
		var categorized *Error
		if errors.As(callErr, &categorized) {
			return callErr
		}
		return &Error{Category: ErrorInvocation, Name: name, Args: FormatArgs(args), Detail: callErr.Error()}
	}

	return nil
}

func failureLine(name string, args []any, kwargs protocol.Kwargs, err error) string {
	call := fmt.Sprintf("%s(%s", name, FormatArgs(args))
	if len(kwargs) > 0 {
		call += ", " + formatJSON(kwargs)
	}
	call += ")"

	detail := err.Error()
	var categorized *Error
	if errors.As(err, &categorized) && categorized.Detail != "" {
		detail = categorized.Detail
	}

	return fmt.Sprintf("Could not execute OOB function '%s': %s", call, detail)
}
