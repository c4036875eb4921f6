package oob

import (
	"errors"
	"fmt"
)

const (
	ErrorLookup     = "lookup"
	ErrorInvocation = "invocation"
)

// Error is a categorized dispatch failure. Name and Args identify the call.
type Error struct {
	Category string
	Name     string
	Args     string
	Detail   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s(%s)", e.Category, e.Name, e.Args)
	}

	return fmt.Sprintf("%s: %s(%s): %s", e.Category, e.Name, e.Args, e.Detail)
}

// CategoryFromError returns the dispatch category for an error when available.
func CategoryFromError(err error) string {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Category
	}

	return ErrorInvocation
}
