package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryDOM       Category = "dom"
	CategoryComponent Category = "component"
	CategoryRouter    Category = "router"
	CategoryTemplate  Category = "template"
	CategoryDeferred  Category = "deferred"
	CategoryConfig    Category = "config"
	CategoryProtocol  Category = "protocol"
)

// GousseError is a structured error with a code and an optional cause.
type GousseError struct {
	// Code is a unique error identifier (e.g., "G001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, or the offending input.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *GousseError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *GousseError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a GousseError with the same code.
func (e *GousseError) Is(target error) bool {
	var t *GousseError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *GousseError) WithDetail(d string) *GousseError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *GousseError) WithDetailf(format string, args ...any) *GousseError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *GousseError) WithSuggestion(s string) *GousseError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *GousseError) Wrap(err error) *GousseError {
	e.Wrapped = err
	return e
}

// Format returns a multi-line report suitable for terminal output.
func (e *GousseError) Format() string {
	var b strings.Builder
	b.WriteString("ERROR ")
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	b.WriteString("\n")
	if e.Detail != "" {
		b.WriteString("\n  ")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		b.WriteString("\n  caused by: ")
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		b.WriteString("\n  Hint: ")
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}
	return b.String()
}

// New creates a GousseError from a registered error code.
func New(code string) *GousseError {
	template, ok := registry[code]
	if !ok {
		return &GousseError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &GousseError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new GousseError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *GousseError {
	return &GousseError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a GousseError.
func FromError(err error, code string) *GousseError {
	if err == nil {
		return nil
	}
	var ge *GousseError
	if stderrors.As(err, &ge) {
		return ge
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	return stderrors.Is(err, &GousseError{Code: code})
}
