// Package apperr defines the error taxonomy shared by the generation pipeline and the exporters.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the boundary it is caught at.
type Kind string

const (
	KindGeneration       Kind = "generation"
	KindRegeneration     Kind = "regeneration"
	KindImage            Kind = "image"
	KindExport           Kind = "export"
	KindUnsupportedInput Kind = "unsupported_input"
	KindBusy             Kind = "busy"
	KindInvalidInput     Kind = "invalid_input"
)

var prefixes = map[Kind]string{
	KindGeneration:       "failed to generate content",
	KindRegeneration:     "failed to regenerate slide",
	KindImage:            "failed to generate image",
	KindExport:           "export failed",
	KindUnsupportedInput: "unsupported file",
	KindBusy:             "busy",
	KindInvalidInput:     "invalid input",
}

// Error is a classified failure. Message is safe to show to a user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	prefix := prefixes[e.Kind]
	if prefix == "" {
		prefix = string(e.Kind)
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. An err that already carries the same kind is returned as is.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind == kind && message == "" {
		return err
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage renders err for display. Unclassified errors get a generic prefix.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if KindOf(err) == "" {
		return "an unexpected error occurred: " + err.Error()
	}
	return err.Error()
}
