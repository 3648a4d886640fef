// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ErrorKind classifies why an extraction failed.
type ErrorKind string

const (
	KindPasswordProtected ErrorKind = "password_protected"
	KindInvalidDocument   ErrorKind = "invalid_document"
	KindOther             ErrorKind = "other"
)

// ExtractionError is the single error type returned by a failed extraction.
// Message carries the human-readable description for KindOther; Err is the
// underlying failure, if any.
type ExtractionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Detail returns the underlying failure's message, or "" when there is none.
func (e *ExtractionError) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// NewExtractionError builds an ExtractionError of the given kind.
func NewExtractionError(kind ErrorKind, message string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: message, Err: err}
}
