package client

import (
	"errors"
	"fmt"
)

// PartnerError represents a failed partner call.
type PartnerError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *PartnerError) Error() string {
	var b []byte
	if e.StatusCode != 0 {
		b = fmt.Appendf(b, "partner %s error (status %d)", e.ErrorClass, e.StatusCode)
	} else {
		b = fmt.Appendf(b, "partner %s error", e.ErrorClass)
	}
	if e.Message != "" {
		b = fmt.Appendf(b, ": %s", e.Message)
	}
	if e.Err != nil {
		b = fmt.Appendf(b, ": %v", e.Err)
	}
	return string(b)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PartnerError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var pe *PartnerError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// Detail returns the partner's message for err when it is a PartnerError, and
// err.Error() otherwise.
func Detail(err error) string {
	var pe *PartnerError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
