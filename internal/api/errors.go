package api

import (
	"errors"
	"fmt"
)

// Common e-invoice API errors
var (
	// ErrUnexpectedStatus is returned when the backend answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrDecodeResponse is returned when a response body does not match the expected JSON.
	ErrDecodeResponse = errors.New("failed to decode response")

	// ErrEmptySelection is returned by actions called without any invoice id.
	ErrEmptySelection = errors.New("no invoices selected")

	// ErrMissingSubmitter is returned by submit, merge and red-note when no
	// submitter name is given.
	ErrMissingSubmitter = errors.New("submittedBy is required")

	// ErrInvalidBaseURL is returned when the configured base URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("invalid API base URL")
)

// RequestError wraps a failed backend call with the operation and the HTTP
// status, when one was received.
type RequestError struct {
	// Op is the client operation that failed (e.g., "QueryInvoices", "SubmitInvoice").
	Op string

	// StatusCode is the HTTP status, or 0 on transport failures.
	StatusCode int

	// Message is the backend's error message, if the body carried one.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("api: %s failed (status %d): %s: %v", e.Op, e.StatusCode, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("api: %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("api: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}
