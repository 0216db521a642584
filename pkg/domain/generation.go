package domain

import "fmt"

// ErrorKind classifies why a request failed.
type ErrorKind string

const (
	// ErrorMissingCredential means no credential was configured. Recovered by credential entry.
	ErrorMissingCredential ErrorKind = "missing_credential"
	// ErrorTransportFailure means the backend could not be reached or the reply could not be read.
	ErrorTransportFailure ErrorKind = "transport_failure"
	// ErrorRejectedByService means the backend answered with a non-success status.
	ErrorRejectedByService ErrorKind = "rejected_by_service"
)

// GenerationError is the explicit failure value returned by a generator.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	// Status is the backend status code for ErrorRejectedByService, zero otherwise.
	Status int
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// MissingCredentialError builds the failure for an unset credential.
func MissingCredentialError() *GenerationError {
	return &GenerationError{
		Kind:    ErrorMissingCredential,
		Message: "a Gemini API key is required; set one before requesting a report",
	}
}

// TransportError builds a failure for connectivity problems.
func TransportError(err error) *GenerationError {
	return &GenerationError{Kind: ErrorTransportFailure, Message: err.Error(), Err: err}
}

// RejectedError builds a failure for a non-success backend status.
func RejectedError(status int, message string, err error) *GenerationError {
	return &GenerationError{Kind: ErrorRejectedByService, Status: status, Message: message, Err: err}
}
