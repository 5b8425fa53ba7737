package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Wrap returns an error with a client-facing message that matches kind under errors.Is.
func Wrap(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// NotFound builds a not-found error carrying msg.
func NotFound(msg string) error { return Wrap(ErrNotFound, msg) }

// ValidationError carries per-field request failures. Cause, when set, lets
// callers match a domain sentinel with errors.Is.
type ValidationError struct {
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// Invalid builds a ValidationError without field detail.
func Invalid(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses. Unexpected errors are
// reported with fallback only, never with their own text.
func RespondError(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		Message(w, status, fallback)
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		JSON(w, status, ErrorBody{Message: verr.Message, Errors: verr.Fields})
		return
	}
	var kerr *kindError
	if errors.As(err, &kerr) {
		Message(w, status, kerr.msg)
		return
	}
	Message(w, status, http.StatusText(status))
}
