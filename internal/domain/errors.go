package domain

import (
	"errors"
	"net/http"
)

// Sentinel errors for the registry core. Services wrap these with
// fmt.Errorf("%w: ...") so callers can classify failures with errors.Is.
var (
	// ErrInvalidInput indicates malformed or out-of-range caller data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates an unknown project or account id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates a state machine precondition violation.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrAlreadyPending indicates a duplicate verification request for a
	// project whose oracle call has not yet returned.
	ErrAlreadyPending = errors.New("verification already pending")

	// ErrInsufficientBalance indicates a ledger or marketplace operation
	// requested more credits than the account holds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOracleUnavailable indicates the evidence source failed or timed out.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrInvariantViolation signals a programming error detected before
	// commit. It should never surface in correct operation.
	ErrInvariantViolation = errors.New("invariant violation")
)

// HTTPStatus maps a core error to the HTTP status the API layer reports.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrAlreadyPending):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvariantViolation):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
