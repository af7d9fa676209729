// Package errors provides custom error types for the Piggybank API.
// All service-layer and ledger errors should use AppError so that the HTTP
// layer can map each failure to a stable code without leaking internal
// details to clients.
package errors

import (
	"errors"
	"net/http"
)

// Kind is the machine-readable class of an AppError. Several codes share a
// kind (e.g. GOAL_NOT_FOUND and ACCOUNT_NOT_FOUND are both KindNotFound).
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindUnauthorized      Kind = "unauthorized"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindInvalidState      Kind = "invalid_state"
	KindInconsistent      Kind = "inconsistent"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"-"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// KindOf returns the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func newError(code, message string, kind Kind, status int) *AppError {
	return &AppError{Code: code, Message: message, Kind: kind, StatusCode: status}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = newError("UNAUTHORIZED", "Authentication required", KindUnauthorized, http.StatusUnauthorized)
	ErrInvalidCredentials = newError("INVALID_CREDENTIALS", "Invalid email or password", KindUnauthorized, http.StatusUnauthorized)
	ErrForbidden          = newError("FORBIDDEN", "Access denied", KindForbidden, http.StatusForbidden)
)

// General errors.
var (
	ErrInvalidInput   = newError("INVALID_INPUT", "Invalid input", KindInvalidInput, http.StatusBadRequest)
	ErrNotFound       = newError("NOT_FOUND", "Resource not found", KindNotFound, http.StatusNotFound)
	ErrInternalServer = newError("INTERNAL_ERROR", "An internal error occurred", KindInternal, http.StatusInternalServerError)
)

// User errors.
var (
	ErrUserNotFound   = newError("USER_NOT_FOUND", "User not found", KindNotFound, http.StatusNotFound)
	ErrDuplicateEmail = newError("DUPLICATE_EMAIL", "A user with this email already exists", KindConflict, http.StatusConflict)
)

// Account errors.
var (
	ErrAccountNotFound    = newError("ACCOUNT_NOT_FOUND", "Account not found", KindNotFound, http.StatusNotFound)
	ErrInsufficientFunds  = newError("INSUFFICIENT_FUNDS", "Insufficient account balance", KindInsufficientFunds, http.StatusUnprocessableEntity)
	ErrInvalidAmount      = newError("INVALID_AMOUNT", "Amount must be greater than zero", KindInvalidInput, http.StatusBadRequest)
	ErrInvalidTransaction = newError("INVALID_TRANSACTION", "Invalid transaction record", KindInvalidInput, http.StatusBadRequest)
)

// Goal errors.
var (
	ErrGoalNotFound  = newError("GOAL_NOT_FOUND", "Goal not found", KindNotFound, http.StatusNotFound)
	ErrGoalForbidden = newError("GOAL_FORBIDDEN", "Goal belongs to another account", KindForbidden, http.StatusForbidden)
	ErrGoalState     = newError("INVALID_GOAL_STATE", "Goal is not in a valid state for this operation", KindInvalidState, http.StatusConflict)
)

// Purchase request errors.
var (
	ErrPurchaseRequestNotFound  = newError("PURCHASE_REQUEST_NOT_FOUND", "Purchase request not found", KindNotFound, http.StatusNotFound)
	ErrPurchaseRequestForbidden = newError("PURCHASE_REQUEST_FORBIDDEN", "Purchase request belongs to another parent", KindForbidden, http.StatusForbidden)
	ErrPurchaseRequestState     = newError("INVALID_PURCHASE_REQUEST_STATE", "Purchase request has already been processed", KindInvalidState, http.StatusConflict)
)

// Interest errors.
var (
	ErrInterestConfigNotFound = newError("INTEREST_CONFIG_NOT_FOUND", "Interest configuration not found", KindNotFound, http.StatusNotFound)
)

// Ledger consistency errors.
var (
	ErrInconsistent = newError("LEDGER_INCONSISTENT", "Ledger requires manual reconciliation", KindInconsistent, http.StatusInternalServerError)
)
