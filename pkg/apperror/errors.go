package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of error categories callers branch on.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindIntegrity         Kind = "INTEGRITY"
	KindExternalGateway   Kind = "EXTERNAL_GATEWAY"
	KindInternal          Kind = "INTERNAL"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"kind"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KindOf extracts the Kind of err, or KindInternal for non-AppErrors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New(KindValidation, "VAL_001", "Amount must be positive", http.StatusBadRequest)
}

func Validation(message string) *AppError {
	return New(KindValidation, "VAL_002", message, http.StatusBadRequest)
}

func ErrCardSuspended() *AppError {
	return New(KindValidation, "VAL_003", "Card is suspended", http.StatusForbidden)
}

func ErrWalletSuspended() *AppError {
	return New(KindValidation, "VAL_004", "Wallet is suspended", http.StatusForbidden)
}

// ---- Lookup (LKP) ----

func ErrNotFound(entity string) *AppError {
	return New(KindNotFound, "LKP_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Conflicts (CNF) ----

func ErrWalletExists() *AppError {
	return New(KindConflict, "CNF_001", "An active wallet already exists for this owner", http.StatusConflict)
}

func ErrCardNumberExists() *AppError {
	return New(KindConflict, "CNF_002", "A card with this number is already registered", http.StatusConflict)
}

// ---- Ledger (LGR) ----

// ErrInsufficientFunds is a distinguishable validation failure: the balance
// re-check inside the unit of work came up short.
func ErrInsufficientFunds() *AppError {
	return New(KindInsufficientFunds, "LGR_001", "Insufficient balance", http.StatusPaymentRequired)
}

// ---- Crypto (CRY) ----

// ErrIntegrity marks an authentication-tag failure during decryption.
// It means tampering or a wrong key and must never be swallowed.
func ErrIntegrity(err error) *AppError {
	return Wrap(KindIntegrity, "CRY_001", "Stored token failed integrity verification", http.StatusInternalServerError, err)
}

func ErrCryptoFailure(err error) *AppError {
	return Wrap(KindInternal, "CRY_002", "Crypto operation failed", http.StatusInternalServerError, err)
}

// ---- External gateway (GWY) ----

func ErrGateway(err error) *AppError {
	return Wrap(KindExternalGateway, "GWY_001", "Payment gateway request failed", http.StatusBadGateway, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New(KindValidation, "AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(KindInternal, "SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
