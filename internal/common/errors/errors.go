package errors

import (
	"fmt"
	"time"
)

// ErrorCode classifies application errors.
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeConflict     ErrorCode = "CONFLICT"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeTournamentNotFound ErrorCode = "TOURNAMENT_NOT_FOUND"
	ErrCodePaymentNotFound    ErrorCode = "PAYMENT_NOT_FOUND"
	ErrCodeNotParticipant     ErrorCode = "NOT_A_PARTICIPANT"

	ErrCodeStorage        ErrorCode = "STORAGE_ERROR"
	ErrCodeTelegramAPI    ErrorCode = "TELEGRAM_API_ERROR"
	ErrCodeExternalAPI    ErrorCode = "EXTERNAL_API_ERROR"
	ErrCodePartialFailure ErrorCode = "PARTIAL_FAILURE"
)

// AppError is the typed error carried across component boundaries.
type AppError struct {
	Code      ErrorCode         `json:"code"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Cause     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error denotes a missing record.
func (e *AppError) IsNotFound() bool {
	switch e.Code {
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeTournamentNotFound, ErrCodePaymentNotFound:
		return true
	}
	return false
}

// IsValidation reports whether the error is recoverable user input.
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation
}

// IsPartialFailure reports whether one side effect of a multi-step
// operation succeeded while another failed.
func (e *AppError) IsPartialFailure() bool {
	return e.Code == ErrCodePartialFailure
}

// WithContext attaches a key/value pair to the error.
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// NewValidationError marks bad user-supplied input. Guided flows re-prompt
// the same step on this error instead of aborting.
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("validation failed for '%s': %s", field, reason)).
		WithContext("field", field)
}

func NewUserNotFoundError(username string) *AppError {
	return New(ErrCodeUserNotFound, fmt.Sprintf("user not found: %s", username)).
		WithContext("username", username)
}

func NewTournamentNotFoundError(tournamentID string) *AppError {
	return New(ErrCodeTournamentNotFound, fmt.Sprintf("tournament not found: %s", tournamentID)).
		WithContext("tournament_id", tournamentID)
}

// NewStorageError marks a transient store failure. Not retried
// automatically; commands are idempotent, so re-running is the retry path.
func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("storage operation failed: %s", operation)).
		WithContext("operation", operation)
}

func NewTelegramAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTelegramAPI, fmt.Sprintf("telegram API operation failed: %s", operation)).
		WithContext("operation", operation)
}

// NewPartialFailure marks an operation whose primary effect succeeded while
// a secondary one failed, e.g. tournament persisted but announcement not sent.
func NewPartialFailure(done, failed string, err error) *AppError {
	return Wrap(err, ErrCodePartialFailure, fmt.Sprintf("%s succeeded but %s failed", done, failed)).
		WithContext("succeeded", done).
		WithContext("failed", failed)
}

// AsAppError casts err to *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
