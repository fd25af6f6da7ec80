package custom_err

import "errors"

var (
	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrDuplicateTime   = errors.New("duplicate time in request")
	ErrEmptyHistories  = errors.New("rate histories must not be empty")
	ErrUnsupportedPair = errors.New("unsupported currency pair")

	// Lookup errors
	ErrNotFound        = errors.New("resource not found")
	ErrHistoryNotFound = errors.New("rate history not found or expired")
	ErrModelNotFound   = errors.New("forecast model not found")

	// Storage errors
	ErrPersistence = errors.New("persistence failure")

	// Forecast / training errors
	ErrComputation               = errors.New("forecast computation failed")
	ErrForecastFailed            = errors.New("forecast recorded as failed")
	ErrTimeout                   = errors.New("forecast timed out")
	ErrInsufficientData          = errors.New("insufficient training data")
	ErrFeatureParamsHashMismatch = errors.New("feature params hash mismatch")
	ErrInputSizeMismatch         = errors.New("input data size mismatch")

	// Token errors
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotActive = errors.New("token not active yet")
)

// FailureError прогноз был посчитан с ошибкой; Summary уходит клиенту как есть
type FailureError struct {
	Summary string
}

func (e *FailureError) Error() string {
	return e.Summary
}

func (e *FailureError) Unwrap() error {
	return ErrForecastFailed
}
