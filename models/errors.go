package models

import (
	"errors"
	"fmt"
)

// Error codes used in logs and internal error handling.
const (
	ErrCodeLaunch             = "LAUNCH_FAILED"
	ErrCodeSessionUnavailable = "SESSION_UNAVAILABLE"
	ErrCodeRequiredField      = "REQUIRED_FIELD_MISSING"
	ErrCodeTimeout            = "NAVIGATION_TIMEOUT"
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeCanceled           = "REQUEST_CANCELED"
	ErrCodeExtraction         = "EXTRACTION_FAILED"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Sentinel errors for errors.Is checks. ScrapeErrors wrap one of these.
var (
	ErrLaunch               = errors.New("browser could not be launched")
	ErrSessionUnavailable   = errors.New("no live browser session")
	ErrRequiredFieldMissing = errors.New("required field missing")
	ErrNavigationTimeout    = errors.New("navigation timed out")
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first ScrapeError in err's chain,
// or ErrCodeInternal if there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}
