// Package apperrors carries the failure taxonomy shared by the player and the
// proxy: every error that crosses a package boundary is an *AppError with one
// of the codes below.
package apperrors

import "errors"

const (
	CodeNetwork     = "network_failure"
	CodeTimeout     = "timeout"
	CodeValidation  = "validation_failure"
	CodeNoMatch     = "no_match"
	CodeUnsupported = "unsupported_capability"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost AppError in err's chain, or "" when
// there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsNetwork reports whether err is a failed or timed out external call.
func IsNetwork(err error) bool {
	code := CodeOf(err)
	return code == CodeNetwork || code == CodeTimeout
}
