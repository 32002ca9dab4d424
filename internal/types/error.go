package types

import "fmt"

// CustomError carries an HTTP status and error type through the fiber error
// handler. Cause, when set, is kept for errors.Is/As but not shown to clients.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Cause   error  `json:"-"`
}

// NewCustomError builds a CustomError wrapping cause.
func NewCustomError(code int, errorType, message string, cause error) *CustomError {
	return &CustomError{Code: code, Message: message, Type: errorType, Cause: cause}
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Cause
}
