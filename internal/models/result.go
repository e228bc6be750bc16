package models

// ErrorType classifies a failed data-access call so callers can branch without inspecting messages.
type ErrorType string

const (
	ErrorNotFound   ErrorType = "not-found"
	ErrorValidation ErrorType = "validation"
	ErrorNetwork    ErrorType = "network"
	ErrorPermission ErrorType = "permission"
)

// Result is returned by every data-access operation. Exactly one of Data or
// Error/ErrorType is meaningful, selected by Success.
type Result[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorType ErrorType `json:"errorType,omitempty"`
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func Fail[T any](errorType ErrorType, message string) Result[T] {
	return Result[T]{Success: false, Error: message, ErrorType: errorType}
}

// Empty is the payload of results that carry no data.
type Empty struct{}
