// Package common holds the error shape shared by every handler and service.
package common

import "fmt"

// APIError is the error the HTTP layer renders: a status code, a
// caller-facing message, and optional per-field detail. It is passed by
// value so handlers can type-assert it off gin's error list.
type APIError struct {
	Status  int            `json:"-"`
	Message string         `json:"error"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

// Errf builds an APIError from a status and a format string.
func Errf(status int, format string, args ...any) APIError {
	return APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// NewAPIError builds an APIError carrying field-level detail, typically from
// a failed validation.
func NewAPIError(status int, message string, fields map[string]any) APIError {
	return APIError{Status: status, Message: message, Fields: fields}
}
