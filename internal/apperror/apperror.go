// Package apperror defines the error kinds shared by every layer of the
// snippet service.
//
// The repository and service layers return *AppError values that wrap one of
// the sentinel errors below. Callers classify them with errors.Is and pull out
// the details with errors.As; only the HTTP layer knows about status codes.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: first field causing the error

	// Fields holds per-field messages for validation errors. A single
	// request can fail on several fields at once (e.g. missing code and an
	// unknown style), so the messages are grouped by field name.
	Fields map[string][]string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

// Invalid builds a validation error from a set of field messages. It returns
// nil when fields is empty so callers can write:
//
//	if err := apperror.Invalid(problems); err != nil {
//		return nil, err
//	}
func Invalid(fields map[string][]string) error {
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], "; ")))
	}

	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(parts, ", "),
		Field:   names[0],
		Fields:  fields,
	}
}

func Conflict(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %v", resource, id),
	}
}
