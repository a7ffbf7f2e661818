package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInput         ErrorType = "INPUT"
	ErrTypeMissingColumn ErrorType = "MISSING_COLUMN"
	ErrTypeDomain        ErrorType = "DOMAIN"
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
	ErrTypeConfig        ErrorType = "CONFIG"
)

// Context keys used by the constructors below.
const (
	ContextColumn    = "column"
	ContextParameter = "parameter"
	ContextValue     = "value"
	ContextLine      = "line"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInputError reports an unusable sample column (empty, NaN or infinite values).
func NewInputError(column, message string) *AppError {
	return NewAppError(ErrTypeInput, fmt.Sprintf("column %q: %s", column, message), nil).
		WithContext(ContextColumn, column)
}

// NewMissingColumnError reports a required raw or canonical column that is absent.
func NewMissingColumnError(column string) *AppError {
	return NewAppError(ErrTypeMissingColumn, fmt.Sprintf("required column %q is missing", column), nil).
		WithContext(ContextColumn, column)
}

// NewDomainError reports a value outside the valid range of a conversion.
func NewDomainError(parameter string, value float64, message string) *AppError {
	return NewAppError(ErrTypeDomain, fmt.Sprintf("%s=%g: %s", parameter, value, message), nil).
		WithContext(ContextParameter, parameter).
		WithContext(ContextValue, value)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsInputError reports whether err is (or wraps) an input error.
func IsInputError(err error) bool { return IsType(err, ErrTypeInput) }

// IsMissingColumn reports whether err is (or wraps) a missing column error.
func IsMissingColumn(err error) bool { return IsType(err, ErrTypeMissingColumn) }

// IsDomainError reports whether err is (or wraps) a domain error.
func IsDomainError(err error) bool { return IsType(err, ErrTypeDomain) }

// MissingColumn returns the column named by a missing column error in err's chain.
func MissingColumn(err error) (string, bool) {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return "", false
		}
		if appErr.Type == ErrTypeMissingColumn {
			column, ok := appErr.Context[ContextColumn].(string)
			return column, ok
		}
		err = appErr.Cause
	}
	return "", false
}
