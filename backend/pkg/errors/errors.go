package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents malformed input records
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents references to entities that do not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeService represents embedding/chat service failures
	ErrorTypeService ErrorType = "service"
	// ErrorTypeBackend represents graph/vector backend query failures
	ErrorTypeBackend ErrorType = "backend"
	// ErrorTypeInjection represents rejected unsafe dynamic query input
	ErrorTypeInjection ErrorType = "injection"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrorType reports the category of the error. Embedding promotes it onto
// every typed wrapper, so IsErrorType sees the category regardless of the
// concrete type.
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ErrRecordMissingID is returned when an imported record has no business id
type ErrRecordMissingID struct {
	*BaseError
	Kind  string
	Index int
}

func NewRecordMissingID(kind string, index int) *ErrRecordMissingID {
	return &ErrRecordMissingID{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("%s record at index %d has no id", kind, index), nil),
		Kind:      kind,
		Index:     index,
	}
}

// Service Errors

// ErrServiceUnavailable is returned when the embedding or chat backend is
// unreachable or timed out. Retry policy belongs to the caller.
type ErrServiceUnavailable struct {
	*BaseError
	Service string
	Model   string
}

func NewServiceUnavailable(service, model string, err error) *ErrServiceUnavailable {
	return &ErrServiceUnavailable{
		BaseError: NewBaseError(ErrorTypeService, fmt.Sprintf("%s service unavailable (model %s)", service, model), err),
		Service:   service,
		Model:     model,
	}
}

// Backend Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeBackend, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeBackend, fmt.Sprintf("graph query failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrVectorBackendFailed is returned when a vector index operation fails
type ErrVectorBackendFailed struct {
	*BaseError
	Operation  string
	Collection string
}

func NewVectorBackendFailed(operation, collection string, err error) *ErrVectorBackendFailed {
	return &ErrVectorBackendFailed{
		BaseError:  NewBaseError(ErrorTypeBackend, fmt.Sprintf("vector backend %s failed on collection %s", operation, collection), err),
		Operation:  operation,
		Collection: collection,
	}
}

// ErrDimensionMismatch is returned when an upserted vector does not match the
// collection dimensionality
type ErrDimensionMismatch struct {
	*BaseError
	Key  string
	Want int
	Got  int
}

func NewDimensionMismatch(key string, want, got int) *ErrDimensionMismatch {
	return &ErrDimensionMismatch{
		BaseError: NewBaseError(ErrorTypeBackend, fmt.Sprintf("vector for %s has dimension %d, collection expects %d", key, got, want), nil),
		Key:       key,
		Want:      want,
		Got:       got,
	}
}

// Injection Errors

// ErrUnsafeRelationshipType is returned when a caller-supplied link type fails
// the identifier-syntax check and would otherwise be interpolated into a query
type ErrUnsafeRelationshipType struct {
	*BaseError
	LinkType string
}

func NewUnsafeRelationshipType(linkType string) *ErrUnsafeRelationshipType {
	return &ErrUnsafeRelationshipType{
		BaseError: NewBaseError(ErrorTypeInjection, fmt.Sprintf("relationship type %q is not a valid identifier", linkType), nil),
		LinkType:  linkType,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error in the chain carries the given category
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ ErrorType() ErrorType }); ok {
			return typed.ErrorType() == errType
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}
