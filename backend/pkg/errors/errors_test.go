package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsErrorType_TypedWrappers(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		errType ErrorType
	}{
		{"missing id", NewRecordMissingID("requirement", 2), ErrorTypeValidation},
		{"service unavailable", NewServiceUnavailable("embedding", "nomic-embed-text", errors.New("timeout")), ErrorTypeService},
		{"graph query", NewGraphQueryFailed("import requirement R1", errors.New("down")), ErrorTypeBackend},
		{"vector backend", NewVectorBackendFailed("upsert", "trace_artifacts", errors.New("down")), ErrorTypeBackend},
		{"dimension mismatch", NewDimensionMismatch("Requirement:R1", 768, 4), ErrorTypeBackend},
		{"unsafe relationship type", NewUnsafeRelationshipType("DEPENDS ON"), ErrorTypeInjection},
		{"missing config", NewConfigMissingRequired("NEO4J_URI"), ErrorTypeConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !IsErrorType(tc.err, tc.errType) {
				t.Errorf("Expected %v to carry type %s", tc.err, tc.errType)
			}
			if IsErrorType(tc.err, ErrorTypeNotFound) {
				t.Errorf("Expected %v not to match type %s", tc.err, ErrorTypeNotFound)
			}
		})
	}
}

func TestIsErrorType_WrappedChain(t *testing.T) {
	inner := NewUnsafeRelationshipType("DROP DATABASE")
	outer := fmt.Errorf("importing links: %w", inner)

	if !IsErrorType(outer, ErrorTypeInjection) {
		t.Error("Expected category to be found through a fmt.Errorf %w chain")
	}
}

func TestIsErrorType_UnrelatedError(t *testing.T) {
	if IsErrorType(errors.New("plain"), ErrorTypeBackend) {
		t.Error("Plain errors must not match any category")
	}
	if IsErrorType(nil, ErrorTypeBackend) {
		t.Error("Nil must not match any category")
	}
}
