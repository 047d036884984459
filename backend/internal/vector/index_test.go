package vector

import (
	"context"
	"testing"

	apperrors "tracegraph/backend/pkg/errors"
	"tracegraph/backend/pkg/logger"
)

func TestKey(t *testing.T) {
	if got := Key("Requirement", "R1"); got != "Requirement:R1" {
		t.Errorf("Expected Requirement:R1, got %q", got)
	}
}

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("Requirement:R1")
	b := PointID("Requirement:R1")
	if a != b {
		t.Errorf("PointID must be deterministic: %q vs %q", a, b)
	}
	if a == PointID("TestCase:R1") {
		t.Error("Different keys must produce different point ids")
	}
	if len(a) != 36 {
		t.Errorf("Expected a canonical UUID string, got %q", a)
	}
}

func TestIndex_UpsertBeforeEnsureCollectionFailsFast(t *testing.T) {
	index := &Index{collection: "trace_artifacts_test", logger: logger.Get()}

	err := index.Upsert(context.Background(), []Entry{{
		Key:    Key("Requirement", "R1"),
		Vector: []float32{1, 0, 0, 0},
	}})
	if err == nil {
		t.Fatal("Expected upsert without a known collection dimension to fail")
	}
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeBackend) {
		t.Errorf("Expected backend error type, got %v", err)
	}
}

// Integration test requires a running Qdrant instance at localhost:6334.
func TestIndex_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	index, err := NewIndex("localhost", 6334, "trace_artifacts_test")
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	defer index.Close()

	if err := index.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	// idempotent
	if err := index.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection second call failed: %v", err)
	}

	entries := []Entry{
		{
			Key:    Key("Requirement", "R1"),
			Vector: []float32{1, 0, 0, 0},
			Payload: Payload{
				Type:       "Requirement",
				BusinessID: "R1",
				Text:       "Brakes\nmust stop",
			},
		},
		{
			Key:    Key("TestCase", "TC1"),
			Vector: []float32{0, 1, 0, 0},
			Payload: Payload{
				Type:       "TestCase",
				BusinessID: "TC1",
				Text:       "brake test",
			},
		},
	}
	if err := index.Upsert(ctx, entries); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	hits, err := index.Search(ctx, []float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].Key != "Requirement:R1" {
		t.Errorf("Expected nearest hit Requirement:R1, got %q", hits[0].Key)
	}
	if hits[0].Payload.Text != "Brakes\nmust stop" {
		t.Errorf("Payload text did not round-trip: %q", hits[0].Payload.Text)
	}

	// search determinism for a fixed index state
	again, err := index.Search(ctx, []float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Second search failed: %v", err)
	}
	for i := range hits {
		if hits[i].Key != again[i].Key || hits[i].Score != again[i].Score {
			t.Errorf("Search not deterministic at rank %d: %+v vs %+v", i, hits[i], again[i])
		}
	}
}

func TestIndex_UpsertRejectsDimensionMismatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	index, err := NewIndex("localhost", 6334, "trace_artifacts_test")
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	defer index.Close()

	if err := index.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}

	err = index.Upsert(ctx, []Entry{{
		Key:    Key("Requirement", "R-bad"),
		Vector: []float32{1, 0}, // wrong dimension
		Payload: Payload{
			Type:       "Requirement",
			BusinessID: "R-bad",
		},
	}})
	if err == nil {
		t.Fatal("Expected dimension mismatch to be rejected")
	}
}
