package search

import (
	"context"
	"errors"
	"testing"

	"tracegraph/backend/internal/graph"
)

func TestSyncIndex_EmptyGraphIsNoOp(t *testing.T) {
	store := &mockStore{}
	index := &mockIndex{}
	engine := NewEngine(store, index, &mockEmbedder{}, &mockAnswerer{})

	synced, err := engine.SyncIndex(context.Background())
	if err != nil {
		t.Fatalf("SyncIndex failed: %v", err)
	}
	if synced != 0 {
		t.Errorf("Expected 0 synced entries, got %d", synced)
	}
	if index.upserted != nil {
		t.Error("Nothing should be upserted for an empty graph")
	}
}

func TestSyncIndex_BuildsKeyedEntries(t *testing.T) {
	store := &mockStore{rows: []graph.EmbeddableRow{
		{Label: "Requirement", BusinessID: "R1", Content: "Brakes\nmust stop"},
		{Label: "TestCase", BusinessID: "TC1", Content: "brake test\nfull stop"},
		{Label: "TestRun", BusinessID: "TR1", Content: "TestRun TR1 status passed\nok"},
	}}
	index := &mockIndex{}
	embedder := &mockEmbedder{dim: 8}
	engine := NewEngine(store, index, embedder, &mockAnswerer{})

	synced, err := engine.SyncIndex(context.Background())
	if err != nil {
		t.Fatalf("SyncIndex failed: %v", err)
	}

	if synced != 3 {
		t.Errorf("Expected 3 synced entries, got %d", synced)
	}
	if index.ensuredDim != 8 {
		t.Errorf("Collection dimension should come from the first vector, got %d", index.ensuredDim)
	}
	if len(embedder.embedded) != 1 || len(embedder.embedded[0]) != 3 {
		t.Fatalf("All content must embed in a single batch, got %v", embedder.embedded)
	}

	if len(index.upserted) != 3 {
		t.Fatalf("Expected 3 upserted entries, got %d", len(index.upserted))
	}
	first := index.upserted[0]
	if first.Key != "Requirement:R1" {
		t.Errorf("Expected composite key Requirement:R1, got %q", first.Key)
	}
	if first.Payload.Type != "Requirement" || first.Payload.BusinessID != "R1" {
		t.Errorf("Payload wrong: %+v", first.Payload)
	}
	if first.Payload.Text != "Brakes\nmust stop" {
		t.Errorf("Payload text wrong: %q", first.Payload.Text)
	}
	if len(first.Vector) != 8 {
		t.Errorf("Vector should pass through, got dim %d", len(first.Vector))
	}
}

func TestSyncIndex_PropagatesEmbedFailure(t *testing.T) {
	store := &mockStore{rows: []graph.EmbeddableRow{{Label: "Requirement", BusinessID: "R1", Content: "x"}}}
	embedder := &mockEmbedder{err: errors.New("embedding service unreachable")}
	engine := NewEngine(store, &mockIndex{}, embedder, &mockAnswerer{})

	if _, err := engine.SyncIndex(context.Background()); err == nil {
		t.Fatal("Expected embed failure to propagate, got nil")
	}
}

func TestImport_RunsPresentKindsThenSyncs(t *testing.T) {
	store := &mockStore{rows: []graph.EmbeddableRow{{Label: "Requirement", BusinessID: "R1", Content: "x"}}}
	index := &mockIndex{}
	engine := NewEngine(store, index, &mockEmbedder{}, &mockAnswerer{})

	payload := graph.ImportPayload{
		Requirements: []graph.RequirementRecord{{ID: "R1"}},
		TestCases:    []graph.TestCaseRecord{{ID: "TC1"}},
	}

	synced, err := engine.Import(context.Background(), payload)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if synced != 1 {
		t.Errorf("Expected 1 synced entry, got %d", synced)
	}

	if len(store.importedKinds) != 2 || store.importedKinds[0] != "requirements" || store.importedKinds[1] != "testCases" {
		t.Errorf("Expected requirements then testCases, got %v", store.importedKinds)
	}
	if len(index.upserted) != 1 {
		t.Error("Import must sync the index after the batch")
	}
}

func TestImport_NonAtomicAcrossKinds(t *testing.T) {
	store := &mockStore{failKind: "testRuns"}
	index := &mockIndex{}
	engine := NewEngine(store, index, &mockEmbedder{}, &mockAnswerer{})

	payload := graph.ImportPayload{
		Requirements: []graph.RequirementRecord{{ID: "R1"}},
		TestRuns:     []graph.TestRunRecord{{ID: "TR1"}},
		Links:        []graph.LinkRecord{{SourceID: "a", TargetID: "b"}},
	}

	_, err := engine.Import(context.Background(), payload)
	if err == nil {
		t.Fatal("Expected failure from testRuns import")
	}

	// requirements stayed committed, links never ran, no sync happened
	if len(store.importedKinds) != 1 || store.importedKinds[0] != "requirements" {
		t.Errorf("Expected only requirements committed, got %v", store.importedKinds)
	}
	if index.upserted != nil {
		t.Error("Index must not sync after a failed batch")
	}
}

func TestImport_EmptyPayloadStillSyncs(t *testing.T) {
	store := &mockStore{}
	engine := NewEngine(store, &mockIndex{}, &mockEmbedder{}, &mockAnswerer{})

	synced, err := engine.Import(context.Background(), graph.ImportPayload{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if synced != 0 {
		t.Errorf("Expected 0 synced, got %d", synced)
	}
	if len(store.importedKinds) != 0 {
		t.Errorf("No kinds should have imported, got %v", store.importedKinds)
	}
}
