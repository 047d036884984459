package adapter

import (
	"context"
	"testing"
	"time"
)

// These are integration tests against a running OpenAI-compatible endpoint
// (e.g. Ollama at http://localhost:11434).

func TestLLMAdapter_Embed(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	a := NewLLMAdapter("http://localhost:11434", "", "nomic-embed-text", "llama3", 2*time.Minute, 5*time.Minute)

	texts := []string{"Brakes\nmust stop", "brake test\nfull stop"}
	vectors, err := a.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(vectors) != len(texts) {
		t.Fatalf("Expected %d vectors, got %d", len(texts), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		t.Fatal("Expected non-empty vectors")
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			t.Errorf("Vector %d has dimension %d, expected %d", i, len(vec), dim)
		}
	}
}

func TestLLMAdapter_Embed_EmptyInput(t *testing.T) {
	a := NewLLMAdapter("http://localhost:11434", "", "nomic-embed-text", "llama3", 2*time.Minute, 5*time.Minute)

	vectors, err := a.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed of empty input must not call the service: %v", err)
	}
	if vectors != nil {
		t.Errorf("Expected nil vectors for empty input, got %v", vectors)
	}
}

func TestLLMAdapter_Answer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	a := NewLLMAdapter("http://localhost:11434", "", "nomic-embed-text", "llama3", 2*time.Minute, 5*time.Minute)

	answer, err := a.Answer(context.Background(), "You are a terse assistant.", "Say hello in one word.")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer == "" {
		t.Error("Expected non-empty answer")
	}
}
