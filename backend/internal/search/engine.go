package search

import (
	"context"

	"go.uber.org/zap"

	"tracegraph/backend/internal/constants"
	"tracegraph/backend/internal/graph"
	"tracegraph/backend/internal/vector"
	"tracegraph/backend/pkg/logger"
)

// GraphStore is the graph backend surface the engine needs.
type GraphStore interface {
	ImportRequirements(ctx context.Context, reqs []graph.RequirementRecord) error
	ImportTestCases(ctx context.Context, tcs []graph.TestCaseRecord) error
	ImportTestRuns(ctx context.Context, runs []graph.TestRunRecord) error
	ImportLinks(ctx context.Context, links []graph.LinkRecord) error
	ExportEmbeddable(ctx context.Context) ([]graph.EmbeddableRow, error)
	ExpandNeighborhood(ctx context.Context, ids graph.IDsByType) (*graph.Neighborhood, error)
}

// VectorIndex is the vector backend surface the engine needs.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, entries []vector.Entry) error
	Search(ctx context.Context, queryVector []float32, k int) ([]vector.Hit, error)
}

// Embedder converts texts into vectors, same length and order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Answerer produces free text from a prompt pair.
type Answerer interface {
	Answer(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// VectorMatch is one ranked similarity hit.
type VectorMatch struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Score float32 `json:"score"`
	Text  string  `json:"text,omitempty"`
}

// HybridResult pairs the ranked vector hits with their graph neighborhood.
// The two halves are returned uncombined; merging them into an answer or a
// display is the caller's concern.
type HybridResult struct {
	Query         string             `json:"query"`
	VectorMatches []VectorMatch      `json:"vector_matches"`
	Neighborhood  graph.Neighborhood `json:"graph_neighbourhood"`
}

// AskResult carries a generated answer together with the data it saw.
type AskResult struct {
	Query    string             `json:"query"`
	DataUsed graph.Neighborhood `json:"data_used"`
	Answer   string             `json:"answer"`
}

// Engine orchestrates vector similarity search and graph traversal over the
// traceability graph.
type Engine struct {
	store    GraphStore
	index    VectorIndex
	embedder Embedder
	answerer Answerer
	logger   *zap.Logger
}

// NewEngine creates a hybrid retrieval engine.
func NewEngine(store GraphStore, index VectorIndex, embedder Embedder, answerer Answerer) *Engine {
	return &Engine{
		store:    store,
		index:    index,
		embedder: embedder,
		answerer: answerer,
		logger:   logger.Get(),
	}
}

// VectorSearch embeds the query and returns the top-K nearest index entries.
func (e *Engine) VectorSearch(ctx context.Context, query string) ([]VectorMatch, error) {
	hits, err := e.searchHits(ctx, query)
	if err != nil {
		return nil, err
	}

	matches := make([]VectorMatch, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, VectorMatch{
			ID:    h.Payload.BusinessID,
			Type:  h.Payload.Type,
			Score: h.Score,
			Text:  h.Payload.Text,
		})
	}
	return matches, nil
}

// HybridSearch embeds the query, finds the top-K nearest entries, expands
// their graph neighborhood and returns both halves. Every id appearing in the
// neighborhood for a type was present in that type's hit bucket.
func (e *Engine) HybridSearch(ctx context.Context, query string) (*HybridResult, error) {
	hits, err := e.searchHits(ctx, query)
	if err != nil {
		return nil, err
	}

	ids := groupHitsByType(hits)
	neighborhood, err := e.store.ExpandNeighborhood(ctx, ids)
	if err != nil {
		return nil, err
	}

	matches := make([]VectorMatch, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, VectorMatch{
			ID:    h.Payload.BusinessID,
			Type:  h.Payload.Type,
			Score: h.Score,
		})
	}

	e.logger.Debug("Hybrid search completed",
		zap.Int("vector_matches", len(matches)),
		zap.Int("requirement_seeds", len(ids.Requirements)),
		zap.Int("testcase_seeds", len(ids.TestCases)),
		zap.Int("testrun_seeds", len(ids.TestRuns)),
	)

	return &HybridResult{
		Query:         query,
		VectorMatches: matches,
		Neighborhood:  *neighborhood,
	}, nil
}

func (e *Engine) searchHits(ctx context.Context, query string) ([]vector.Hit, error) {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return e.index.Search(ctx, vectors[0], constants.VectorSearchTopK)
}

// groupHitsByType buckets hit ids by payload type, deduplicating within each
// bucket while preserving first-seen order. Hits with types outside the fixed
// schema are dropped.
func groupHitsByType(hits []vector.Hit) graph.IDsByType {
	var ids graph.IDsByType
	seen := make(map[string]struct{}, len(hits))

	for _, h := range hits {
		key := h.Payload.Type + ":" + h.Payload.BusinessID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		switch h.Payload.Type {
		case constants.LabelRequirement:
			ids.Requirements = append(ids.Requirements, h.Payload.BusinessID)
		case constants.LabelTestCase:
			ids.TestCases = append(ids.TestCases, h.Payload.BusinessID)
		case constants.LabelTestRun:
			ids.TestRuns = append(ids.TestRuns, h.Payload.BusinessID)
		}
	}
	return ids
}
