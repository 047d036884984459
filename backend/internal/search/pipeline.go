package search

import (
	"context"

	"go.uber.org/zap"

	"tracegraph/backend/internal/graph"
	"tracegraph/backend/internal/vector"
)

// Import runs the importers for whichever record kinds the payload carries,
// then rebuilds the vector index synchronously so retrieval never serves data
// from before this batch. Import is not atomic across kinds: the first
// failure is returned and kinds imported before it stay committed.
func (e *Engine) Import(ctx context.Context, payload graph.ImportPayload) (int, error) {
	if payload.Requirements != nil {
		if err := e.store.ImportRequirements(ctx, payload.Requirements); err != nil {
			return 0, err
		}
	}
	if payload.TestCases != nil {
		if err := e.store.ImportTestCases(ctx, payload.TestCases); err != nil {
			return 0, err
		}
	}
	if payload.TestRuns != nil {
		if err := e.store.ImportTestRuns(ctx, payload.TestRuns); err != nil {
			return 0, err
		}
	}
	if payload.Links != nil {
		if err := e.store.ImportLinks(ctx, payload.Links); err != nil {
			return 0, err
		}
	}

	synced, err := e.SyncIndex(ctx)
	if err != nil {
		return 0, err
	}

	e.logger.Info("Import batch complete", zap.Int("vectors_synced", synced))
	return synced, nil
}

// SyncIndex re-scans the graph for every embeddable node, embeds all content
// strings in one batch and upserts the resulting entries. The whole corpus is
// re-embedded on every call; the index is a derived view and this full
// rebuild doubles as reconciliation for entries orphaned by graph deletes.
// Returns the number of entries synced, zero when the graph holds nothing to
// embed.
func (e *Engine) SyncIndex(ctx context.Context) (int, error) {
	rows, err := e.store.ExportEmbeddable(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		e.logger.Info("No embeddable nodes to sync")
		return 0, nil
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Content
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	dim := len(vectors[0])
	if err := e.index.EnsureCollection(ctx, dim); err != nil {
		return 0, err
	}

	entries := make([]vector.Entry, len(rows))
	for i, row := range rows {
		entries[i] = vector.Entry{
			Key:    vector.Key(row.Label, row.BusinessID),
			Vector: vectors[i],
			Payload: vector.Payload{
				Type:       row.Label,
				BusinessID: row.BusinessID,
				Text:       row.Content,
			},
		}
	}

	if err := e.index.Upsert(ctx, entries); err != nil {
		return 0, err
	}

	e.logger.Info("Vector index synced",
		zap.Int("entries", len(entries)),
		zap.Int("dimension", dim),
	)
	return len(entries), nil
}
