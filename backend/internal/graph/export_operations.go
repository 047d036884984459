package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "tracegraph/backend/pkg/errors"
)

// ============================================================================
// Export Operations
// ============================================================================

// ExportEmbeddable scans the graph for every node that belongs in the vector
// index and derives its content string. Per-type rules: requirements combine
// title and text, test cases combine name and description, test runs render a
// status/log line. Absent fields become empty strings.
func (r *Repository) ExportEmbeddable(ctx context.Context) ([]EmbeddableRow, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (n)
		WHERE n:Requirement OR n:TestCase OR n:TestRun
		RETURN
			labels(n)[0] AS label,
			n.id AS businessId,
			CASE
				WHEN n:Requirement THEN coalesce(n.title,'') + '\n' + coalesce(n.text,'')
				WHEN n:TestCase    THEN coalesce(n.name,'') + '\n' + coalesce(n.description,'')
				WHEN n:TestRun     THEN 'TestRun ' + coalesce(n.id,'') + ' status ' + coalesce(n.status,'') + '\n' + coalesce(n.log,'')
			END AS content
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("export embeddable nodes", err)
	}

	var rows []EmbeddableRow
	for result.Next(ctx) {
		record := result.Record()
		rows = append(rows, EmbeddableRow{
			Label:      getStringFromRecord(record, "label"),
			BusinessID: getStringFromRecord(record, "businessId"),
			Content:    getStringFromRecord(record, "content"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("export embeddable nodes", err)
	}

	return rows, nil
}
