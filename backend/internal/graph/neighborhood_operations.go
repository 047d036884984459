package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"

	apperrors "tracegraph/backend/pkg/errors"
)

// ============================================================================
// Neighborhood Operations
// ============================================================================

// ExpandNeighborhood runs one fixed-shape traversal query per non-empty type
// bucket and returns the distinct related ids for every seed id that resolves
// to a graph node. Seed ids without a node simply produce no row, so stale
// vector hits degrade to an empty neighborhood instead of an error.
//
// The per-type queries are independent reads and run concurrently, one
// session each. A bucket that was never queried stays nil in the result.
func (r *Repository) ExpandNeighborhood(ctx context.Context, ids IDsByType) (*Neighborhood, error) {
	neighborhood := &Neighborhood{}
	g, gctx := errgroup.WithContext(ctx)

	if len(ids.Requirements) > 0 {
		g.Go(func() error {
			rows, err := r.expandRequirements(gctx, ids.Requirements)
			if err != nil {
				return err
			}
			neighborhood.Requirements = rows
			return nil
		})
	}

	if len(ids.TestCases) > 0 {
		g.Go(func() error {
			rows, err := r.expandTestCases(gctx, ids.TestCases)
			if err != nil {
				return err
			}
			neighborhood.TestCases = rows
			return nil
		})
	}

	if len(ids.TestRuns) > 0 {
		g.Go(func() error {
			rows, err := r.expandTestRuns(gctx, ids.TestRuns)
			if err != nil {
				return err
			}
			neighborhood.TestRuns = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return neighborhood, nil
}

func (r *Repository) expandRequirements(ctx context.Context, ids []string) ([]RequirementNeighbors, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// VERIFIED_BY and EXECUTED_IN are matched separately so a test case
	// without runs still appears in the test case list.
	query := `
		MATCH (r:Requirement) WHERE r.id IN $ids
		OPTIONAL MATCH (r)-[:VERIFIED_BY]->(tc:TestCase)
		OPTIONAL MATCH (tc)-[:EXECUTED_IN]->(tr:TestRun)
		OPTIONAL MATCH (r)<-[:USES_REQUIREMENT]-(c:Customer)
		OPTIONAL MATCH (r)<-[:RELATED_TO]-(cr:CustomerRequirement)
		OPTIONAL MATCH (doc:ReqDoc)-[:CONTAINS]->(r)
		OPTIONAL MATCH (r)-[:BELONGS_TO_DOC]->(srdDoc:ReqDoc)
		RETURN r.id AS reqId,
		       collect(DISTINCT tc.id) AS testCases,
		       collect(DISTINCT tr.id) AS testRuns,
		       collect(DISTINCT c.id)  AS customers,
		       collect(DISTINCT cr.id) AS customerReqs,
		       collect(DISTINCT doc.id) + collect(DISTINCT srdDoc.id) AS reqDocs
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("expand requirements", err)
	}

	rows := make([]RequirementNeighbors, 0, len(ids))
	for result.Next(ctx) {
		record := result.Record()
		rows = append(rows, RequirementNeighbors{
			ReqID:        getStringFromRecord(record, "reqId"),
			TestCases:    getStringSliceFromRecord(record, "testCases"),
			TestRuns:     getStringSliceFromRecord(record, "testRuns"),
			Customers:    getStringSliceFromRecord(record, "customers"),
			CustomerReqs: getStringSliceFromRecord(record, "customerReqs"),
			ReqDocs:      uniqueStrings(getStringSliceFromRecord(record, "reqDocs")),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("expand requirements", err)
	}
	return rows, nil
}

func (r *Repository) expandTestCases(ctx context.Context, ids []string) ([]TestCaseNeighbors, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (tc:TestCase) WHERE tc.id IN $ids
		OPTIONAL MATCH (r:Requirement)-[:VERIFIED_BY]->(tc)
		OPTIONAL MATCH (tc)-[:EXECUTED_IN]->(tr:TestRun)
		RETURN tc.id AS tcId,
		       collect(DISTINCT r.id)  AS requirements,
		       collect(DISTINCT tr.id) AS testRuns
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("expand test cases", err)
	}

	rows := make([]TestCaseNeighbors, 0, len(ids))
	for result.Next(ctx) {
		record := result.Record()
		rows = append(rows, TestCaseNeighbors{
			TcID:         getStringFromRecord(record, "tcId"),
			Requirements: getStringSliceFromRecord(record, "requirements"),
			TestRuns:     getStringSliceFromRecord(record, "testRuns"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("expand test cases", err)
	}
	return rows, nil
}

func (r *Repository) expandTestRuns(ctx context.Context, ids []string) ([]TestRunNeighbors, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (tr:TestRun) WHERE tr.id IN $ids
		OPTIONAL MATCH (tc:TestCase)-[:EXECUTED_IN]->(tr)
		OPTIONAL MATCH (r:Requirement)-[:VERIFIED_BY]->(tc)
		RETURN tr.id AS trId,
		       collect(DISTINCT tc.id) AS testCases,
		       collect(DISTINCT r.id)  AS requirements
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("expand test runs", err)
	}

	rows := make([]TestRunNeighbors, 0, len(ids))
	for result.Next(ctx) {
		record := result.Record()
		rows = append(rows, TestRunNeighbors{
			TrID:         getStringFromRecord(record, "trId"),
			TestCases:    getStringSliceFromRecord(record, "testCases"),
			Requirements: getStringSliceFromRecord(record, "requirements"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("expand test runs", err)
	}
	return rows, nil
}
