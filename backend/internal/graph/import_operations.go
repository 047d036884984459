package graph

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"tracegraph/backend/internal/constants"
	apperrors "tracegraph/backend/pkg/errors"
)

// ============================================================================
// Import Operations
// ============================================================================
//
// Edge creation policy, applied consistently:
//
//   - merge-create: CONTAINS, REFERS_REQUIREMENT, USES_REQUIREMENT, PARENT_OF,
//     RELATED_TO, BELONGS_TO_DOC, ASSOCIATED_WITH. Missing endpoints are
//     fabricated by MERGE so every edge has valid endpoints.
//   - strict-match: VERIFIED_BY, EXECUTED_IN and generic links. When an
//     endpoint does not exist the edge is silently not created. Coverage and
//     execution edges must never fabricate the artifact they point at.

// relTypePattern is the identifier-syntax check for caller-supplied
// relationship types. Anything else is rejected before query construction.
var relTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateRelationshipType returns the relationship type to use for a generic
// link, substituting the default for an empty input and rejecting anything
// that is not a plain identifier.
func ValidateRelationshipType(linkType string) (string, error) {
	if linkType == "" {
		return constants.DefaultLinkType, nil
	}
	if len(linkType) > constants.MaxRelationshipTypeLength || !relTypePattern.MatchString(linkType) {
		return "", apperrors.NewUnsafeRelationshipType(linkType)
	}
	return linkType, nil
}

// ImportRequirements upserts requirement nodes and their document, customer,
// hierarchy and SRD edges.
func (r *Repository) ImportRequirements(ctx context.Context, reqs []RequirementRecord) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for i, req := range reqs {
		if req.ID == "" {
			return apperrors.NewRecordMissingID("requirement", i)
		}
		if err := r.importRequirement(ctx, session, req); err != nil {
			return apperrors.NewGraphQueryFailed(fmt.Sprintf("import requirement %s", req.ID), err)
		}
	}

	r.logger.Info("Requirements imported", zap.Int("count", len(reqs)))
	return nil
}

func (r *Repository) importRequirement(ctx context.Context, session neo4j.SessionWithContext, req RequirementRecord) error {
	props := map[string]interface{}{
		"title": req.Title,
		"text":  req.Text,
	}
	for k, v := range req.Extra {
		props[k] = v
	}

	_, err := session.Run(ctx, `
		MERGE (req:Requirement {id: $id})
		SET req += $props
	`, map[string]interface{}{"id": req.ID, "props": props})
	if err != nil {
		return err
	}

	if req.ReqDocNo != "" {
		_, err = session.Run(ctx, fmt.Sprintf(`
			MERGE (doc:ReqDoc {id: $docId})
			MERGE (req:Requirement {id: $reqId})
			MERGE (doc)-[:%s]->(req)
		`, constants.RelContains), map[string]interface{}{"docId": req.ReqDocNo, "reqId": req.ID})
		if err != nil {
			return err
		}
	}

	if req.SrcDocNo != "" {
		_, err = session.Run(ctx, fmt.Sprintf(`
			MERGE (doc:ReqDoc {id: $docId})
			MERGE (req:Requirement {id: $reqId})
			MERGE (doc)-[:%s]->(req)
		`, constants.RelRefersRequirement), map[string]interface{}{"docId": req.SrcDocNo, "reqId": req.ID})
		if err != nil {
			return err
		}
	}

	for _, cust := range req.Customers {
		if cust.ID == "" {
			continue
		}
		var name interface{}
		if cust.Name != "" {
			name = cust.Name
		}
		_, err = session.Run(ctx, fmt.Sprintf(`
			MERGE (c:Customer {id: $custId})
			SET c.name = coalesce($custName, c.name)
			MERGE (req:Requirement {id: $reqId})
			MERGE (c)-[:%s]->(req)
		`, constants.RelUsesRequirement), map[string]interface{}{"custId": cust.ID, "custName": name, "reqId": req.ID})
		if err != nil {
			return err
		}
	}

	custReqs := make(map[string]struct{}, len(req.CustomerReqs))
	for _, cr := range req.CustomerReqs {
		custReqs[cr] = struct{}{}
	}
	for _, parent := range req.Parents {
		if parent == "" {
			continue
		}
		if _, isCustReq := custReqs[parent]; isCustReq {
			_, err = session.Run(ctx, fmt.Sprintf(`
				MERGE (cr:CustomerRequirement {id: $crId})
				MERGE (req:Requirement {id: $reqId})
				MERGE (cr)-[:%s]->(req)
			`, constants.RelRelatedTo), map[string]interface{}{"crId": parent, "reqId": req.ID})
		} else {
			_, err = session.Run(ctx, fmt.Sprintf(`
				MERGE (parent:Requirement {id: $parentId})
				MERGE (child:Requirement {id: $childId})
				MERGE (parent)-[:%s]->(child)
			`, constants.RelParentOf), map[string]interface{}{"parentId": parent, "childId": req.ID})
		}
		if err != nil {
			return err
		}
	}

	for _, srd := range req.Srds {
		if srd.No != "" {
			_, err = session.Run(ctx, fmt.Sprintf(`
				MERGE (doc:ReqDoc {id: $docId})
				MERGE (req:Requirement {id: $reqId})
				MERGE (req)-[:%s]->(doc)
			`, constants.RelBelongsToDoc), map[string]interface{}{"docId": srd.No, "reqId": req.ID})
			if err != nil {
				return err
			}
		}

		srdID := srd.No
		if srdID == "" {
			srdID = fmt.Sprintf("%s-srd-unknown", req.ID)
		}
		srdProps := map[string]interface{}{}
		for k, v := range srd.Extra {
			srdProps[k] = v
		}
		_, err = session.Run(ctx, fmt.Sprintf(`
			MERGE (s:Srd {id: $srdId})
			SET s += $props
			MERGE (req:Requirement {id: $reqId})
			MERGE (s)-[:%s]->(req)
		`, constants.RelAssociatedWith), map[string]interface{}{"srdId": srdID, "props": srdProps, "reqId": req.ID})
		if err != nil {
			return err
		}
	}

	return nil
}

// ImportTestCases upserts test case nodes and their coverage edges. A
// VERIFIED_BY edge is created only when the referenced requirement already
// exists (strict-match).
func (r *Repository) ImportTestCases(ctx context.Context, tcs []TestCaseRecord) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for i, tc := range tcs {
		if tc.ID == "" {
			return apperrors.NewRecordMissingID("test case", i)
		}

		props := map[string]interface{}{
			"name":        tc.Name,
			"description": tc.Description,
		}
		for k, v := range tc.Extra {
			props[k] = v
		}

		_, err := session.Run(ctx, `
			MERGE (tc:TestCase {id: $id})
			SET tc += $props
		`, map[string]interface{}{"id": tc.ID, "props": props})
		if err != nil {
			return apperrors.NewGraphQueryFailed(fmt.Sprintf("import test case %s", tc.ID), err)
		}

		for _, reqID := range tc.Verifies {
			if reqID == "" {
				continue
			}
			_, err := session.Run(ctx, fmt.Sprintf(`
				MATCH (r:Requirement {id: $reqId})
				MATCH (tc:TestCase {id: $tcId})
				MERGE (r)-[:%s]->(tc)
			`, constants.RelVerifiedBy), map[string]interface{}{"reqId": reqID, "tcId": tc.ID})
			if err != nil {
				return apperrors.NewGraphQueryFailed(fmt.Sprintf("link test case %s to %s", tc.ID, reqID), err)
			}
		}
	}

	r.logger.Info("Test cases imported", zap.Int("count", len(tcs)))
	return nil
}

// ImportTestRuns upserts test run nodes and their execution edges. The
// EXECUTED_IN edge follows the same strict-match policy as VERIFIED_BY.
func (r *Repository) ImportTestRuns(ctx context.Context, runs []TestRunRecord) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for i, tr := range runs {
		if tr.ID == "" {
			return apperrors.NewRecordMissingID("test run", i)
		}

		props := map[string]interface{}{
			"status": tr.Status,
			"log":    tr.Log,
		}
		for k, v := range tr.Extra {
			props[k] = v
		}

		_, err := session.Run(ctx, `
			MERGE (tr:TestRun {id: $id})
			SET tr += $props
		`, map[string]interface{}{"id": tr.ID, "props": props})
		if err != nil {
			return apperrors.NewGraphQueryFailed(fmt.Sprintf("import test run %s", tr.ID), err)
		}

		if tr.TestCaseID != "" {
			_, err := session.Run(ctx, fmt.Sprintf(`
				MATCH (tc:TestCase {id: $tcId})
				MATCH (tr:TestRun {id: $trId})
				MERGE (tc)-[:%s]->(tr)
			`, constants.RelExecutedIn), map[string]interface{}{"tcId": tr.TestCaseID, "trId": tr.ID})
			if err != nil {
				return apperrors.NewGraphQueryFailed(fmt.Sprintf("link test run %s to %s", tr.ID, tr.TestCaseID), err)
			}
		}
	}

	r.logger.Info("Test runs imported", zap.Int("count", len(runs)))
	return nil
}

// ImportLinks creates typed relationships between existing nodes regardless of
// label. The relationship type is validated before it reaches the query text;
// endpoints follow strict-match.
func (r *Repository) ImportLinks(ctx context.Context, links []LinkRecord) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	created := 0
	for _, link := range links {
		if link.SourceID == "" || link.TargetID == "" {
			continue
		}

		relType, err := ValidateRelationshipType(link.LinkType)
		if err != nil {
			return err
		}

		// relType has passed the identifier check above; relationship types
		// cannot be query parameters in Cypher.
		query := fmt.Sprintf(`
			MATCH (src {id: $sourceId})
			MATCH (tgt {id: $targetId})
			MERGE (src)-[:%s]->(tgt)
		`, relType)

		if _, err := session.Run(ctx, query, map[string]interface{}{
			"sourceId": link.SourceID,
			"targetId": link.TargetID,
		}); err != nil {
			return apperrors.NewGraphQueryFailed(fmt.Sprintf("link %s to %s", link.SourceID, link.TargetID), err)
		}
		created++
	}

	r.logger.Info("Generic links imported", zap.Int("count", created))
	return nil
}
