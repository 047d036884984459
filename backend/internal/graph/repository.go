package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "tracegraph/backend/pkg/errors"
	"tracegraph/backend/pkg/logger"
)

// constraints are applied idempotently at startup, one uniqueness constraint
// per entity label keyed by the business id.
var constraints = []string{
	"CREATE CONSTRAINT requirement_id IF NOT EXISTS FOR (n:Requirement) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT doc_id IF NOT EXISTS FOR (n:ReqDoc) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT testcase_id IF NOT EXISTS FOR (n:TestCase) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT testrun_id IF NOT EXISTS FOR (n:TestRun) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT customer_id IF NOT EXISTS FOR (n:Customer) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT custreq_id IF NOT EXISTS FOR (n:CustomerRequirement) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT srd_id IF NOT EXISTS FOR (n:Srd) REQUIRE n.id IS UNIQUE",
}

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// ApplyConstraints establishes the uniqueness constraints. Safe to run on
// every startup.
func (r *Repository) ApplyConstraints(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return apperrors.NewGraphQueryFailed("apply constraints", err)
		}
	}

	r.logger.Info("Uniqueness constraints applied", zap.Int("count", len(constraints)))
	return nil
}
