package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"tracegraph/backend/internal/adapter"
	"tracegraph/backend/internal/graph"
	"tracegraph/backend/internal/search"
	"tracegraph/backend/internal/vector"
	"tracegraph/backend/pkg/config"
	"tracegraph/backend/pkg/logger"
)

// importer reads a JSON batch file, imports it into the graph and rebuilds
// the vector index. Usage: importer <batch.json>
func main() {
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: importer <batch.json>")
		os.Exit(2)
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal("Failed to read batch file", zap.String("path", os.Args[1]), zap.Error(err))
	}

	var payload graph.ImportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Fatal("Failed to parse batch file", zap.String("path", os.Args[1]), zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)
	if err := repo.ApplyConstraints(ctx); err != nil {
		log.Fatal("Failed to apply graph constraints", zap.Error(err))
	}

	index, err := vector.NewIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
	if err != nil {
		log.Fatal("Failed to connect to Qdrant", zap.Error(err))
	}
	defer index.Close()

	llm := adapter.NewLLMAdapter(cfg.LLMURL, "", cfg.EmbedModel, cfg.ChatModel, cfg.EmbedTimeout, cfg.ChatTimeout)
	engine := search.NewEngine(repo, index, llm, llm)

	synced, err := engine.Import(ctx, payload)
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}

	log.Info("Import complete", zap.Int("vectors_synced", synced))
}
