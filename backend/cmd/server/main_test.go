package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tracegraph/backend/internal/graph"
	"tracegraph/backend/internal/search"
	"tracegraph/backend/internal/vector"
)

// Stub backends so handlers can be exercised without Neo4j/Qdrant/LLM.

type stubStore struct{}

func (stubStore) ImportRequirements(ctx context.Context, reqs []graph.RequirementRecord) error {
	return nil
}
func (stubStore) ImportTestCases(ctx context.Context, tcs []graph.TestCaseRecord) error { return nil }
func (stubStore) ImportTestRuns(ctx context.Context, runs []graph.TestRunRecord) error { return nil }
func (stubStore) ImportLinks(ctx context.Context, links []graph.LinkRecord) error { return nil }
func (stubStore) ExportEmbeddable(ctx context.Context) ([]graph.EmbeddableRow, error) {
	return nil, nil
}
func (stubStore) ExpandNeighborhood(ctx context.Context, ids graph.IDsByType) (*graph.Neighborhood, error) {
	n := &graph.Neighborhood{}
	if len(ids.Requirements) > 0 {
		n.Requirements = []graph.RequirementNeighbors{{
			ReqID:        ids.Requirements[0],
			TestCases:    []string{"TC1"},
			TestRuns:     []string{},
			Customers:    []string{},
			CustomerReqs: []string{},
			ReqDocs:      []string{},
		}}
	}
	return n, nil
}

type stubIndex struct{}

func (stubIndex) EnsureCollection(ctx context.Context, dim int) error { return nil }
func (stubIndex) Upsert(ctx context.Context, entries []vector.Entry) error { return nil }
func (stubIndex) Search(ctx context.Context, q []float32, k int) ([]vector.Hit, error) {
	return []vector.Hit{{
		Key:   "Requirement:R1",
		Score: 0.93,
		Payload: vector.Payload{
			Type:       "Requirement",
			BusinessID: "R1",
			Text:       "Brakes\nmust stop",
		},
	}}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0, 0}
	}
	return vectors, nil
}

type stubAnswerer struct{}

func (stubAnswerer) Answer(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	return "R1 covers braking.", nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	engine := search.NewEngine(stubStore{}, stubIndex{}, stubEmbedder{}, stubAnswerer{})
	registerRoutes(router, engine, zap.NewNop())
	return router
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestImportEndpoint_InvalidRequest(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/import-json", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportEndpoint_AcceptsBatch(t *testing.T) {
	router := testRouter()

	body := `{"data": {"requirements": [{"id": "R1", "title": "Brakes", "text": "must stop", "ReqDocNo": "D1"}]}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/import-json", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "imported", response["status"])
}

func TestVectorSearchEndpoint(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/search/vector", bytes.NewBufferString(`{"query": "brakes"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Query   string `json:"query"`
		Matches []struct {
			ID    string  `json:"id"`
			Type  string  `json:"type"`
			Score float32 `json:"score"`
		} `json:"matches"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "brakes", response.Query)
	assert.Len(t, response.Matches, 1)
	assert.Equal(t, "R1", response.Matches[0].ID)
	assert.Equal(t, "Requirement", response.Matches[0].Type)
}

func TestHybridSearchEndpoint(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/search/hybrid", bytes.NewBufferString(`{"query": "brakes"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "vector_matches")
	assert.Contains(t, response, "graph_neighbourhood")

	var neighborhood map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(response["graph_neighbourhood"], &neighborhood))
	assert.Contains(t, neighborhood, "requirements")
	assert.NotContains(t, neighborhood, "testCases")
}

func TestHybridSearchEndpoint_MissingQuery(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/search/hybrid", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskEndpoint(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/ask", bytes.NewBufferString(`{"query": "what about brakes?"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Query  string `json:"query"`
		Answer string `json:"answer"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "what about brakes?", response.Query)
	assert.Equal(t, "R1 covers braking.", response.Answer)
}
