package search

import (
	"context"
	"encoding/json"
	"fmt"
)

const askSystemPrompt = "You are a traceability assistant. You receive a question and data about requirements, test cases, test runs, customers, documents.\n" +
	"Use only the provided data to answer."

// Ask runs a hybrid search and feeds the neighborhood to the chat model as
// context for answering the question.
func (e *Engine) Ask(ctx context.Context, query string) (*AskResult, error) {
	hybrid, err := e.HybridSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(hybrid.Neighborhood, "", "  ")
	if err != nil {
		return nil, err
	}
	userPrompt := fmt.Sprintf("Question:\n%s\n\nRelevant data:\n%s", query, string(data))

	answer, err := e.answerer.Answer(ctx, askSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	return &AskResult{
		Query:    query,
		DataUsed: hybrid.Neighborhood,
		Answer:   answer,
	}, nil
}
