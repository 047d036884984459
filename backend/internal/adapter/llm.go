package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	apperrors "tracegraph/backend/pkg/errors"
	"tracegraph/backend/pkg/logger"
)

// LLMAdapter talks to an OpenAI-compatible endpoint (Ollama, LiteLLM, or the
// real thing) for both embeddings and chat completions.
type LLMAdapter struct {
	client       *openai.Client
	embedModel   string
	chatModel    string
	embedTimeout time.Duration
	chatTimeout  time.Duration
	logger       *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(baseURL, apiKey, embedModel, chatModel string, embedTimeout, chatTimeout time.Duration) *LLMAdapter {
	// Local inference servers accept any key
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"

	return &LLMAdapter{
		client:       openai.NewClientWithConfig(config),
		embedModel:   embedModel,
		chatModel:    chatModel,
		embedTimeout: embedTimeout,
		chatTimeout:  chatTimeout,
		logger:       logger.Get(),
	}
}

// Embed converts texts into vectors, one per input, in input order. Callers
// zip rows with vectors positionally, so ordering is restored from the
// response index field. No internal retry; the timeout bounds the call.
func (a *LLMAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.embedTimeout)
	defer cancel()

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.embedModel),
		Input: texts,
	})
	if err != nil {
		return nil, apperrors.NewServiceUnavailable("embedding", a.embedModel, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperrors.NewServiceUnavailable("embedding", a.embedModel,
			fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts)))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, apperrors.NewServiceUnavailable("embedding", a.embedModel,
				fmt.Errorf("embedding index %d out of range", item.Index))
		}
		vectors[item.Index] = item.Embedding
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, apperrors.NewServiceUnavailable("embedding", a.embedModel,
				fmt.Errorf("no embedding returned for input %d", i))
		}
	}

	a.logger.Debug("Embeddings generated",
		zap.Int("count", len(vectors)),
		zap.Int("dimension", len(vectors[0])),
	)
	return vectors, nil
}

// Answer sends a system/user prompt pair to the chat model and returns the
// generated text.
func (a *LLMAdapter) Answer(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.chatTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMsg,
			},
		},
	})
	if err != nil {
		return "", apperrors.NewServiceUnavailable("chat", a.chatModel, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewServiceUnavailable("chat", a.chatModel, fmt.Errorf("no choices in response"))
	}

	a.logger.Debug("Chat answer generated",
		zap.String("model", a.chatModel),
		zap.Int("answer_length", len(resp.Choices[0].Message.Content)),
	)
	return resp.Choices[0].Message.Content, nil
}
