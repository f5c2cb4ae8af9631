// Package provider defines the port interface for the model provider.
// The pipeline depends on this interface only; tests substitute a
// deterministic fake.
package provider

import (
	"context"
	"errors"

	"github.com/lexorahq/aigate/internal/domain/call"
)

// ErrRateLimited maps a provider 429 response.
var ErrRateLimited = errors.New("provider rate limited")

// ErrPaymentRequired maps a provider 402 response.
var ErrPaymentRequired = errors.New("provider payment required")

// Usage is the provider-reported token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Completion is a successful chat completion.
type Completion struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Embedding is a successful embedding call.
type Embedding struct {
	Vector     []float64 `json:"embedding"`
	TokensUsed int       `json:"tokens_used"`
}

// Client is the outbound boundary to the model provider. Non-2xx responses
// surface as the typed errors above rather than raw bodies.
type Client interface {
	Complete(ctx context.Context, model string, messages []call.Message, maxTokens int, temperature float64) (*Completion, error)
	Embed(ctx context.Context, model, text string) (*Embedding, error)
}
