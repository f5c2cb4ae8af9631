// Package litellm implements the provider port against a LiteLLM proxy
// (OpenAI-compatible completion and embedding endpoints).
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexorahq/aigate/internal/domain/call"
	"github.com/lexorahq/aigate/internal/port/provider"
	"github.com/lexorahq/aigate/internal/resilience"
)

// Client talks to a LiteLLM proxy.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a provider client. timeout bounds every outgoing call.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends a chat completion request.
func (c *Client) Complete(ctx context.Context, model string, messages []call.Message, maxTokens int, temperature float64) (*provider.Completion, error) {
	req := chatRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Text})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	data, err := c.doRequest(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	return &provider.Completion{
		Content: resp.Choices[0].Message.Content,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
	} `json:"usage"`
}

// Embed sends an embedding request.
func (c *Client) Embed(ctx context.Context, model, text string) (*provider.Embedding, error) {
	body, err := json.Marshal(embedRequest{Model: model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	data, err := c.doRequest(ctx, "/v1/embeddings", body)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding returned no data")
	}

	return &provider.Embedding{
		Vector:     resp.Data[0].Embedding,
		TokensUsed: resp.Usage.PromptTokens,
	}, nil
}

// doRequest posts body to path, mapping non-2xx statuses to the typed
// provider errors so the pipeline never inspects raw bodies.
func (c *Client) doRequest(ctx context.Context, path string, body []byte) ([]byte, error) {
	var result []byte
	send := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return provider.ErrRateLimited
		case resp.StatusCode == http.StatusPaymentRequired:
			return provider.ErrPaymentRequired
		case resp.StatusCode >= 400:
			return fmt.Errorf("provider error %d", resp.StatusCode)
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(ctx, send); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := send(); err != nil {
		return nil, err
	}
	return result, nil
}
