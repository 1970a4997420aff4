// Package litellm provides an HTTP client for the LiteLLM proxy's
// OpenAI-compatible API. It backs both decision calls and embeddings.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/port/decision"
	"github.com/robinandreeklund-collab/oneseekv1-sub000/internal/resilience"
)

// Client talks to the LiteLLM proxy API.
type Client struct {
	baseURL    string
	masterKey  string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new LiteLLM client.
func NewClient(baseURL, masterKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		masterKey: masterKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
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
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ChatCompletion runs a single chat completion against the given model.
func (c *Client) ChatCompletion(ctx context.Context, model, system, user string, maxTokens int) (decision.Response, error) {
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return decision.Response{}, fmt.Errorf("marshal chat request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/chat/completions", body)
	if err != nil {
		return decision.Response{}, fmt.Errorf("chat completion: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return decision.Response{}, fmt.Errorf("unmarshal chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return decision.Response{}, fmt.Errorf("chat completion: empty choices")
	}
	return decision.Response{
		Content:   resp.Choices[0].Message.Content,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embeddings returns the embedding vector for a single input text.
func (c *Client) Embeddings(ctx context.Context, model, input string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/embeddings", body)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	var resp embeddingResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings: empty data")
	}
	return resp.Data[0].Embedding, nil
}

// Health checks if the LiteLLM proxy is reachable.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.doRequest(ctx, http.MethodGet, "/health/liveliness", nil)
	return err == nil, err
}

// DecisionProvider adapts the client to the decision port for a fixed model.
type DecisionProvider struct {
	client *Client
	model  string
}

// NewDecisionProvider creates a decision provider bound to one model.
func NewDecisionProvider(client *Client, model string) *DecisionProvider {
	return &DecisionProvider{client: client, model: model}
}

// Decide executes one decision call.
func (p *DecisionProvider) Decide(ctx context.Context, req decision.Request) (decision.Response, error) {
	return p.client.ChatCompletion(ctx, p.model, req.System, req.User, req.MaxTokens)
}

// EmbeddingProvider adapts the client to the embedding port for a fixed model.
type EmbeddingProvider struct {
	client *Client
	model  string
	dims   atomic.Int64
}

// NewEmbeddingProvider creates an embedding provider bound to one model.
func NewEmbeddingProvider(client *Client, model string) *EmbeddingProvider {
	return &EmbeddingProvider{client: client, model: model}
}

// Embed returns the embedding vector for the given text.
func (p *EmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.client.Embeddings(ctx, p.model, text)
	if err != nil {
		return nil, err
	}
	p.dims.Store(int64(len(vec)))
	return vec, nil
}

// Dimensions reports the vector size observed from the provider, or 0
// before the first successful call.
func (p *EmbeddingProvider) Dimensions() int {
	return int(p.dims.Load())
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.masterKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.masterKey)
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

		if resp.StatusCode >= 400 {
			return fmt.Errorf("litellm API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
