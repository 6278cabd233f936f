package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultOpenRouterBaseURL is the OpenAI-compatible routing endpoint.
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	// DefaultOpenRouterModel answers fast enough for a live call.
	DefaultOpenRouterModel = "mistralai/mistral-small-3.2-24b-instruct"
)

// OpenRouter generates replies through the OpenRouter chat completions API.
type OpenRouter struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenRouterOption configures an OpenRouter generator.
type OpenRouterOption func(*OpenRouter)

// WithOpenRouterBaseURL overrides the API endpoint, for tests.
func WithOpenRouterBaseURL(u string) OpenRouterOption {
	return func(o *OpenRouter) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithOpenRouterModel overrides the routed model.
func WithOpenRouterModel(m string) OpenRouterOption {
	return func(o *OpenRouter) { o.model = m }
}

// WithOpenRouterHTTPClient overrides the HTTP client.
func WithOpenRouterHTTPClient(c *http.Client) OpenRouterOption {
	return func(o *OpenRouter) { o.httpClient = c }
}

// NewOpenRouter creates an OpenRouter generator.
func NewOpenRouter(apiKey string, opts ...OpenRouterOption) *OpenRouter {
	o := &OpenRouter{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultOpenRouterBaseURL,
		model:      DefaultOpenRouterModel,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the routed model for a reply. An empty completion falls back
// to FallbackReply so the caller always hears something.
func (o *OpenRouter) Generate(ctx context.Context, systemPrompt, userText string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completions request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("chat completions error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return FallbackReply, nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
