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

const maxResponseBytes = 4 << 20

// GroqClient implements Client for Groq and other OpenAI-compatible chat APIs
type GroqClient struct {
	httpClient *http.Client
	config     *Config
	apiKey     string
	baseURL    string
}

// NewGroqClient creates a client for an OpenAI-compatible endpoint.
// A nil httpClient uses a client without its own timeout; deadlines come from the context.
func NewGroqClient(config *Config, apiKey string, httpClient *http.Client) (*GroqClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultGroqConfig()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	return &GroqClient{
		httpClient: httpClient,
		config:     config,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete posts to /chat/completions and returns the first choice's content
func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	req = req.resolve(c.config)
	if req.Model == "" {
		return "", &RequestError{Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	payload := chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stop:        req.StopSequences,
	}
	if req.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &RequestError{Message: fmt.Sprintf("encode request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &RequestError{Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransientError{StatusCode: resp.StatusCode, Message: "read response body", Cause: err}
	}

	var decoded chatCompletionResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode != http.StatusOK {
		msg := truncate(strings.TrimSpace(string(raw)), 300)
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return "", classifyStatus(resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", &ResponseError{Message: fmt.Sprintf("decode response: %v", decodeErr)}
	}
	if len(decoded.Choices) == 0 {
		return "", &ResponseError{Message: "no choices in response"}
	}
	return decoded.Choices[0].Message.Content, nil
}

// GetModel returns the model name for a tier
func (c *GroqClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases idle connections
func (c *GroqClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
