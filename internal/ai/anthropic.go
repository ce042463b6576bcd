package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AnthropicConfig holds configuration for the Anthropic analyzer.
type AnthropicConfig struct {
	APIKey  string
	Model   string        // default: claude-haiku-4-5-20251001
	BaseURL string        // default: https://api.anthropic.com
	Timeout time.Duration // default: 120s
}

// AnthropicAnalyzer implements Analyzer using the Anthropic Messages API.
// The API handles text and image inputs; memories carrying audio are rejected
// with a permanent error, since retrying cannot make the provider transcribe.
type AnthropicAnalyzer struct {
	cfg     AnthropicConfig
	client  *http.Client
	breaker *Breaker
}

// NewAnthropicAnalyzer creates a new Anthropic analyzer with the given configuration.
func NewAnthropicAnalyzer(cfg AnthropicConfig) *AnthropicAnalyzer {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &AnthropicAnalyzer{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: NewBreaker(),
	}
}

// anthropicMessagesRequest is the request body for POST /v1/messages.
type anthropicMessagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// anthropicMessagesResponse is the response body from POST /v1/messages.
type anthropicMessagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Analyze sends a single multimodal message to Anthropic and parses the
// analysis JSON out of its response.
func (a *AnthropicAnalyzer) Analyze(ctx context.Context, input AnalysisInput) (*Analysis, error) {
	if !input.HasAny() {
		return nil, Permanent("nothing to analyze", nil)
	}
	if len(input.AudioData) > 0 {
		return nil, Permanent("anthropic provider does not support audio transcription", nil)
	}

	result, err := a.breaker.Execute(ctx, func() (interface{}, error) {
		return a.analyze(ctx, input)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, Transient("anthropic circuit breaker open", err)
		}
		return nil, err
	}
	return result.(*Analysis), nil
}

func (a *AnthropicAnalyzer) analyze(ctx context.Context, input AnalysisInput) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	content := []anthropicContentBlock{
		{Type: "text", Text: AnalysisPrompt(input)},
	}
	if len(input.ImageData) > 0 {
		content = append(content, anthropicContentBlock{
			Type: "image",
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: input.ImageMIME,
				Data:      base64.StdEncoding.EncodeToString(input.ImageData),
			},
		})
	}

	reqBody := anthropicMessagesRequest{
		Model:     a.cfg.Model,
		MaxTokens: 4096,
		Messages: []anthropicMessage{
			{Role: "user", Content: content},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, Permanent("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.cfg.BaseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, Permanent("failed to create request", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, Classify("failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		msg := fmt.Sprintf("anthropic returned status %d: %s", resp.StatusCode, string(body))
		if classifyHTTPStatus(resp.StatusCode) == KindTransient {
			return nil, Transient(msg, nil)
		}
		return nil, Permanent(msg, nil)
	}

	var respData anthropicMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return nil, Classify("failed to decode response", err)
	}
	if len(respData.Content) == 0 {
		return nil, Permanent("anthropic returned empty content", nil)
	}

	return ParseAnalysis(respData.Content[0].Text)
}

// GetModel returns the configured model name.
func (a *AnthropicAnalyzer) GetModel() string {
	return a.cfg.Model
}

// Compile-time assertion.
var _ Analyzer = (*AnthropicAnalyzer)(nil)
