package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for the OpenAI analyzer.
type OpenAIConfig struct {
	APIKey             string
	Model              string        // default: gpt-4o-mini
	TranscriptionModel string        // default: whisper-1
	BaseURL            string        // default: go-openai's default
	Timeout            time.Duration // default: 120s
}

// OpenAIAnalyzer implements Analyzer using the OpenAI chat completions API
// for vision/text analysis and the audio transcriptions API for voice notes.
type OpenAIAnalyzer struct {
	cfg     OpenAIConfig
	client  *openai.Client
	breaker *Breaker
}

// NewOpenAIAnalyzer creates a new OpenAI analyzer with the given configuration.
func NewOpenAIAnalyzer(cfg OpenAIConfig) *OpenAIAnalyzer {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = "whisper-1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIAnalyzer{
		cfg:     cfg,
		client:  openai.NewClientWithConfig(clientConfig),
		breaker: NewBreaker(),
	}
}

// Analyze runs the full enrichment for one memory: transcribe audio first if
// present, then a single multimodal chat call producing the analysis JSON.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, input AnalysisInput) (*Analysis, error) {
	if !input.HasAny() {
		return nil, Permanent("nothing to analyze", nil)
	}

	result, err := a.breaker.Execute(ctx, func() (interface{}, error) {
		return a.analyze(ctx, input)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, Transient("openai circuit breaker open", err)
		}
		return nil, err
	}
	return result.(*Analysis), nil
}

func (a *OpenAIAnalyzer) analyze(ctx context.Context, input AnalysisInput) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	transcription := ""
	if len(input.AudioData) > 0 {
		text, err := a.transcribe(ctx, input)
		if err != nil {
			return nil, err
		}
		transcription = text
	}

	// Feed the transcription into the chat call as text so the model can
	// summarize the voice note alongside any other inputs.
	chatInput := input
	if transcription != "" {
		if chatInput.Text != "" {
			chatInput.Text = chatInput.Text + "\n\nVOICE NOTE TRANSCRIPTION:\n" + transcription
		} else {
			chatInput.Text = "VOICE NOTE TRANSCRIPTION:\n" + transcription
		}
	}

	raw, err := a.complete(ctx, chatInput)
	if err != nil {
		return nil, err
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		return nil, err
	}
	if transcription != "" && analysis.AudioTranscription == "" {
		analysis.AudioTranscription = transcription
	}
	return analysis, nil
}

func (a *OpenAIAnalyzer) transcribe(ctx context.Context, input AnalysisInput) (string, error) {
	req := openai.AudioRequest{
		Model:    a.cfg.TranscriptionModel,
		Reader:   bytes.NewReader(input.AudioData),
		FilePath: "memory" + extensionForMIME(input.AudioMIME),
		Prompt:   transcriptionContextPrompt(input.Text),
	}
	resp, err := a.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", classifyOpenAIError("transcription request failed", err)
	}
	return resp.Text, nil
}

func (a *OpenAIAnalyzer) complete(ctx context.Context, input AnalysisInput) (string, error) {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: AnalysisPrompt(input)},
	}
	if len(input.ImageData) > 0 {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s",
					input.ImageMIME, base64.StdEncoding.EncodeToString(input.ImageData)),
			},
		})
	}

	req := openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: 0,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError("chat completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", Permanent("openai returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// GetModel returns the configured chat model name.
func (a *OpenAIAnalyzer) GetModel() string {
	return a.cfg.Model
}

// classifyOpenAIError maps go-openai errors into the taxonomy. API errors
// carry the HTTP status; anything else falls through to transport
// classification.
func classifyOpenAIError(msg string, err error) *EnrichmentError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if classifyHTTPStatus(apiErr.HTTPStatusCode) == KindTransient {
			return Transient(fmt.Sprintf("%s (status %d)", msg, apiErr.HTTPStatusCode), err)
		}
		return Permanent(fmt.Sprintf("%s (status %d)", msg, apiErr.HTTPStatusCode), err)
	}
	return Classify(msg, err)
}

// extensionForMIME maps audio MIME types to the file extensions the
// transcription endpoint uses for format detection.
func extensionForMIME(mime string) string {
	switch mime {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".mp3"
	}
}

// Compile-time assertion.
var _ Analyzer = (*OpenAIAnalyzer)(nil)
