// Package ai provides the enrichment client boundary: multimodal analysis of
// captured memories through an LLM provider, with typed failure
// classification so the processing engine can decide between retry and
// terminal failure.
package ai

import (
	"context"

	"github.com/scrypster/recall/pkg/types"
)

// Analyzer is the interface for AI content analysis. Implementations must
// return errors created through this package's taxonomy (Transient/Permanent)
// so the worker can classify failures.
type Analyzer interface {
	Analyze(ctx context.Context, input AnalysisInput) (*Analysis, error)
	GetModel() string
}

// AnalysisInput carries the raw inputs of one memory. The caller guarantees
// at least one of image, audio, or text is present.
type AnalysisInput struct {
	ImageData []byte
	ImageMIME string
	AudioData []byte
	AudioMIME string
	Text      string
}

// HasAny reports whether the input carries anything to analyze.
func (in AnalysisInput) HasAny() bool {
	return len(in.ImageData) > 0 || len(in.AudioData) > 0 || in.Text != ""
}

// Analysis is the validated result of one enrichment call.
// Title, Summary, and Tags are required; the response parser rejects
// responses missing any of them before the worker sees the result.
type Analysis struct {
	Title              string         `json:"title"`
	Summary            string         `json:"summary"`
	Tags               []string       `json:"tags"`
	ImageAnalysis      string         `json:"image_analysis,omitempty"`
	AudioTranscription string         `json:"audio_transcription,omitempty"`
	Actions            []types.Action `json:"actions,omitempty"`
}
