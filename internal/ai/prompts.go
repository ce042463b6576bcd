package ai

import (
	"fmt"
	"strings"
)

// AnalysisPrompt generates a strict JSON-only prompt for memory analysis.
// The prompt instructs the model to produce a title, summary, tags, optional
// per-modality descriptions, and any actionable items found in the content.
//
// Parameters:
//   - input: the memory's raw inputs; used to tailor the instructions to the
//     modalities actually present
//
// Returns:
//   - A prompt string that will elicit JSON-only responses from the model
func AnalysisPrompt(input AnalysisInput) string {
	var modalities []string
	if len(input.ImageData) > 0 {
		modalities = append(modalities, "an image")
	}
	if len(input.AudioData) > 0 {
		modalities = append(modalities, "an audio recording")
	}
	if input.Text != "" {
		modalities = append(modalities, "a text note")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `TASK: Analyze a captured memory consisting of %s.
OUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.

REQUIRED JSON STRUCTURE:
Your response MUST start with { and end with }
{
  "title": "short descriptive title, one line",
  "summary": "2-4 sentence summary of the content",
  "tags": ["lowercase", "topic", "tags"],
  "image_analysis": "what the image shows (empty string if no image)",
  "audio_transcription": "verbatim transcription (empty string if no audio)",
  "actions": [
    {"type":"event|todo|reminder","description":"...","date":"YYYY-MM-DD","time":"HH:MM"}
  ]
}

RULES (STRICT):
1. title, summary, and tags are REQUIRED and must be non-empty
2. tags: 2-6 short lowercase topic tags
3. actions: only include items the content explicitly calls for; use an
   empty array when there are none
4. action types EXACTLY: event|todo|reminder
5. date/time: omit or use empty string when the content gives none; never invent dates
6. No trailing commas, no extra fields, valid JSON syntax
`, strings.Join(modalities, " and "))

	if input.Text != "" {
		fmt.Fprintf(&sb, "\nTEXT CONTENT:\n%s\n", input.Text)
	}

	sb.WriteString("\nRESPOND WITH ONLY THE JSON OBJECT (nothing else).")
	return sb.String()
}

// transcriptionContextPrompt primes audio transcription when the memory also
// carries a text note, improving proper-noun accuracy.
func transcriptionContextPrompt(text string) string {
	if text == "" {
		return ""
	}
	return fmt.Sprintf("Voice note related to: %s", text)
}
