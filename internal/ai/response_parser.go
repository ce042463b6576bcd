package ai

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// analysisResponse mirrors the JSON contract the prompt asks the model for.
type analysisResponse struct {
	Title              string           `json:"title"`
	Summary            string           `json:"summary"`
	Tags               []string         `json:"tags"`
	ImageAnalysis      string           `json:"image_analysis"`
	AudioTranscription string           `json:"audio_transcription"`
	Actions            []actionResponse `json:"actions"`
}

type actionResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// extractJSON extracts the first complete JSON object from a string that may
// contain extra text. LLMs add explanations and markdown fences around the
// JSON despite instructions, so boundaries are found by brace matching with
// string-literal awareness.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // no JSON found, let the parser fail
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]
		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // no complete object found, let the parser fail
}

// ParseAnalysis parses and validates the model's analysis JSON. Missing
// required fields (title, summary, tags) fail the whole response; invalid
// actions are skipped individually so one hallucinated entry does not discard
// the rest of the enrichment.
//
// All returned errors are permanent: a malformed or schema-invalid response
// will not improve on retry.
func ParseAnalysis(raw string) (*Analysis, error) {
	cleanJSON := extractJSON(raw)

	var resp analysisResponse
	if err := json.Unmarshal([]byte(cleanJSON), &resp); err != nil {
		return nil, Permanent("failed to parse analysis JSON", err)
	}

	var missing []string
	if strings.TrimSpace(resp.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(resp.Summary) == "" {
		missing = append(missing, "summary")
	}
	if len(resp.Tags) == 0 {
		missing = append(missing, "tags")
	}
	if len(missing) > 0 {
		return nil, Permanent(
			fmt.Sprintf("analysis response missing required fields: %s", strings.Join(missing, ", ")), nil)
	}

	analysis := &Analysis{
		Title:              strings.TrimSpace(resp.Title),
		Summary:            strings.TrimSpace(resp.Summary),
		Tags:               resp.Tags,
		ImageAnalysis:      strings.TrimSpace(resp.ImageAnalysis),
		AudioTranscription: strings.TrimSpace(resp.AudioTranscription),
	}

	for _, a := range resp.Actions {
		action, ok := validateAction(a)
		if !ok {
			continue
		}
		analysis.Actions = append(analysis.Actions, action)
	}

	return analysis, nil
}

// validateAction checks a single action entry, dropping entries with unknown
// types or empty descriptions and clearing malformed date/time fields.
func validateAction(a actionResponse) (types.Action, bool) {
	actionType := types.ActionType(strings.ToLower(strings.TrimSpace(a.Type)))
	if !types.IsValidActionType(actionType) {
		log.Printf("ai: skipping action with unknown type %q", a.Type)
		return types.Action{}, false
	}
	description := strings.TrimSpace(a.Description)
	if description == "" {
		log.Printf("ai: skipping %s action with empty description", actionType)
		return types.Action{}, false
	}

	action := types.Action{Type: actionType, Description: description}

	if a.Date != "" {
		if _, err := time.Parse("2006-01-02", a.Date); err != nil {
			log.Printf("ai: dropping malformed action date %q", a.Date)
		} else {
			action.Date = a.Date
		}
	}
	if a.Time != "" {
		if _, err := time.Parse("15:04", a.Time); err != nil {
			log.Printf("ai: dropping malformed action time %q", a.Time)
		} else {
			action.Time = a.Time
		}
	}
	return action, true
}
