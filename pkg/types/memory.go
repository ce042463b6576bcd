package types

import "time"

// Memory represents a single captured unit awaiting or having received AI
// enrichment. Raw inputs are write-once at capture; derived fields are
// written only by the processing engine.
type Memory struct {
	// ID is assigned monotonically by the store and never changes.
	ID int64 `json:"id"`

	// Raw inputs, set at capture time. At least one must be present for the
	// memory to be enrichable.
	Text          string `json:"text,omitempty"`           // Free-form user text
	ImagePath     string `json:"image_path,omitempty"`     // Path to a captured image
	AudioPath     string `json:"audio_path,omitempty"`     // Path to a captured audio clip
	BookmarkURL   string `json:"bookmark_url,omitempty"`   // Saved URL
	BookmarkTitle string `json:"bookmark_title,omitempty"` // Harvested page title
	Source        string `json:"source,omitempty"`         // Capture source (share, quick, chat, bookmark, screenshot)

	// Derived fields, written by the processing engine on completion.
	Title              string   `json:"title,omitempty"`
	Summary            string   `json:"summary,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	ImageAnalysis      string   `json:"image_analysis,omitempty"`
	AudioTranscription string   `json:"audio_transcription,omitempty"`
	Actions            []Action `json:"actions,omitempty"`

	// Status is the lifecycle field driven by the processing engine.
	Status MemoryStatus `json:"status"`

	// IsHidden is a user-controlled visibility flag, independent of status.
	IsHidden bool `json:"is_hidden"`

	// Enrichment bookkeeping.
	EnrichmentAttempts int        `json:"enrichment_attempts"`
	EnrichmentError    string     `json:"enrichment_error,omitempty"`
	EnrichedAt         *time.Time `json:"enriched_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasInput reports whether the memory carries at least one usable raw input.
// A memory with no input is a capture contract violation and is failed
// before any AI call.
func (m *Memory) HasInput() bool {
	return m.Text != "" || m.ImagePath != "" || m.AudioPath != "" || m.BookmarkURL != ""
}

// Action is an AI-detected schedulable item extracted during enrichment.
// Actions exist only transiently between the AI response and task creation /
// notification dispatch; they are persisted only as part of the memory's
// enrichment payload.
type Action struct {
	Type        ActionType `json:"type"`
	Description string     `json:"description"`
	Date        string     `json:"date,omitempty"` // YYYY-MM-DD
	Time        string     `json:"time,omitempty"` // HH:MM
}
