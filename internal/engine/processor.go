package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scrypster/recall/internal/ai"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// ErrNoInput marks a memory that carries nothing analyzable. It is terminal:
// raw inputs are write-once, so retrying cannot help.
var ErrNoInput = errors.New("memory has no analyzable input")

// worker consumes jobs sequentially until the queue is closed.
func (e *Engine) worker(ctx context.Context) {
	defer e.workerWaitGroup.Done()

	log.Println("engine: worker started")
	for job := range e.jobs {
		e.processJob(ctx, job)
	}
	log.Println("engine: worker stopped")
}

// processJob runs one enrichment attempt end to end: claim, load, analyze,
// persist, extract tasks, notify.
func (e *Engine) processJob(ctx context.Context, job *Job) {
	// Database writes use a background context so results are not lost to
	// cancellation mid-transition.
	dbCtx := context.Background()

	if job.Attempt > 0 {
		backoff := e.retryBackoff(job.Attempt)
		log.Printf("engine: waiting %v before retrying memory %d (attempt %d)",
			backoff, job.MemoryID, job.Attempt+1)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}

	claimed, err := e.memories.Claim(dbCtx, job.MemoryID)
	if err != nil {
		log.Printf("engine: ERROR: claim failed for memory %d: %v", job.MemoryID, err)
		return
	}
	if !claimed {
		// Another invocation won the row, or it is already terminal.
		return
	}
	e.notifyStatusChange(job.MemoryID, types.StatusProcessing)

	memory, err := e.memories.Get(dbCtx, job.MemoryID)
	if err != nil {
		log.Printf("engine: ERROR: failed to load memory %d: %v", job.MemoryID, err)
		e.markFailed(dbCtx, job, fmt.Sprintf("failed to load memory: %v", err))
		return
	}

	input, err := e.buildInput(memory)
	if err != nil {
		log.Printf("engine: memory %d not analyzable: %v", job.MemoryID, err)
		e.markFailed(dbCtx, job, err.Error())
		return
	}

	analysis, err := e.analyzer.Analyze(ctx, input)
	if err != nil {
		e.handleFailure(dbCtx, job, err)
		return
	}

	e.applyAnalysis(dbCtx, job, memory, analysis)
}

// buildInput assembles the Analyzer input from the memory's raw inputs,
// reading media files from disk. A bookmark folds into the text channel.
func (e *Engine) buildInput(memory *types.Memory) (ai.AnalysisInput, error) {
	var input ai.AnalysisInput

	if memory.ImagePath != "" {
		data, err := os.ReadFile(memory.ImagePath)
		if err != nil {
			return input, fmt.Errorf("failed to read image %s: %w", memory.ImagePath, err)
		}
		input.ImageData = data
		input.ImageMIME = imageMIMEForPath(memory.ImagePath)
	}

	if memory.AudioPath != "" {
		data, err := os.ReadFile(memory.AudioPath)
		if err != nil {
			return input, fmt.Errorf("failed to read audio %s: %w", memory.AudioPath, err)
		}
		input.AudioData = data
		input.AudioMIME = audioMIMEForPath(memory.AudioPath)
	}

	input.Text = memory.Text
	if memory.BookmarkURL != "" {
		bookmark := "BOOKMARK: " + memory.BookmarkURL
		if memory.BookmarkTitle != "" {
			bookmark = "BOOKMARK: " + memory.BookmarkTitle + " (" + memory.BookmarkURL + ")"
		}
		if input.Text != "" {
			input.Text += "\n\n" + bookmark
		} else {
			input.Text = bookmark
		}
	}

	if !input.HasAny() {
		return input, ErrNoInput
	}
	return input, nil
}

// applyAnalysis persists a successful enrichment, spawns unapproved tasks
// from the extracted actions, and dispatches notifications.
func (e *Engine) applyAnalysis(ctx context.Context, job *Job, memory *types.Memory, analysis *ai.Analysis) {
	now := time.Now()
	update := storage.EnrichmentUpdate{
		Status:             types.StatusCompleted,
		Title:              analysis.Title,
		Summary:            analysis.Summary,
		Tags:               analysis.Tags,
		ImageAnalysis:      analysis.ImageAnalysis,
		AudioTranscription: analysis.AudioTranscription,
		Actions:            analysis.Actions,
		Attempts:           job.Attempt + 1,
		EnrichedAt:         &now,
	}

	if err := e.memories.UpdateEnrichment(ctx, job.MemoryID, update); err != nil {
		log.Printf("engine: ERROR: failed to persist enrichment for memory %d: %v", job.MemoryID, err)
		return
	}
	e.notifyStatusChange(job.MemoryID, types.StatusCompleted)

	log.Printf("engine: enriched memory %d (%d tags, %d actions)",
		job.MemoryID, len(analysis.Tags), len(analysis.Actions))

	e.createTasksFromActions(ctx, job.MemoryID, analysis.Actions)
	e.dispatchNotifications(analysis.Actions, job.MemoryID)
}

// handleFailure classifies an enrichment error: transient failures revert
// the memory to pending and signal a delayed retry; permanent failures and
// exhausted retries mark it failed.
func (e *Engine) handleFailure(ctx context.Context, job *Job, cause error) {
	attempts := job.Attempt + 1

	if ai.IsTransient(cause) {
		update := storage.EnrichmentUpdate{
			Status:   types.StatusPending,
			Attempts: attempts,
			Error:    cause.Error(),
		}
		if err := e.memories.UpdateEnrichment(ctx, job.MemoryID, update); err != nil {
			log.Printf("engine: ERROR: failed to revert memory %d to pending: %v", job.MemoryID, err)
			return
		}
		e.notifyStatusChange(job.MemoryID, types.StatusPending)

		log.Printf("engine: transient failure for memory %d (attempt %d/%d): %v",
			job.MemoryID, attempts, e.config.MaxAttempts, cause)

		if !e.requeueJob(job) {
			// Retries exhausted or shutdown: leave the row failed, the
			// explicit retry path can revive it.
			e.markFailed(ctx, job, cause.Error())
		}
		return
	}

	log.Printf("engine: permanent failure for memory %d: %v", job.MemoryID, cause)
	e.markFailed(ctx, job, cause.Error())
}

// markFailed records a terminal failure.
func (e *Engine) markFailed(ctx context.Context, job *Job, message string) {
	update := storage.EnrichmentUpdate{
		Status:   types.StatusFailed,
		Attempts: job.Attempt + 1,
		Error:    message,
	}
	if err := e.memories.UpdateEnrichment(ctx, job.MemoryID, update); err != nil {
		log.Printf("engine: ERROR: failed to mark memory %d failed: %v", job.MemoryID, err)
		return
	}
	e.notifyStatusChange(job.MemoryID, types.StatusFailed)
}

// imageMIMEForPath maps an image file extension to its MIME type.
func imageMIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/png"
	}
}

// audioMIMEForPath maps an audio file extension to its MIME type.
func audioMIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	default:
		return "audio/mpeg"
	}
}
