// Package storage provides composable storage interfaces for the Recall system.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. All per-row operations
// are atomic; the core never requires cross-row transactions.
package storage

import (
	"context"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// MemoryStore provides CRUD operations and the claim semantics for memories.
type MemoryStore interface {
	// Insert creates a new memory in StatusPending and returns its assigned id.
	// The draft's derived fields are ignored; only raw inputs and IsHidden are
	// persisted at capture time.
	Insert(ctx context.Context, draft *types.Memory) (int64, error)

	// Get retrieves a memory by id. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id int64) (*types.Memory, error)

	// List retrieves memories with pagination and optional status filtering.
	List(ctx context.Context, opts ListOptions) (*PaginatedResult[types.Memory], error)

	// ListClaimable returns ids of memories in any of the given statuses,
	// ordered by creation (oldest first). Used by the sweep.
	ListClaimable(ctx context.Context, statuses ...types.MemoryStatus) ([]int64, error)

	// Claim atomically transitions a memory from pending or failed to
	// processing. Returns false (no error) when the row is not claimable —
	// already processing, already completed, or missing. Exactly one
	// concurrent caller can win the claim for a given row.
	Claim(ctx context.Context, id int64) (bool, error)

	// UpdateStatus sets the lifecycle status of a memory.
	UpdateStatus(ctx context.Context, id int64, status types.MemoryStatus) error

	// UpdateEnrichment writes the derived fields produced by a completed or
	// failed enrichment attempt together with the resulting status.
	UpdateEnrichment(ctx context.Context, id int64, update EnrichmentUpdate) error

	// SetHidden sets the user-controlled visibility flag.
	SetHidden(ctx context.Context, id int64, hidden bool) error

	// RecoverStale resets memories stuck in StatusProcessing whose updated_at
	// is older than the cutoff back to StatusPending. Returns the number of
	// rows recovered. Called at startup before the initial sweep.
	RecoverStale(ctx context.Context, olderThan time.Time) (int, error)

	// Delete removes a memory permanently. Tasks referencing it are cascade
	// deleted. Returns ErrNotFound if the memory doesn't exist.
	Delete(ctx context.Context, id int64) error

	// Close releases resources held by the store.
	Close() error
}

// TaskStore provides persistence for tasks and the approval workflow.
type TaskStore interface {
	// Insert creates a task. The caller sets IsApproved (false for
	// AI-originated tasks, true for manual creation).
	Insert(ctx context.Context, task *types.Task) error

	// Get retrieves a task by id. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*types.Task, error)

	// ListActive returns approved, not-completed tasks ordered by due date.
	// Unapproved tasks never appear here.
	ListActive(ctx context.Context) ([]*types.Task, error)

	// ListUnapproved returns tasks awaiting user review, oldest first.
	ListUnapproved(ctx context.Context) ([]*types.Task, error)

	// ListByMemoryID returns all tasks spawned by the given memory.
	ListByMemoryID(ctx context.Context, memoryID int64) ([]*types.Task, error)

	// Approve flips IsApproved to true for the given ids with no other field
	// changes. Unknown ids are ignored. Returns the number of rows updated.
	Approve(ctx context.Context, ids []string) (int, error)

	// SetCompleted toggles the completion flag of a task.
	SetCompleted(ctx context.Context, id string, completed bool) error

	// Delete removes tasks by id set (rejection deletes outright).
	// Returns the number of rows deleted.
	Delete(ctx context.Context, ids []string) (int, error)

	// DeleteByMemoryID cascade-deletes all tasks spawned by a memory.
	DeleteByMemoryID(ctx context.Context, memoryID int64) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// EnrichmentUpdate carries the outcome of one enrichment attempt.
type EnrichmentUpdate struct {
	// Status is the resulting lifecycle status (completed, pending on a
	// transient failure, failed on a permanent one).
	Status types.MemoryStatus

	// Derived fields. Only meaningful when Status is StatusCompleted.
	Title              string
	Summary            string
	Tags               []string
	ImageAnalysis      string
	AudioTranscription string
	Actions            []types.Action

	// Attempts is the total number of enrichment attempts so far.
	Attempts int

	// Error stores the last enrichment error message, empty on success.
	Error string

	// EnrichedAt is set when enrichment completed.
	EnrichedAt *time.Time
}
