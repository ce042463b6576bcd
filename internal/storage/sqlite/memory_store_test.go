package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insertTestMemory(t *testing.T, store *MemoryStore, draft *types.Memory) int64 {
	t.Helper()
	id, err := store.Insert(context.Background(), draft)
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	return id
}

func TestInsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := insertTestMemory(t, store, &types.Memory{
		Text:   "Dentist tomorrow at 3pm",
		Source: "quick",
	})

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != types.StatusPending {
		t.Errorf("Status: got %q, want %q", got.Status, types.StatusPending)
	}
	if got.Text != "Dentist tomorrow at 3pm" {
		t.Errorf("Text: got %q", got.Text)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestInsertRejectsEmptyDraft(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Insert(context.Background(), &types.Memory{Source: "quick"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Insert() error = %v, want ErrInvalidInput", err)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 9999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestClaimTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := insertTestMemory(t, store, &types.Memory{Text: "claim me"})

	claimed, err := store.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim() failed: %v", err)
	}
	if !claimed {
		t.Fatal("Claim() = false for a pending memory, want true")
	}

	// A second claim must lose: the row is already processing.
	claimed, err = store.Claim(ctx, id)
	if err != nil {
		t.Fatalf("second Claim() failed: %v", err)
	}
	if claimed {
		t.Error("Claim() = true for a processing memory, want false")
	}

	got, _ := store.Get(ctx, id)
	if got.Status != types.StatusProcessing {
		t.Errorf("Status after claim: got %q, want %q", got.Status, types.StatusProcessing)
	}
}

func TestClaimAcceptsFailed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := insertTestMemory(t, store, &types.Memory{Text: "retry me"})
	if err := store.UpdateStatus(ctx, id, types.StatusFailed); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}

	claimed, err := store.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim() failed: %v", err)
	}
	if !claimed {
		t.Error("Claim() = false for a failed memory, want true (explicit retry path)")
	}
}

func TestClaimRejectsCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := insertTestMemory(t, store, &types.Memory{Text: "done"})
	if err := store.UpdateStatus(ctx, id, types.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}

	claimed, err := store.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim() failed: %v", err)
	}
	if claimed {
		t.Error("Claim() = true for a completed memory, want false")
	}
}

func TestUpdateEnrichmentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := insertTestMemory(t, store, &types.Memory{Text: "Dentist tomorrow at 3pm"})
	now := time.Now().UTC().Truncate(time.Second)

	update := storage.EnrichmentUpdate{
		Status:  types.StatusCompleted,
		Title:   "Dentist Appointment",
		Summary: "Dentist appointment tomorrow at 3pm.",
		Tags:    []string{"health", "appointment"},
		Actions: []types.Action{
			{Type: types.ActionEvent, Description: "Dentist", Date: "2024-01-02", Time: "15:00"},
		},
		Attempts:   1,
		EnrichedAt: &now,
	}
	if err := store.UpdateEnrichment(ctx, id, update); err != nil {
		t.Fatalf("UpdateEnrichment() failed: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != types.StatusCompleted {
		t.Errorf("Status: got %q, want %q", got.Status, types.StatusCompleted)
	}
	if got.Title != "Dentist Appointment" {
		t.Errorf("Title: got %q", got.Title)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "health" {
		t.Errorf("Tags: got %v", got.Tags)
	}
	if len(got.Actions) != 1 || got.Actions[0].Type != types.ActionEvent {
		t.Errorf("Actions: got %v", got.Actions)
	}
	if got.Actions[0].Date != "2024-01-02" || got.Actions[0].Time != "15:00" {
		t.Errorf("Action date/time: got %s %s", got.Actions[0].Date, got.Actions[0].Time)
	}
	if got.EnrichedAt == nil {
		t.Error("EnrichedAt should be set")
	}
}

func TestListFiltersHiddenAndStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	visible := insertTestMemory(t, store, &types.Memory{Text: "visible"})
	hidden := insertTestMemory(t, store, &types.Memory{Text: "hidden"})
	if err := store.SetHidden(ctx, hidden, true); err != nil {
		t.Fatalf("SetHidden() failed: %v", err)
	}

	result, err := store.List(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 || result.Items[0].ID != visible {
		t.Errorf("List() without hidden: got %d items (total %d)", len(result.Items), result.Total)
	}

	result, err = store.List(ctx, storage.ListOptions{IncludeHidden: true})
	if err != nil {
		t.Fatalf("List(IncludeHidden) failed: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("List(IncludeHidden) total: got %d, want 2", result.Total)
	}

	result, err = store.List(ctx, storage.ListOptions{Status: types.StatusCompleted, IncludeHidden: true})
	if err != nil {
		t.Fatalf("List(status) failed: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("List(completed) total: got %d, want 0", result.Total)
	}
}

func TestListClaimableOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := insertTestMemory(t, store, &types.Memory{Text: "first"})
	second := insertTestMemory(t, store, &types.Memory{Text: "second"})
	third := insertTestMemory(t, store, &types.Memory{Text: "third"})
	if err := store.UpdateStatus(ctx, second, types.StatusCompleted); err != nil {
		t.Fatal(err)
	}

	ids, err := store.ListClaimable(ctx, types.StatusPending)
	if err != nil {
		t.Fatalf("ListClaimable() failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != first || ids[1] != third {
		t.Errorf("ListClaimable() = %v, want [%d %d]", ids, first, third)
	}
}

func TestRecoverStale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := insertTestMemory(t, store, &types.Memory{Text: "orphaned"})
	if _, err := store.Claim(ctx, id); err != nil {
		t.Fatal(err)
	}

	// Nothing is stale yet.
	n, err := store.RecoverStale(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("RecoverStale() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("RecoverStale() recovered %d rows, want 0", n)
	}

	// With a future cutoff the processing row counts as orphaned.
	n, err = store.RecoverStale(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("RecoverStale() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("RecoverStale() recovered %d rows, want 1", n)
	}

	got, _ := store.Get(ctx, id)
	if got.Status != types.StatusPending {
		t.Errorf("Status after recovery: got %q, want %q", got.Status, types.StatusPending)
	}
}

func TestDeleteCascadesTasks(t *testing.T) {
	store := newTestStore(t)
	tasks := NewTaskStoreWithDB(store.GetDB())
	ctx := context.Background()

	id := insertTestMemory(t, store, &types.Memory{Text: "parent"})
	task := &types.Task{
		ID:       "task-1",
		MemoryID: &id,
		Title:    "Dentist",
		Type:     types.TaskEvent,
	}
	if err := tasks.Insert(ctx, task); err != nil {
		t.Fatalf("task Insert() failed: %v", err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	_, err := tasks.Get(ctx, "task-1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("task Get() after cascade error = %v, want ErrNotFound", err)
	}
}
