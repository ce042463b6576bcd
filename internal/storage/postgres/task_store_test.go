package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/scrypster/recall/internal/storage/postgres"
	"github.com/scrypster/recall/pkg/types"
)

// newTestTaskStore shares the memory store's connection so task rows can
// reference real memories.
func newTestTaskStore(t *testing.T) (*postgres.MemoryStore, *postgres.TaskStore) {
	t.Helper()
	memories := newTestStore(t)
	return memories, postgres.NewTaskStoreWithDB(memories.GetDB())
}

func TestTaskApproveByIDSet(t *testing.T) {
	memories, tasks := newTestTaskStore(t)
	ctx := context.Background()

	memID := insertPendingMemory(t, memories, "two dentist reminders")
	for i := 0; i < 2; i++ {
		task := &types.Task{
			ID:       fmt.Sprintf("task-%d", i),
			MemoryID: &memID,
			Title:    fmt.Sprintf("Reminder %d", i),
			Type:     types.TaskTodo,
		}
		if err := tasks.Insert(ctx, task); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	// Unknown ids in the set are ignored, not errors.
	n, err := tasks.Approve(ctx, []string{"task-0", "task-1", "ghost"})
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Approve() updated %d rows, want 2", n)
	}

	active, err := tasks.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 2 {
		t.Errorf("ListActive() = %d tasks after approval, want 2", len(active))
	}

	review, err := tasks.ListUnapproved(ctx)
	if err != nil {
		t.Fatalf("ListUnapproved() error = %v", err)
	}
	if len(review) != 0 {
		t.Errorf("ListUnapproved() = %d tasks after approval, want 0", len(review))
	}
}

func TestTaskDeleteByIDSet(t *testing.T) {
	_, tasks := newTestTaskStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := tasks.Insert(ctx, &types.Task{ID: id, Title: "t-" + id, Type: types.TaskTodo}); err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}

	n, err := tasks.Delete(ctx, []string{"a", "c", "ghost"})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Delete() removed %d rows, want 2", n)
	}

	remaining, err := tasks.ListUnapproved(ctx)
	if err != nil {
		t.Fatalf("ListUnapproved() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "b" {
		t.Errorf("remaining tasks = %v, want only b", remaining)
	}
}

func TestTaskDeleteByMemoryID(t *testing.T) {
	memories, tasks := newTestTaskStore(t)
	ctx := context.Background()

	memA := insertPendingMemory(t, memories, "memory a")
	memB := insertPendingMemory(t, memories, "memory b")
	for i, mid := range []*int64{&memA, &memA, &memB, nil} {
		task := &types.Task{ID: fmt.Sprintf("t-%d", i), MemoryID: mid, Title: "x", Type: types.TaskTodo}
		if err := tasks.Insert(ctx, task); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	n, err := tasks.DeleteByMemoryID(ctx, memA)
	if err != nil {
		t.Fatalf("DeleteByMemoryID() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteByMemoryID() removed %d rows, want 2", n)
	}

	byB, err := tasks.ListByMemoryID(ctx, memB)
	if err != nil {
		t.Fatalf("ListByMemoryID() error = %v", err)
	}
	if len(byB) != 1 {
		t.Errorf("memory B tasks = %d, want 1 (untouched)", len(byB))
	}
}

func TestTaskActiveOrdering(t *testing.T) {
	_, tasks := newTestTaskStore(t)
	ctx := context.Background()

	undated := &types.Task{ID: "undated", Title: "someday", Type: types.TaskTodo, IsApproved: true}
	later := &types.Task{ID: "later", Title: "later", Type: types.TaskEvent, IsApproved: true, DueDate: "2026-06-01"}
	soon := &types.Task{ID: "soon", Title: "soon", Type: types.TaskEvent, IsApproved: true, DueDate: "2026-01-02"}
	for _, task := range []*types.Task{undated, later, soon} {
		if err := tasks.Insert(ctx, task); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	active, err := tasks.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("ListActive() = %d tasks, want 3", len(active))
	}
	want := []string{"soon", "later", "undated"}
	for i := range want {
		if active[i].ID != want[i] {
			t.Errorf("active[%d] = %s, want %s", i, active[i].ID, want[i])
		}
	}
}
