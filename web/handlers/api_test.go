package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/scrypster/recall/internal/services"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/pkg/types"
	"github.com/scrypster/recall/web/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEnqueuer records enqueued memory ids without running an engine.
type stubEnqueuer struct {
	mu   sync.Mutex
	ids  []int64
	full bool
}

func (s *stubEnqueuer) EnqueueMemory(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *stubEnqueuer) enqueued() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

type fixture struct {
	mux      *http.ServeMux
	memories *sqlite.MemoryStore
	tasks    *sqlite.TaskStore
	enqueuer *stubEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	memories, err := sqlite.NewMemoryStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = memories.Close() })

	tasks := sqlite.NewTaskStoreWithDB(memories.GetDB())
	settings := services.NewSettingsService(memories.GetDB(), false)
	enqueuer := &stubEnqueuer{}

	h := handlers.NewAPIHandlers(memories, tasks, settings, enqueuer, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &fixture{mux: mux, memories: memories, tasks: tasks, enqueuer: enqueuer}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateMemory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/memories", map[string]string{
		"text": "call the plumber tomorrow",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	memory := decode[types.Memory](t, rec)
	assert.Equal(t, types.StatusPending, memory.Status)
	assert.Equal(t, "api", memory.Source, "source defaults to api")
	assert.Equal(t, []int64{memory.ID}, f.enqueuer.enqueued(),
		"capture must hand the memory to the engine")
}

func TestCreateMemoryRejectsEmptyCapture(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/memories", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.enqueuer.enqueued())
}

func TestListMemoriesFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id1, err := f.memories.Insert(ctx, &types.Memory{Text: "one"})
	require.NoError(t, err)
	_, err = f.memories.Insert(ctx, &types.Memory{Text: "two"})
	require.NoError(t, err)
	require.NoError(t, f.memories.UpdateStatus(ctx, id1, types.StatusCompleted))

	rec := f.do(t, http.MethodGet, "/api/memories?status=completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[storage.PaginatedResult[types.Memory]](t, rec)
	require.Len(t, result.Items, 1)
	assert.Equal(t, id1, result.Items[0].ID)
}

func TestListMemoriesRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/memories?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMemoryNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/memories/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMemoryCascadesTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.memories.Insert(ctx, &types.Memory{Text: "spawns a task"})
	require.NoError(t, err)
	task := &types.Task{ID: "t1", MemoryID: &id, Title: "Follow up", Type: types.TaskTodo}
	require.NoError(t, f.tasks.Insert(ctx, task))

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/api/memories/%d", id), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err = f.tasks.Get(ctx, "t1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRetryMemoryOnlyWhenFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.memories.Insert(ctx, &types.Memory{Text: "will fail"})
	require.NoError(t, err)

	// Pending memories are not retryable; they are owned by the sweep.
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/memories/%d/retry", id), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, f.memories.UpdateStatus(ctx, id, types.StatusFailed))
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/memories/%d/retry", id), nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []int64{id}, f.enqueuer.enqueued())
}

func TestRetryMemoryQueueFull(t *testing.T) {
	f := newFixture(t)
	f.enqueuer.full = true
	ctx := context.Background()

	id, err := f.memories.Insert(ctx, &types.Memory{Text: "stuck"})
	require.NoError(t, err)
	require.NoError(t, f.memories.UpdateStatus(ctx, id, types.StatusFailed))

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/memories/%d/retry", id), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHideAndUnhideMemory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.memories.Insert(ctx, &types.Memory{Text: "private"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/memories/%d/hide", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	m, err := f.memories.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, m.IsHidden)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/memories/%d/hide", id),
		map[string]bool{"hidden": false})
	require.Equal(t, http.StatusOK, rec.Code)

	m, err = f.memories.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, m.IsHidden)
}

func TestTaskApprovalWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	memID, err := f.memories.Insert(ctx, &types.Memory{Text: "note"})
	require.NoError(t, err)
	require.NoError(t, f.tasks.Insert(ctx, &types.Task{
		ID: "ai-1", MemoryID: &memID, Title: "Book dentist", Type: types.TaskTodo,
	}))
	require.NoError(t, f.tasks.Insert(ctx, &types.Task{
		ID: "ai-2", MemoryID: &memID, Title: "Team offsite", Type: types.TaskEvent,
	}))

	// Unapproved tasks show up in review, not in the active listing.
	rec := f.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[map[string][]types.Task](t, rec)
	assert.Empty(t, active["tasks"])

	rec = f.do(t, http.MethodGet, "/api/tasks/review", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	review := decode[map[string][]types.Task](t, rec)
	assert.Len(t, review["tasks"], 2)

	// Approve one, reject the other.
	rec = f.do(t, http.MethodPost, "/api/tasks/approve", map[string][]string{"ids": {"ai-1"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/tasks/reject", map[string][]string{"ids": {"ai-2"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/tasks", nil)
	active = decode[map[string][]types.Task](t, rec)
	require.Len(t, active["tasks"], 1)
	assert.Equal(t, "ai-1", active["tasks"][0].ID)

	_, err = f.tasks.Get(ctx, "ai-2")
	assert.ErrorIs(t, err, storage.ErrNotFound, "rejected tasks are deleted outright")
}

func TestCreateManualTaskIsApproved(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tasks", map[string]string{
		"title":    "Water the plants",
		"due_date": "2026-09-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	task := decode[types.Task](t, rec)
	assert.True(t, task.IsApproved, "manual tasks are approved implicitly")
	assert.Equal(t, types.TaskTodo, task.Type)
	assert.Nil(t, task.MemoryID)
}

func TestCompleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tasks.Insert(ctx, &types.Task{
		ID: "m-1", Title: "Done soon", Type: types.TaskTodo, IsApproved: true,
	}))

	rec := f.do(t, http.MethodPost, "/api/tasks/m-1/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	task, err := f.tasks.Get(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, task.IsCompleted)
}

func TestSettingsRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode[types.Settings](t, rec)
	assert.True(t, settings.NotificationsEnabled)

	settings.NotificationFilter = types.NotifyEvents
	settings.ScreenshotWatchEnabled = false
	rec = f.do(t, http.MethodPut, "/api/settings", settings)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/settings", nil)
	got := decode[types.Settings](t, rec)
	assert.Equal(t, types.NotifyEvents, got.NotificationFilter)
	assert.False(t, got.ScreenshotWatchEnabled)
}

func TestPutSettingsRejectsBadFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/settings", map[string]interface{}{
		"notifications_enabled": true,
		"notification_filter":   "everything",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
