package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// TaskStore implements storage.TaskStore using SQLite.
type TaskStore struct {
	db     *sql.DB
	ownsDB bool
}

// NewTaskStore opens a SQLite database for task storage.
func NewTaskStore(dsn string) (*TaskStore, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	return &TaskStore{db: db, ownsDB: true}, nil
}

// NewTaskStoreWithDB wraps an existing connection (shared with the memory
// store so cascade deletes and settings live in one database file).
func NewTaskStoreWithDB(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// Insert creates a task.
func (s *TaskStore) Insert(ctx context.Context, task *types.Task) error {
	if task == nil {
		return storage.ErrInvalidInput
	}
	if task.ID == "" {
		return fmt.Errorf("%w: task ID is required", storage.ErrInvalidInput)
	}
	if task.Title == "" {
		return fmt.Errorf("%w: task title is required", storage.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, memory_id, title, description, due_date, due_time,
			priority, type, is_completed, is_approved, is_recurring, recurrence_rule,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.MemoryID, task.Title, task.Description, task.DueDate, task.DueTime,
		task.Priority, string(task.Type), boolToInt(task.IsCompleted),
		boolToInt(task.IsApproved), boolToInt(task.IsRecurring), task.RecurrenceRule,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

const taskColumns = `id, memory_id, title, description, due_date, due_time, priority, type,
	is_completed, is_approved, is_recurring, recurrence_rule, created_at, updated_at`

// Get retrieves a task by id.
func (s *TaskStore) Get(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return task, nil
}

// ListActive returns approved, not-completed tasks. Tasks with a due date
// sort before undated ones, earliest first.
func (s *TaskStore) ListActive(ctx context.Context) ([]*types.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE is_approved = 1 AND is_completed = 0
		ORDER BY CASE WHEN due_date = '' THEN 1 ELSE 0 END, due_date ASC, due_time ASC, created_at ASC`)
}

// ListUnapproved returns tasks awaiting user review, oldest first.
func (s *TaskStore) ListUnapproved(ctx context.Context) ([]*types.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE is_approved = 0 ORDER BY created_at ASC`)
}

// ListByMemoryID returns all tasks spawned by the given memory.
func (s *TaskStore) ListByMemoryID(ctx context.Context, memoryID int64) ([]*types.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE memory_id = ? ORDER BY created_at ASC`, memoryID)
}

// Approve flips IsApproved for the given ids with no other field changes.
func (s *TaskStore) Approve(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders, args := idArgs(ids)
	args = append([]interface{}{time.Now().UTC()}, args...)
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET is_approved = 1, updated_at = ? WHERE id IN ("+placeholders+")",
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to approve tasks: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SetCompleted toggles the completion flag of a task.
func (s *TaskStore) SetCompleted(ctx context.Context, id string, completed bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET is_completed = ?, updated_at = ? WHERE id = ?",
		boolToInt(completed), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set completed for task %s: %w", id, err)
	}
	return requireRow(res)
}

// Delete removes tasks by id set.
func (s *TaskStore) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders, args := idArgs(ids)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteByMemoryID cascade-deletes all tasks spawned by a memory.
func (s *TaskStore) DeleteByMemoryID(ctx context.Context, memoryID int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE memory_id = ?", memoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks for memory %d: %w", memoryID, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close releases the database connection when this store owns it.
func (s *TaskStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func (s *TaskStore) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// scanTask reads one task row in taskColumns order.
func scanTask(row scanner) (*types.Task, error) {
	var (
		task      types.Task
		memoryID  sql.NullInt64
		completed int
		approved  int
		recurring int
	)

	err := row.Scan(
		&task.ID, &memoryID, &task.Title, &task.Description, &task.DueDate,
		&task.DueTime, &task.Priority, (*string)(&task.Type),
		&completed, &approved, &recurring, &task.RecurrenceRule,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if memoryID.Valid {
		id := memoryID.Int64
		task.MemoryID = &id
	}
	task.IsCompleted = completed != 0
	task.IsApproved = approved != 0
	task.IsRecurring = recurring != 0
	return &task, nil
}

// idArgs builds an IN-clause placeholder list for the given ids.
func idArgs(ids []string) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// Compile-time assertion.
var _ storage.TaskStore = (*TaskStore)(nil)
