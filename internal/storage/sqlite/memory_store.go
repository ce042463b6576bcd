package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// MemoryStore implements storage.MemoryStore using SQLite.
type MemoryStore struct {
	db *sql.DB
}

// NewMemoryStore opens a SQLite database, configures WAL mode, and creates
// the schema.
func NewMemoryStore(dsn string) (*MemoryStore, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{db: db}, nil
}

// openDB opens and configures a SQLite connection shared by both stores.
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open
	// connection serialises writes and avoids SQLITE_BUSY errors under
	// concurrent load. WAL mode lets readers proceed without blocking the
	// writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// GetDB exposes the underlying connection for components that share it
// (task store, settings service).
func (s *MemoryStore) GetDB() *sql.DB {
	return s.db
}

// Insert creates a new memory in StatusPending and returns its assigned id.
func (s *MemoryStore) Insert(ctx context.Context, draft *types.Memory) (int64, error) {
	if draft == nil {
		return 0, storage.ErrInvalidInput
	}
	if !draft.HasInput() {
		return 0, fmt.Errorf("%w: memory requires at least one raw input", storage.ErrInvalidInput)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (text, image_path, audio_path, bookmark_url, bookmark_title,
			source, status, is_hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.Text, draft.ImagePath, draft.AudioPath, draft.BookmarkURL, draft.BookmarkTitle,
		draft.Source, string(types.StatusPending), boolToInt(draft.IsHidden), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert memory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

const memoryColumns = `id, text, image_path, audio_path, bookmark_url, bookmark_title, source,
	title, summary, tags, image_analysis, audio_transcription, actions,
	status, is_hidden, enrichment_attempts, enrichment_error, enriched_at,
	created_at, updated_at`

// Get retrieves a memory by id.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*types.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)

	mem, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory %d: %w", id, err)
	}
	return mem, nil
}

// List retrieves memories with pagination and optional status filtering.
func (s *MemoryStore) List(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	opts.Normalize()

	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Status != "" {
		where += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if !opts.IncludeHidden {
		where += " AND is_hidden = 0"
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memories "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}

	query := `SELECT ` + memoryColumns + ` FROM memories ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	items := []types.Memory{}
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		items = append(items, *mem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &storage.PaginatedResult[types.Memory]{
		Items:    items,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(items) < total,
	}, nil
}

// ListClaimable returns ids of memories in any of the given statuses, oldest
// first.
func (s *MemoryStore) ListClaimable(ctx context.Context, statuses ...types.MemoryStatus) ([]int64, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := ""
	args := make([]interface{}, 0, len(statuses))
	for i, st := range statuses {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, string(st))
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM memories WHERE status IN ("+placeholders+") ORDER BY created_at ASC, id ASC",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimable memories: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Claim atomically transitions a memory from pending or failed to processing.
// The conditional UPDATE is the claim lock: exactly one concurrent caller
// observes RowsAffected == 1 for a given row.
func (s *MemoryStore) Claim(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memories SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(types.StatusProcessing), time.Now().UTC(), id,
		string(types.StatusPending), string(types.StatusFailed),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim memory %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateStatus sets the lifecycle status of a memory.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id int64, status types.MemoryStatus) error {
	if !types.IsValidMemoryStatus(status) {
		return fmt.Errorf("%w: invalid status %q", storage.ErrInvalidInput, status)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE memories SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update status for memory %d: %w", id, err)
	}
	return requireRow(res)
}

// UpdateEnrichment writes the derived fields of one enrichment attempt
// together with the resulting status.
func (s *MemoryStore) UpdateEnrichment(ctx context.Context, id int64, update storage.EnrichmentUpdate) error {
	if !types.IsValidMemoryStatus(update.Status) {
		return fmt.Errorf("%w: invalid status %q", storage.ErrInvalidInput, update.Status)
	}

	tagsJSON, err := marshalOrNil(update.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	actionsJSON, err := marshalOrNil(update.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE memories SET
			title = ?, summary = ?, tags = ?, image_analysis = ?,
			audio_transcription = ?, actions = ?, status = ?,
			enrichment_attempts = ?, enrichment_error = ?, enriched_at = ?,
			updated_at = ?
		WHERE id = ?`,
		update.Title, update.Summary, tagsJSON, update.ImageAnalysis,
		update.AudioTranscription, actionsJSON, string(update.Status),
		update.Attempts, update.Error, update.EnrichedAt,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrichment for memory %d: %w", id, err)
	}
	return requireRow(res)
}

// SetHidden sets the user-controlled visibility flag.
func (s *MemoryStore) SetHidden(ctx context.Context, id int64, hidden bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE memories SET is_hidden = ?, updated_at = ? WHERE id = ?",
		boolToInt(hidden), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set hidden for memory %d: %w", id, err)
	}
	return requireRow(res)
}

// RecoverStale resets memories stuck in processing back to pending.
func (s *MemoryStore) RecoverStale(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memories SET status = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?`,
		string(types.StatusPending), time.Now().UTC(),
		string(types.StatusProcessing), olderThan.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to recover stale memories: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Delete removes a memory permanently. Task rows cascade via the foreign key.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete memory %d: %w", id, err)
	}
	return requireRow(res)
}

// Close releases the database connection.
func (s *MemoryStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanMemory reads one memory row in memoryColumns order.
func scanMemory(row scanner) (*types.Memory, error) {
	var (
		mem         types.Memory
		tagsJSON    sql.NullString
		actionsJSON sql.NullString
		isHidden    int
		enrichedAt  sql.NullTime
	)

	err := row.Scan(
		&mem.ID, &mem.Text, &mem.ImagePath, &mem.AudioPath, &mem.BookmarkURL,
		&mem.BookmarkTitle, &mem.Source,
		&mem.Title, &mem.Summary, &tagsJSON, &mem.ImageAnalysis,
		&mem.AudioTranscription, &actionsJSON,
		(*string)(&mem.Status), &isHidden, &mem.EnrichmentAttempts,
		&mem.EnrichmentError, &enrichedAt,
		&mem.CreatedAt, &mem.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	mem.IsHidden = isHidden != 0
	if enrichedAt.Valid {
		t := enrichedAt.Time
		mem.EnrichedAt = &t
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &mem.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if actionsJSON.Valid && actionsJSON.String != "" {
		if err := json.Unmarshal([]byte(actionsJSON.String), &mem.Actions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
		}
	}
	return &mem, nil
}

// requireRow converts a zero-row UPDATE/DELETE into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func marshalOrNil(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil, nil
		}
	case []types.Action:
		if len(val) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time assertion.
var _ storage.MemoryStore = (*MemoryStore)(nil)
