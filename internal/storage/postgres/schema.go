// Package postgres provides PostgreSQL implementations of the storage
// interfaces, for deployments that outgrow the embedded SQLite backend.
package postgres

// Schema contains the SQL statements to create the database schema for
// PostgreSQL. All statements are idempotent.
const Schema = `
-- Memories table: captured units with async enrichment tracking
CREATE TABLE IF NOT EXISTS memories (
    id BIGSERIAL PRIMARY KEY,

    -- Raw inputs (write-once at capture)
    text TEXT NOT NULL DEFAULT '',
    image_path TEXT NOT NULL DEFAULT '',
    audio_path TEXT NOT NULL DEFAULT '',
    bookmark_url TEXT NOT NULL DEFAULT '',
    bookmark_title TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',

    -- Derived fields (written by the processing engine)
    title TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    tags JSONB,
    image_analysis TEXT NOT NULL DEFAULT '',
    audio_transcription TEXT NOT NULL DEFAULT '',
    actions JSONB,

    status TEXT NOT NULL DEFAULT 'pending',
    is_hidden BOOLEAN NOT NULL DEFAULT FALSE,

    -- Enrichment bookkeeping
    enrichment_attempts INTEGER NOT NULL DEFAULT 0,
    enrichment_error TEXT NOT NULL DEFAULT '',
    enriched_at TIMESTAMPTZ,

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);

-- Tasks table: schedulable items, optionally linked to a parent memory
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    memory_id BIGINT REFERENCES memories(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    due_date TEXT NOT NULL DEFAULT '',
    due_time TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT 'todo',
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    is_approved BOOLEAN NOT NULL DEFAULT FALSE,
    is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
    recurrence_rule TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tasks_memory_id ON tasks(memory_id);
CREATE INDEX IF NOT EXISTS idx_tasks_approved ON tasks(is_approved, is_completed);

-- Settings table: persisted user preferences
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
