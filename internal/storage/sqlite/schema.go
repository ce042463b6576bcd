// Package sqlite provides SQLite implementations of the storage interfaces.
// It is the default backend: CGO-free via modernc.org/sqlite, WAL mode, and a
// single writer connection to avoid SQLITE_BUSY under concurrent load.
package sqlite

// Schema contains the SQL statements to create the database schema.
const Schema = `
-- Memories table: captured units with async enrichment tracking
CREATE TABLE IF NOT EXISTS memories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

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
    tags TEXT,
    image_analysis TEXT NOT NULL DEFAULT '',
    audio_transcription TEXT NOT NULL DEFAULT '',
    actions TEXT,

    status TEXT NOT NULL DEFAULT 'pending',
    is_hidden INTEGER NOT NULL DEFAULT 0,

    -- Enrichment bookkeeping
    enrichment_attempts INTEGER NOT NULL DEFAULT 0,
    enrichment_error TEXT NOT NULL DEFAULT '',
    enriched_at TIMESTAMP,

    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);

-- Tasks table: schedulable items, optionally linked to a parent memory
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    memory_id INTEGER REFERENCES memories(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    due_date TEXT NOT NULL DEFAULT '',
    due_time TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT 'todo',
    is_completed INTEGER NOT NULL DEFAULT 0,
    is_approved INTEGER NOT NULL DEFAULT 0,
    is_recurring INTEGER NOT NULL DEFAULT 0,
    recurrence_rule TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_memory_id ON tasks(memory_id);
CREATE INDEX IF NOT EXISTS idx_tasks_approved ON tasks(is_approved, is_completed);

-- Settings table: persisted user preferences
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
