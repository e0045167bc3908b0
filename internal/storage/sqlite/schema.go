package sqlite

// CurrentSchemaVersion is stamped into the schema_version table on first
// open. New opens refuse a database stamped with a newer version than this
// binary understands (see checkSchemaVersion).
const CurrentSchemaVersion = "v1.0.0"

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT NOT NULL
);

-- state_json holds the canonical serialized bytes; checksum is the SHA-256
-- hex digest over exactly those bytes, so integrity verification recomputes
-- against the column as stored.
CREATE TABLE IF NOT EXISTS snapshots (
    id                  TEXT NOT NULL,
    project_id          TEXT NOT NULL,
    parent_id           TEXT NOT NULL DEFAULT '',
    has_parent          INTEGER NOT NULL DEFAULT 0,
    created_at_epoch_ms INTEGER NOT NULL,
    label               TEXT NOT NULL DEFAULT '',
    state_json          TEXT NOT NULL,
    checksum            TEXT NOT NULL,
    PRIMARY KEY (project_id, id)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_project ON snapshots(project_id);

-- One row per promoted TM entry. The UNIQUE constraint enforces the natural
-- key at the storage boundary independently of canPromoteSegment's own
-- duplicate-entry check — two separate layers, neither trusting the other.
CREATE TABLE IF NOT EXISTS tm_entries (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id   TEXT NOT NULL,
    source_text TEXT NOT NULL,
    target_text TEXT NOT NULL,
    project_id  TEXT NOT NULL,
    snapshot_id TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    UNIQUE (client_id, source_text)
);

CREATE INDEX IF NOT EXISTS idx_tm_entries_client ON tm_entries(client_id);

-- Tracks which snapshot a project's working state currently points at. This
-- adapter only ever persists snapshot-backed state (the harness commits
-- immediately after every change), so there is no row for an uncommitted,
-- never-snapshotted VersionedState.
CREATE TABLE IF NOT EXISTS current_pointer (
    project_id  TEXT PRIMARY KEY,
    snapshot_id TEXT NOT NULL
);
`
