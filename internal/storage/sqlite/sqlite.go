// Package sqlite is the production PersistenceGateway: one SQLite file per
// workspace, schema-version gated on open so an older binary refuses a newer
// database rather than silently misreading it. RunInTransaction holds a
// sidecar lock file for its duration, serializing transactions across
// processes; the Save* methods called outside RunInTransaction take no lock.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gofrs/flock"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/integrity"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/tm"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
)

// execer is the subset of *sql.DB and *sql.Conn this package needs; sharing
// it lets the same query helpers run against either a pooled connection or
// one pinned inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage is the production PersistenceGateway.
type Storage struct {
	db       *sql.DB
	lock     *flock.Flock
	dbPath   string
	lockPath string
}

var _ ports.PersistenceGateway = (*Storage)(nil)

// New opens (creating if necessary) the SQLite database at dbPath, applies
// the schema, and gates on schema version before returning. The lock file
// is always dbPath + ".lock".
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	if err := checkSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	lockPath := dbPath + ".lock"
	return &Storage{
		db:       db,
		lock:     flock.New(lockPath),
		dbPath:   dbPath,
		lockPath: lockPath,
	}, nil
}

// Close releases the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) SaveSnapshot(ctx context.Context, projectID ids.ProjectID, rec ports.SnapshotRecord) error {
	return saveSnapshot(ctx, s.db, projectID, rec)
}

func (s *Storage) LoadVersionedState(ctx context.Context, projectID ids.ProjectID) (version.VersionedState, error) {
	return loadVersionedState(ctx, s.db, projectID)
}

func (s *Storage) SnapshotRecords(ctx context.Context, projectID ids.ProjectID) (map[ids.SnapshotID]ports.SnapshotRecord, error) {
	return snapshotRecords(ctx, s.db, projectID)
}

func (s *Storage) SaveTMEntry(ctx context.Context, entry tm.TMEntry) error {
	return saveTMEntry(ctx, s.db, entry)
}

func (s *Storage) ExistingSourceTexts(ctx context.Context, clientID ids.ClientID) (map[string]struct{}, error) {
	return existingSourceTexts(ctx, s.db, clientID)
}

// RunInTransaction acquires the cross-process writer lock, starts a
// BEGIN IMMEDIATE transaction on a single pinned connection (acquiring
// SQLite's write lock up front, rather than on first write, to avoid
// deadlocking against another process also using BEGIN IMMEDIATE), and
// commits on fn's success or rolls back on its error or panic.
func (s *Storage) RunInTransaction(ctx context.Context, fn func(tx ports.PersistenceGateway) error) error {
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring writer lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another writer holds the lock on %s", s.lockPath)
	}
	defer func() { _ = s.lock.Unlock() }()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	tx := &txStorage{conn: conn}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// txStorage is the PersistenceGateway view handed to RunInTransaction's
// callback: every method runs against the same pinned connection, inside
// the same transaction.
type txStorage struct {
	conn *sql.Conn
}

var _ ports.PersistenceGateway = (*txStorage)(nil)

func (t *txStorage) SaveSnapshot(ctx context.Context, projectID ids.ProjectID, rec ports.SnapshotRecord) error {
	return saveSnapshot(ctx, t.conn, projectID, rec)
}

func (t *txStorage) LoadVersionedState(ctx context.Context, projectID ids.ProjectID) (version.VersionedState, error) {
	return loadVersionedState(ctx, t.conn, projectID)
}

func (t *txStorage) SnapshotRecords(ctx context.Context, projectID ids.ProjectID) (map[ids.SnapshotID]ports.SnapshotRecord, error) {
	return snapshotRecords(ctx, t.conn, projectID)
}

func (t *txStorage) SaveTMEntry(ctx context.Context, entry tm.TMEntry) error {
	return saveTMEntry(ctx, t.conn, entry)
}

func (t *txStorage) ExistingSourceTexts(ctx context.Context, clientID ids.ClientID) (map[string]struct{}, error) {
	return existingSourceTexts(ctx, t.conn, clientID)
}

func (t *txStorage) RunInTransaction(ctx context.Context, fn func(tx ports.PersistenceGateway) error) error {
	return fn(t)
}

func (t *txStorage) Close() error {
	return nil
}

func saveSnapshot(ctx context.Context, e execer, projectID ids.ProjectID, rec ports.SnapshotRecord) error {
	// state_json always holds the canonical integrity.SerializeState bytes —
	// the same bytes rec.StoredChecksum was computed over. A caller that has
	// already serialized (workspace.toRecord) hands them in; otherwise they
	// are produced here so the two columns can never disagree by encoding.
	stateJSON := rec.SerializedPayload
	if len(stateJSON) == 0 {
		var err error
		stateJSON, err = integrity.SerializeState(rec.Snapshot.State)
		if err != nil {
			return fmt.Errorf("serializing snapshot state: %w", err)
		}
	}

	hasParent := 0
	if rec.HasParent {
		hasParent = 1
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO snapshots (id, project_id, parent_id, has_parent, created_at_epoch_ms, label, state_json, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, id) DO UPDATE SET
			parent_id = excluded.parent_id,
			has_parent = excluded.has_parent,
			created_at_epoch_ms = excluded.created_at_epoch_ms,
			label = excluded.label,
			state_json = excluded.state_json,
			checksum = excluded.checksum
	`, string(rec.Snapshot.ID), string(projectID), string(rec.ParentID), hasParent, rec.Snapshot.CreatedAtEpochMs, rec.Snapshot.Label, string(stateJSON), rec.StoredChecksum)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", rec.Snapshot.ID, err)
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO current_pointer (project_id, snapshot_id) VALUES (?, ?)
		ON CONFLICT (project_id) DO UPDATE SET snapshot_id = excluded.snapshot_id
	`, string(projectID), string(rec.Snapshot.ID))
	if err != nil {
		return fmt.Errorf("updating current pointer: %w", err)
	}
	return nil
}

func snapshotRecords(ctx context.Context, e execer, projectID ids.ProjectID) (map[ids.SnapshotID]ports.SnapshotRecord, error) {
	rows, err := e.QueryContext(ctx, `
		SELECT id, parent_id, has_parent, created_at_epoch_ms, label, state_json, checksum
		FROM snapshots WHERE project_id = ?
	`, string(projectID))
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[ids.SnapshotID]ports.SnapshotRecord)
	for rows.Next() {
		var id, parentID, label, checksum, stateJSON string
		var hasParent int
		var createdAt int64
		if err := rows.Scan(&id, &parentID, &hasParent, &createdAt, &label, &stateJSON, &checksum); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		snap := version.Snapshot{
			ID:               ids.SnapshotID(id),
			CreatedAtEpochMs: createdAt,
			Label:            label,
		}
		// A payload that no longer parses is not a read error: the raw bytes
		// are preserved on the record so the integrity kernel can classify
		// the one damaged row as invalid_json instead of this read aborting
		// the whole project. The parsed state stays zero in that case.
		if state, err := integrity.DeserializeState([]byte(stateJSON)); err == nil {
			snap.State = state
		}
		out[ids.SnapshotID(id)] = ports.SnapshotRecord{
			Snapshot:          snap,
			ParentID:          ids.SnapshotID(parentID),
			HasParent:         hasParent != 0,
			SerializedPayload: []byte(stateJSON),
			StoredChecksum:    checksum,
		}
	}
	return out, rows.Err()
}

func loadVersionedState(ctx context.Context, e execer, projectID ids.ProjectID) (version.VersionedState, error) {
	records, err := snapshotRecords(ctx, e, projectID)
	if err != nil {
		return version.VersionedState{}, err
	}

	graph := version.NewHistoryGraph()
	for id, rec := range records {
		graph.Snapshots[id] = rec.Snapshot
		if rec.HasParent {
			graph.ParentMap[id] = rec.ParentID
		}
	}

	var currentSnapshotID ids.SnapshotID
	row := e.QueryRowContext(ctx, `SELECT snapshot_id FROM current_pointer WHERE project_id = ?`, string(projectID))
	var sid string
	switch err := row.Scan(&sid); err {
	case nil:
		currentSnapshotID = ids.SnapshotID(sid)
	case sql.ErrNoRows:
		// No snapshots committed yet for this project.
	default:
		return version.VersionedState{}, fmt.Errorf("reading current pointer: %w", err)
	}

	var currentState project.ProjectState
	if currentSnapshotID != "" {
		currentState = graph.Snapshots[currentSnapshotID].State
	}

	return version.VersionedState{
		CurrentState:      currentState,
		CurrentSnapshotID: currentSnapshotID,
		History:           graph,
	}, nil
}

func saveTMEntry(ctx context.Context, e execer, entry tm.TMEntry) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO tm_entries (client_id, source_text, target_text, project_id, snapshot_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(entry.ClientID), entry.SourceText, entry.TargetText, string(entry.ProjectID), string(entry.SnapshotID), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving TM entry: %w", err)
	}
	return nil
}

func existingSourceTexts(ctx context.Context, e execer, clientID ids.ClientID) (map[string]struct{}, error) {
	rows, err := e.QueryContext(ctx, `SELECT DISTINCT source_text FROM tm_entries WHERE client_id = ?`, string(clientID))
	if err != nil {
		return nil, fmt.Errorf("querying existing source texts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning source text row: %w", err)
		}
		out[text] = struct{}{}
	}
	return out, rows.Err()
}
