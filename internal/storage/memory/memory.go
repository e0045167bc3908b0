// Package memory is an in-memory PersistenceGateway used by fast-path CLI
// tests and example code: maps guarded by a single sync.RWMutex, no
// concurrency subtlety beyond that.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/integrity"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/tm"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
)

// Storage is an in-memory PersistenceGateway. The zero value is not usable;
// construct with New.
type Storage struct {
	mu sync.RWMutex

	// snapshots is keyed by (projectID, snapshotID).
	snapshots map[ids.ProjectID]map[ids.SnapshotID]ports.SnapshotRecord
	current   map[ids.ProjectID]ids.SnapshotID

	// tmEntries is keyed by clientID, then by sourceText, enforcing the same
	// natural-key uniqueness the sqlite adapter's UNIQUE constraint does.
	tmEntries map[ids.ClientID]map[string]tm.TMEntry
}

var _ ports.PersistenceGateway = (*Storage)(nil)

// New returns an empty, ready-to-use Storage.
func New() *Storage {
	return &Storage{
		snapshots: make(map[ids.ProjectID]map[ids.SnapshotID]ports.SnapshotRecord),
		current:   make(map[ids.ProjectID]ids.SnapshotID),
		tmEntries: make(map[ids.ClientID]map[string]tm.TMEntry),
	}
}

func (s *Storage) Close() error { return nil }

func (s *Storage) SaveSnapshot(ctx context.Context, projectID ids.ProjectID, rec ports.SnapshotRecord) error {
	// Same contract as the sqlite adapter: a stored record always carries
	// its canonical serialized bytes, produced here when the caller did not.
	if len(rec.SerializedPayload) == 0 {
		payload, err := integrity.SerializeState(rec.Snapshot.State)
		if err != nil {
			return fmt.Errorf("serializing snapshot state: %w", err)
		}
		rec.SerializedPayload = payload
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshots[projectID] == nil {
		s.snapshots[projectID] = make(map[ids.SnapshotID]ports.SnapshotRecord)
	}
	s.snapshots[projectID][rec.Snapshot.ID] = rec
	s.current[projectID] = rec.Snapshot.ID
	return nil
}

func (s *Storage) LoadVersionedState(ctx context.Context, projectID ids.ProjectID) (version.VersionedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph := version.NewHistoryGraph()
	for id, rec := range s.snapshots[projectID] {
		graph.Snapshots[id] = rec.Snapshot
		if rec.HasParent {
			graph.ParentMap[id] = rec.ParentID
		}
	}

	currentID := s.current[projectID]
	var currentState = graph.Snapshots[currentID].State

	return version.VersionedState{
		CurrentState:      currentState,
		CurrentSnapshotID: currentID,
		History:           graph,
	}, nil
}

func (s *Storage) SnapshotRecords(ctx context.Context, projectID ids.ProjectID) (map[ids.SnapshotID]ports.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[ids.SnapshotID]ports.SnapshotRecord, len(s.snapshots[projectID]))
	for id, rec := range s.snapshots[projectID] {
		out[id] = rec
	}
	return out, nil
}

func (s *Storage) SaveTMEntry(ctx context.Context, entry tm.TMEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tmEntries[entry.ClientID] == nil {
		s.tmEntries[entry.ClientID] = make(map[string]tm.TMEntry)
	}
	if _, exists := s.tmEntries[entry.ClientID][entry.SourceText]; exists {
		return fmt.Errorf("a TM entry for client %s and source text %q already exists", entry.ClientID, entry.SourceText)
	}
	s.tmEntries[entry.ClientID][entry.SourceText] = entry
	return nil
}

func (s *Storage) ExistingSourceTexts(ctx context.Context, clientID ids.ClientID) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{}, len(s.tmEntries[clientID]))
	for text := range s.tmEntries[clientID] {
		out[text] = struct{}{}
	}
	return out, nil
}

// RunInTransaction has no real atomicity to provide in-memory beyond the
// mutex each method already takes; it exists so callers can write one code
// path against PersistenceGateway regardless of adapter. fn's error (if any)
// is returned as-is; there is nothing to roll back.
func (s *Storage) RunInTransaction(ctx context.Context, fn func(tx ports.PersistenceGateway) error) error {
	return fn(s)
}
