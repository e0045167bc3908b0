// Package version implements the snapshot-based history graph: structural-
// equality-deduplicated commits, exact rollback to any prior snapshot (not only
// chronologically earlier ones), and read-only lineage queries over the
// resulting DAG. Every operation is pure and total; there is no I/O, no
// mutation of caller-owned values, and no destructive history rewriting.
package version

import (
	"sort"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
)

// Snapshot is an immutable, once-committed record of a ProjectState.
type Snapshot struct {
	ID               ids.SnapshotID
	State            project.ProjectState
	CreatedAtEpochMs int64
	Label            string
}

// HistoryGraph is a DAG of snapshots. ParentMap never points forward and never
// forms a cycle; a snapshot absent from ParentMap is a root. Multiple children
// per parent are permitted (branching); there is no merge operation.
type HistoryGraph struct {
	Snapshots map[ids.SnapshotID]Snapshot
	ParentMap map[ids.SnapshotID]ids.SnapshotID
}

// NewHistoryGraph returns an empty, ready-to-use HistoryGraph.
func NewHistoryGraph() HistoryGraph {
	return HistoryGraph{
		Snapshots: make(map[ids.SnapshotID]Snapshot),
		ParentMap: make(map[ids.SnapshotID]ids.SnapshotID),
	}
}

// VersionedState pairs a working ProjectState with the history it was derived
// from. CurrentSnapshotID names the snapshot CurrentState was drawn from, if
// any; it is empty when CurrentState has local, uncommitted changes that have
// never matched any snapshot (including right after construction, before the
// first commit).
type VersionedState struct {
	CurrentState      project.ProjectState
	CurrentSnapshotID ids.SnapshotID
	History           HistoryGraph
}

// NewVersionedState returns a VersionedState with no history and the given
// initial working state.
func NewVersionedState(initial project.ProjectState) VersionedState {
	return VersionedState{
		CurrentState: initial,
		History:      NewHistoryGraph(),
	}
}

// copySnapshots returns a shallow copy of m; Snapshot values themselves are
// never mutated after insertion, so a shallow copy is sufficient to guarantee
// the original map (and every VersionedState holding it) is unaffected by
// future inserts.
func copySnapshots(m map[ids.SnapshotID]Snapshot) map[ids.SnapshotID]Snapshot {
	out := make(map[ids.SnapshotID]Snapshot, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyParents(m map[ids.SnapshotID]ids.SnapshotID) map[ids.SnapshotID]ids.SnapshotID {
	out := make(map[ids.SnapshotID]ids.SnapshotID, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// findStructurallyEqual returns the ID of a snapshot in snapshots whose State
// is StatesEqual to candidate, or ("", false) if none exists.
func findStructurallyEqual(snapshots map[ids.SnapshotID]Snapshot, candidate project.ProjectState) (ids.SnapshotID, bool) {
	for id, snap := range snapshots {
		if StatesEqual(snap.State, candidate) {
			return id, true
		}
	}
	return "", false
}

// CommitSnapshot applies change to v.CurrentState and commits the result.
//
// If the resulting state is structurally equal to a snapshot already present
// in v.History, no new snapshot is created: CurrentState advances to that
// snapshot's state, and the parent relationship from v.CurrentSnapshotID to it
// is recorded only if no parent is already recorded for it (never overwritten).
//
// Otherwise a new Snapshot{snapshotID, candidate, createdAtEpochMs, label} is
// inserted with its parent set to v.CurrentSnapshotID (absent if v.CurrentState
// was not itself drawn from any snapshot, i.e. this is a root commit).
//
// v's own History and Snapshots maps are never mutated; the returned
// VersionedState always holds freshly copied maps, so every pre-existing
// snapshot in v.History.Snapshots remains byte-identical in every previously
// returned VersionedState value.
func CommitSnapshot(v VersionedState, change project.TranslationChange, snapshotID ids.SnapshotID, createdAtEpochMs int64, label string) VersionedState {
	candidate := project.ApplyTranslationChange(v.CurrentState, change)

	if existingID, ok := findStructurallyEqual(v.History.Snapshots, candidate); ok {
		newParents := v.History.ParentMap
		if v.CurrentSnapshotID != "" && v.CurrentSnapshotID != existingID {
			if _, hasParent := v.History.ParentMap[existingID]; !hasParent {
				newParents = copyParents(v.History.ParentMap)
				newParents[existingID] = v.CurrentSnapshotID
			}
		}
		return VersionedState{
			CurrentState:      v.History.Snapshots[existingID].State,
			CurrentSnapshotID: existingID,
			History: HistoryGraph{
				Snapshots: v.History.Snapshots,
				ParentMap: newParents,
			},
		}
	}

	newSnapshots := copySnapshots(v.History.Snapshots)
	newSnapshots[snapshotID] = Snapshot{
		ID:               snapshotID,
		State:            candidate,
		CreatedAtEpochMs: createdAtEpochMs,
		Label:            label,
	}

	newParents := v.History.ParentMap
	if v.CurrentSnapshotID != "" {
		newParents = copyParents(v.History.ParentMap)
		newParents[snapshotID] = v.CurrentSnapshotID
	}

	return VersionedState{
		CurrentState:      candidate,
		CurrentSnapshotID: snapshotID,
		History: HistoryGraph{
			Snapshots: newSnapshots,
			ParentMap: newParents,
		},
	}
}

// RollbackToSnapshot returns a VersionedState whose CurrentState is the state
// stored in the snapshot identified by snapshotID. History is never modified:
// forward history (snapshots committed after the rollback target) is
// preserved, so a later commit or rollback can reach any snapshot, not only
// ones chronologically after the new current state.
//
// If snapshotID is not present in v.History.Snapshots, v is returned
// unchanged. Rollback into a snapshot of an archived project is permitted:
// rollback is historical recovery, not an edit subject to the archived-
// project restriction on ApplyTranslationChange.
func RollbackToSnapshot(v VersionedState, snapshotID ids.SnapshotID) VersionedState {
	snap, ok := v.History.Snapshots[snapshotID]
	if !ok {
		return v
	}
	return VersionedState{
		CurrentState:      snap.State,
		CurrentSnapshotID: snapshotID,
		History:           v.History,
	}
}

// targetKey is the composite key a TargetSegment is compared and ordered by.
type targetKey struct {
	SegmentID      ids.SegmentID
	TargetLanguage ids.LanguageCode
}

type targetValue struct {
	TranslatedText string
	Status         project.TargetStatus
	TMProvenance   project.TMProvenance
	hasProvenance  bool
}

func targetSetOf(targets []project.TargetSegment) map[targetKey]targetValue {
	out := make(map[targetKey]targetValue, len(targets))
	for _, t := range targets {
		v := targetValue{TranslatedText: t.TranslatedText, Status: t.Status}
		if t.TMProvenance != nil {
			v.TMProvenance = *t.TMProvenance
			v.hasProvenance = true
		}
		out[targetKey{SegmentID: t.SegmentID, TargetLanguage: t.TargetLanguage}] = v
	}
	return out
}

// StatesEqual reports whether two states are structurally equal: project
// IDs, segment lists as ordered sequences of
// {id, indexWithinProject, sourceText, sourceLanguage, isLocked}, and
// target-segment sets keyed by (segmentID, targetLanguage) must all match
// field-wise. Fast paths (reference equality, project-ID inequality, and
// length mismatches) short-circuit before any full structural walk.
func StatesEqual(a, b project.ProjectState) bool {
	if a.Project.ID == b.Project.ID &&
		len(a.Segments) > 0 && len(a.Segments) == len(b.Segments) && &a.Segments[0] == &b.Segments[0] &&
		len(a.TargetSegments) == len(b.TargetSegments) &&
		(len(a.TargetSegments) == 0 || &a.TargetSegments[0] == &b.TargetSegments[0]) {
		return true
	}

	if a.Project.ID != b.Project.ID {
		return false
	}
	if len(a.Segments) != len(b.Segments) {
		return false
	}
	if len(a.TargetSegments) != len(b.TargetSegments) {
		return false
	}

	for i := range a.Segments {
		as, bs := a.Segments[i], b.Segments[i]
		if as.ID != bs.ID || as.IndexWithinProject != bs.IndexWithinProject ||
			as.SourceText != bs.SourceText || as.SourceLanguage != bs.SourceLanguage ||
			as.IsLocked != bs.IsLocked {
			return false
		}
	}

	aSet := targetSetOf(a.TargetSegments)
	bSet := targetSetOf(b.TargetSegments)
	if len(aSet) != len(bSet) {
		return false
	}
	for k, av := range aSet {
		bv, ok := bSet[k]
		if !ok || av != bv {
			return false
		}
	}

	return true
}

// Ancestors walks ParentMap from id up to its root, returning snapshot IDs
// oldest-first (the root is first, id itself is last). If id is absent from
// the graph, or is itself a root, the result contains at most id.
func Ancestors(h HistoryGraph, id ids.SnapshotID) []ids.SnapshotID {
	var chain []ids.SnapshotID
	cur := id
	visited := make(map[ids.SnapshotID]bool)
	for {
		if _, ok := h.Snapshots[cur]; !ok {
			break
		}
		if visited[cur] {
			break // defensive: parentMap must never cycle, but never hang if it does
		}
		visited[cur] = true
		chain = append(chain, cur)
		parent, hasParent := h.ParentMap[cur]
		if !hasParent {
			break
		}
		cur = parent
	}
	// chain is currently leaf(id)-to-root; reverse to root-to-id.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Roots returns every snapshot ID with no parent, sorted for determinism.
func Roots(h HistoryGraph) []ids.SnapshotID {
	var roots []ids.SnapshotID
	for id := range h.Snapshots {
		if _, hasParent := h.ParentMap[id]; !hasParent {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// Children returns every snapshot ID whose recorded parent is id, sorted for
// determinism.
func Children(h HistoryGraph, id ids.SnapshotID) []ids.SnapshotID {
	var children []ids.SnapshotID
	for child, parent := range h.ParentMap {
		if parent == id {
			children = append(children, child)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	return children
}
