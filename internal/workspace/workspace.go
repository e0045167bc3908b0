// Package workspace is the thin service layer the CLI harness drives: it
// sequences calls into the pure catcore packages and the PersistenceGateway.
// Every decision is made by catcore — this layer only loads, calls, and
// persists.
package workspace

import (
	"context"
	"fmt"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/diff"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/integrity"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/tm"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
)

// Service glues a PersistenceGateway to the pure core for one CLI process.
type Service struct {
	Store ports.PersistenceGateway
	Clock ports.Clock
	IDs   ports.IDGenerator
}

// New returns a Service over the given gateway, clock, and ID generator.
func New(store ports.PersistenceGateway, clock ports.Clock, idGen ports.IDGenerator) *Service {
	return &Service{Store: store, Clock: clock, IDs: idGen}
}

// InitProject creates a brand-new project with no segments and persists it
// as the first (root, parentless) snapshot. Segments are added afterward
// with AddSegment — source import is out of this system's scope; the CLI
// only ever receives segments the caller already has in hand.
func (s *Service) InitProject(ctx context.Context, p project.Project) (version.VersionedState, error) {
	state := project.ProjectState{Project: p}
	snapshotID := s.IDs.NewSnapshotID()
	snap := version.Snapshot{ID: snapshotID, State: state, CreatedAtEpochMs: s.Clock.NowEpochMs(), Label: "init"}

	rec, err := toRecord(snap, "", false)
	if err != nil {
		return version.VersionedState{}, err
	}
	if err := s.Store.SaveSnapshot(ctx, p.ID, rec); err != nil {
		return version.VersionedState{}, fmt.Errorf("saving initial snapshot: %w", err)
	}

	return version.VersionedState{
		CurrentState:      state,
		CurrentSnapshotID: snapshotID,
		History: version.HistoryGraph{
			Snapshots: map[ids.SnapshotID]version.Snapshot{snapshotID: snap},
			ParentMap: map[ids.SnapshotID]ids.SnapshotID{},
		},
	}, nil
}

// AddSegment appends a new source segment to the project's current state and
// commits the result as a new snapshot. Unlike ApplyTranslationChange, this
// is a harness-level operation — the pure core has no segment-creation
// primitive, since segment import is explicitly out of the core's scope.
func (s *Service) AddSegment(ctx context.Context, projectID ids.ProjectID, segment project.Segment) (version.VersionedState, error) {
	v, err := s.Store.LoadVersionedState(ctx, projectID)
	if err != nil {
		return version.VersionedState{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	candidate := project.ProjectState{
		Project:        v.CurrentState.Project,
		Segments:       append(append([]project.Segment(nil), v.CurrentState.Segments...), segment),
		TargetSegments: v.CurrentState.TargetSegments,
	}

	next := commitCandidate(v, candidate, s.IDs.NewSnapshotID(), s.Clock.NowEpochMs(), "add-segment")
	if err := s.persistCurrent(ctx, projectID, next); err != nil {
		return version.VersionedState{}, err
	}
	return next, nil
}

// ApplyAndCommit applies change to projectID's current state and persists
// the resulting (possibly deduplicated) snapshot, returning the new
// VersionedState.
func (s *Service) ApplyAndCommit(ctx context.Context, projectID ids.ProjectID, change project.TranslationChange, snapshotID ids.SnapshotID, label string) (version.VersionedState, error) {
	v, err := s.Store.LoadVersionedState(ctx, projectID)
	if err != nil {
		return version.VersionedState{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	next := version.CommitSnapshot(v, change, snapshotID, s.Clock.NowEpochMs(), label)
	if err := s.persistCurrent(ctx, projectID, next); err != nil {
		return version.VersionedState{}, err
	}
	return next, nil
}

// Rollback moves projectID's current pointer to snapshotID. History is
// never rewritten; re-persisting the already-stored snapshot record simply
// moves the adapter's current-pointer row alongside it.
func (s *Service) Rollback(ctx context.Context, projectID ids.ProjectID, snapshotID ids.SnapshotID) (version.VersionedState, error) {
	v, err := s.Store.LoadVersionedState(ctx, projectID)
	if err != nil {
		return version.VersionedState{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	next := version.RollbackToSnapshot(v, snapshotID)
	if next.CurrentSnapshotID == v.CurrentSnapshotID {
		return next, nil // snapshotID did not resolve; nothing to persist
	}
	if err := s.persistCurrent(ctx, projectID, next); err != nil {
		return version.VersionedState{}, err
	}
	return next, nil
}

// Diff computes the linguistic diff between two stored snapshots of
// projectID.
func (s *Service) Diff(ctx context.Context, projectID ids.ProjectID, fromID, toID ids.SnapshotID) (diff.DiffResult, error) {
	records, err := s.Store.SnapshotRecords(ctx, projectID)
	if err != nil {
		return diff.DiffResult{}, fmt.Errorf("loading snapshots for %s: %w", projectID, err)
	}
	fromRec, ok := records[fromID]
	if !ok {
		return diff.DiffResult{}, fmt.Errorf("snapshot %s not found", fromID)
	}
	toRec, ok := records[toID]
	if !ok {
		return diff.DiffResult{}, fmt.Errorf("snapshot %s not found", toID)
	}
	return diff.ComputeDiff(fromRec.Snapshot.State, toRec.Snapshot.State, fromID, toID), nil
}

// PromoteToTM evaluates the promotion guard and, when allowed, persists a
// fresh TMEntry. The decision is always returned, allowed or not; a denial
// is never an error.
func (s *Service) PromoteToTM(ctx context.Context, target project.TargetSegment, promoCtx tm.PromotionContext, targetText string) (tm.PromotionDecision, error) {
	decision := tm.CanPromoteSegment(target, promoCtx)
	if !decision.Allowed {
		return decision, nil
	}

	entry := tm.NewTMEntry(promoCtx.SourceSegment.SourceText, targetText, promoCtx.Project.ClientID, promoCtx.Project.ID, promoCtx.SnapshotID, s.Clock.NowEpochMs())
	if err := s.Store.SaveTMEntry(ctx, entry); err != nil {
		return decision, fmt.Errorf("saving TM entry: %w", err)
	}
	return decision, nil
}

// BulkPromotionReport summarizes a bulk TM promotion: how many entries were
// inserted, how many the guard skipped (denied), and how many failed at the
// storage layer after the guard had already allowed them.
type BulkPromotionReport struct {
	Inserted int
	Skipped  int
	Failed   int
}

// BulkPromote runs the promotion guard over every target segment of
// projectID in targetLanguage and persists a TMEntry for each allowed one.
// The existing-source-text set is loaded once up front and extended as
// entries are inserted, so a duplicate within the batch is skipped the same
// way a duplicate against the stored TM is. Iteration follows the state's
// target-segment order, so repeated runs over the same state produce the
// same report.
func (s *Service) BulkPromote(ctx context.Context, projectID ids.ProjectID, targetLanguage ids.LanguageCode, adHoc bool) (BulkPromotionReport, error) {
	v, err := s.Store.LoadVersionedState(ctx, projectID)
	if err != nil {
		return BulkPromotionReport{}, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	existing, err := s.Store.ExistingSourceTexts(ctx, v.CurrentState.Project.ClientID)
	if err != nil {
		return BulkPromotionReport{}, fmt.Errorf("loading existing TM entries: %w", err)
	}

	segments := make(map[ids.SegmentID]project.Segment, len(v.CurrentState.Segments))
	for _, seg := range v.CurrentState.Segments {
		segments[seg.ID] = seg
	}

	var report BulkPromotionReport
	for _, target := range v.CurrentState.TargetSegments {
		if target.TargetLanguage != targetLanguage {
			continue
		}
		source, ok := segments[target.SegmentID]
		if !ok {
			continue
		}
		decision := tm.CanPromoteSegment(target, tm.PromotionContext{
			SnapshotID:          v.CurrentSnapshotID,
			Project:             v.CurrentState.Project,
			SourceSegment:       source,
			ExistingSourceTexts: existing,
			IsAdHoc:             adHoc,
		})
		if !decision.Allowed {
			report.Skipped++
			continue
		}
		entry := tm.NewTMEntry(source.SourceText, target.TranslatedText, v.CurrentState.Project.ClientID, projectID, v.CurrentSnapshotID, s.Clock.NowEpochMs())
		if err := s.Store.SaveTMEntry(ctx, entry); err != nil {
			report.Failed++
			continue
		}
		existing[source.SourceText] = struct{}{}
		report.Inserted++
	}
	return report, nil
}

// VerifyIntegrity runs the integrity kernel over every persisted record for
// projectID. The bytes handed to the kernel are the literal stored
// serialization each record carries — never a re-serialization of the parsed
// state, which would mask exactly the on-disk damage verification exists to
// catch.
func (s *Service) VerifyIntegrity(ctx context.Context, projectID ids.ProjectID, verifiedAtEpochMs int64) (integrity.IntegrityReport, error) {
	records, err := s.Store.SnapshotRecords(ctx, projectID)
	if err != nil {
		return integrity.IntegrityReport{}, fmt.Errorf("loading snapshots for %s: %w", projectID, err)
	}
	v, err := s.Store.LoadVersionedState(ctx, projectID)
	if err != nil {
		return integrity.IntegrityReport{}, fmt.Errorf("loading version state for %s: %w", projectID, err)
	}

	persisted := make([]integrity.PersistedRecord, 0, len(records))
	for id, rec := range records {
		persisted = append(persisted, integrity.PersistedRecord{
			SnapshotID: id,
			// The gateway scoped its query to projectID, so that is the
			// project each returned row claims to belong to.
			ProjectID:         projectID,
			SerializedPayload: rec.SerializedPayload,
			StoredChecksum:    rec.StoredChecksum,
		})
	}

	return integrity.VerifySnapshotIntegrity(persisted, projectID, v, verifiedAtEpochMs), nil
}

// commitCandidate generalizes version.CommitSnapshot's dedup-and-parent
// bookkeeping to an already-built candidate state, for harness operations
// (like AddSegment) that are not a TranslationChange.
func commitCandidate(v version.VersionedState, candidate project.ProjectState, snapshotID ids.SnapshotID, createdAtEpochMs int64, label string) version.VersionedState {
	for id, snap := range v.History.Snapshots {
		if version.StatesEqual(snap.State, candidate) {
			newParents := v.History.ParentMap
			if v.CurrentSnapshotID != "" && v.CurrentSnapshotID != id {
				if _, hasParent := v.History.ParentMap[id]; !hasParent {
					newParents = copyParentMap(v.History.ParentMap)
					newParents[id] = v.CurrentSnapshotID
				}
			}
			return version.VersionedState{
				CurrentState:      snap.State,
				CurrentSnapshotID: id,
				History:           version.HistoryGraph{Snapshots: v.History.Snapshots, ParentMap: newParents},
			}
		}
	}

	newSnapshots := copySnapshotMap(v.History.Snapshots)
	newSnapshots[snapshotID] = version.Snapshot{ID: snapshotID, State: candidate, CreatedAtEpochMs: createdAtEpochMs, Label: label}

	newParents := v.History.ParentMap
	if v.CurrentSnapshotID != "" {
		newParents = copyParentMap(v.History.ParentMap)
		newParents[snapshotID] = v.CurrentSnapshotID
	}

	return version.VersionedState{
		CurrentState:      candidate,
		CurrentSnapshotID: snapshotID,
		History:           version.HistoryGraph{Snapshots: newSnapshots, ParentMap: newParents},
	}
}

func copySnapshotMap(m map[ids.SnapshotID]version.Snapshot) map[ids.SnapshotID]version.Snapshot {
	out := make(map[ids.SnapshotID]version.Snapshot, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyParentMap(m map[ids.SnapshotID]ids.SnapshotID) map[ids.SnapshotID]ids.SnapshotID {
	out := make(map[ids.SnapshotID]ids.SnapshotID, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// persistCurrent upserts next's current snapshot record (and, transitively,
// the adapter's current-pointer row) regardless of whether CommitSnapshot
// minted a brand-new snapshot or deduplicated onto an existing one.
func (s *Service) persistCurrent(ctx context.Context, projectID ids.ProjectID, next version.VersionedState) error {
	snap, ok := next.History.Snapshots[next.CurrentSnapshotID]
	if !ok {
		return fmt.Errorf("internal error: current snapshot %s missing from history", next.CurrentSnapshotID)
	}
	parentID, hasParent := next.History.ParentMap[next.CurrentSnapshotID]
	rec, err := toRecord(snap, parentID, hasParent)
	if err != nil {
		return err
	}
	if err := s.Store.SaveSnapshot(ctx, projectID, rec); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func toRecord(snap version.Snapshot, parentID ids.SnapshotID, hasParent bool) (ports.SnapshotRecord, error) {
	payload, err := integrity.SerializeState(snap.State)
	if err != nil {
		return ports.SnapshotRecord{}, fmt.Errorf("serializing snapshot %s: %w", snap.ID, err)
	}
	return ports.SnapshotRecord{
		Snapshot:          snap,
		ParentID:          parentID,
		HasParent:         hasParent,
		SerializedPayload: payload,
		StoredChecksum:    integrity.CalculateSnapshotChecksum(payload),
	}, nil
}
