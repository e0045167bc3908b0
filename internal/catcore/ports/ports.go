// Package ports declares the narrow contracts the pure core is evaluated
// against but never calls directly. Every concrete implementation lives in
// the domain stack (internal/storage, internal/clock, internal/idgen); the core only ever sees
// values these contracts already produced (an ids.SnapshotID, a time in
// epoch milliseconds), never the contracts themselves.
package ports

import (
	"context"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/tm"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
)

// Clock supplies the current time as epoch milliseconds. All core types
// take a timestamp as a plain int64 parameter; Clock exists only so callers
// have one place to inject a fixed time in tests.
type Clock interface {
	NowEpochMs() int64
}

// IDGenerator mints fresh opaque IDs. The core never generates its own IDs —
// every ID a TranslationChange or Snapshot carries was minted by a caller
// through this interface (or a test fixture) beforehand.
type IDGenerator interface {
	NewSnapshotID() ids.SnapshotID
	NewTargetSegmentID() ids.TargetSegmentID
}

// SnapshotRecord is the persisted form of one version.Snapshot: its parsed
// state, its parent (if any), the exact serialized bytes the adapter wrote
// to disk, and the checksum computed over those bytes at commit time.
// Integrity verification runs over SerializedPayload, never over a
// re-serialization of Snapshot.State — the stored bytes are the record of
// fact; the parsed struct is a convenience that may be zero when the stored
// bytes no longer parse.
type SnapshotRecord struct {
	Snapshot          version.Snapshot
	ParentID          ids.SnapshotID // empty for a root
	HasParent         bool
	SerializedPayload []byte
	StoredChecksum    string
}

// PersistenceGateway is the storage boundary the CLI harness calls through.
// The Save* methods execute single writes; LoadVersionedState, SnapshotRecords
// and ExistingSourceTexts execute reads; RunInTransaction
// scopes a sequence of writes to one atomic unit, mirroring the single-writer
// discipline the pure core assumes exists but never implements itself.
type PersistenceGateway interface {
	// SaveSnapshot persists one new or updated SnapshotRecord for projectID.
	SaveSnapshot(ctx context.Context, projectID ids.ProjectID, rec SnapshotRecord) error
	// LoadVersionedState reconstructs the full VersionedState for projectID
	// from every SnapshotRecord stored for it.
	LoadVersionedState(ctx context.Context, projectID ids.ProjectID) (version.VersionedState, error)
	// SnapshotRecords returns every stored SnapshotRecord for projectID, keyed
	// by snapshot ID, for integrity verification.
	SnapshotRecords(ctx context.Context, projectID ids.ProjectID) (map[ids.SnapshotID]SnapshotRecord, error)

	// SaveTMEntry persists a promoted tm.TMEntry. Implementations enforce the
	// (clientID, sourceText) natural key independently of CanPromoteSegment's
	// own duplicate check; neither layer trusts the other.
	SaveTMEntry(ctx context.Context, entry tm.TMEntry) error
	// ExistingSourceTexts returns the set of source texts already promoted
	// for clientID, for building a tm.PromotionContext.
	ExistingSourceTexts(ctx context.Context, clientID ids.ClientID) (map[string]struct{}, error)

	// RunInTransaction scopes fn to one atomic unit of work against the
	// gateway; fn's own calls must go through tx, not the outer gateway.
	RunInTransaction(ctx context.Context, fn func(tx PersistenceGateway) error) error

	Close() error
}

// ExistingSourceTextLookup is the narrow slice of PersistenceGateway the TM
// promotion flow actually needs, so callers that only promote segments don't
// have to depend on the full gateway surface.
type ExistingSourceTextLookup interface {
	ExistingSourceTexts(ctx context.Context, clientID ids.ClientID) (map[string]struct{}, error)
}
