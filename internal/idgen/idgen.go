// Package idgen supplies the one-line IDGenerator implementation the CLI
// harness injects into the core; the pure core never mints its own IDs.
package idgen

import (
	"github.com/google/uuid"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"
)

// UUID is a ports.IDGenerator backed by random (v4) UUIDs.
type UUID struct{}

var _ ports.IDGenerator = UUID{}

// NewSnapshotID mints a fresh, random ids.SnapshotID.
func (UUID) NewSnapshotID() ids.SnapshotID {
	return ids.SnapshotID(uuid.NewString())
}

// NewTargetSegmentID mints a fresh, random ids.TargetSegmentID.
func (UUID) NewTargetSegmentID() ids.TargetSegmentID {
	return ids.TargetSegmentID(uuid.NewString())
}
