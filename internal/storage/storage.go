// Package storage re-exports the persistence contract the pure core is
// evaluated against, so concrete adapters (internal/storage/sqlite,
// internal/storage/memory) and their callers (cmd/cattrans) can all import
// one stable name instead of reaching into internal/catcore/ports directly.
package storage

import "github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"

// PersistenceGateway is ports.PersistenceGateway, re-exported.
type PersistenceGateway = ports.PersistenceGateway

// SnapshotRecord is ports.SnapshotRecord, re-exported.
type SnapshotRecord = ports.SnapshotRecord
