package storage

import "jitvault/internal/model"

// CycleSink receives completed swap-cycle records.
type CycleSink interface {
	PutCycle(record model.CycleRecord) error
}

// SnapshotSink receives vault snapshots.
type SnapshotSink interface {
	PutSnapshot(snapshot model.VaultSnapshot) error
}
