package ir

// Version constants for journal records.
const (
	// SnapshotVersion is the layout version of Snapshot.
	SnapshotVersion = "1"

	// EngineVersion is the packtrack engine version.
	EngineVersion = "0.1.0"
)
