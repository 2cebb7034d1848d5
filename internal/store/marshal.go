package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/packtrack/internal/ir"
)

// ErrCorruptSnapshot reports a stored snapshot whose body no longer matches
// its hash.
var ErrCorruptSnapshot = errors.New("snapshot body does not match its hash")

// snapshotBody is the decoded form of a stored canonical snapshot.
type snapshotBody struct {
	Version string          `json:"version"`
	Entries []ir.LevelEntry `json:"entries"`
}

// marshalSnapshot returns the canonical body and content hash of s.
func marshalSnapshot(s ir.Snapshot) (body, hash string, err error) {
	data, err := s.MarshalCanonical()
	if err != nil {
		return "", "", fmt.Errorf("marshal snapshot: %w", err)
	}
	hash, err = ir.SnapshotHash(s)
	if err != nil {
		return "", "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), hash, nil
}

// unmarshalSnapshot parses a stored body and checks it against hash.
func unmarshalSnapshot(body, hash string) (ir.Snapshot, error) {
	var decoded snapshotBody
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if decoded.Version != ir.SnapshotVersion {
		return nil, fmt.Errorf("unmarshal snapshot: unsupported version %q", decoded.Version)
	}

	snap := ir.Snapshot(decoded.Entries)
	if snap == nil {
		snap = ir.Snapshot{}
	}
	got, err := ir.SnapshotHash(snap)
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if got != hash {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", hash, ErrCorruptSnapshot)
	}
	return snap, nil
}
