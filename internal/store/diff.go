package store

import (
	"context"
	"fmt"

	"github.com/roach88/packtrack/internal/ir"
)

// Change is a node whose level differs between two runs. An empty From or
// To means the node is absent on that side.
type Change struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Diff compares the snapshots of two runs. Changes follow the order of the
// later snapshot, then nodes only the earlier one had.
func (s *Store) Diff(ctx context.Context, fromToken, toToken string) ([]Change, error) {
	from, err := s.runSnapshot(ctx, fromToken)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	to, err := s.runSnapshot(ctx, toToken)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	return DiffSnapshots(from, to), nil
}

func (s *Store) runSnapshot(ctx context.Context, token string) (ir.Snapshot, error) {
	run, err := s.ReadRun(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(ctx, run.SnapshotHash)
}

// DiffSnapshots compares two snapshots node by node.
func DiffSnapshots(from, to ir.Snapshot) []Change {
	type key struct{ kind, path string }

	before := make(map[key]string, len(from))
	for _, e := range from {
		before[key{e.Kind, e.Path}] = e.Level
	}

	changes := []Change{}
	seen := make(map[key]bool, len(to))
	for _, e := range to {
		k := key{e.Kind, e.Path}
		seen[k] = true
		if prev, ok := before[k]; !ok || prev != e.Level {
			changes = append(changes, Change{Kind: e.Kind, Path: e.Path, From: prev, To: e.Level})
		}
	}
	for _, e := range from {
		if !seen[key{e.Kind, e.Path}] {
			changes = append(changes, Change{Kind: e.Kind, Path: e.Path, From: e.Level})
		}
	}
	return changes
}
