package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/testutil"
)

// createTestStore opens a journal in a temp dir with reproducible run tokens.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path, WithTokenGenerator(testutil.NewSequentialTokens("")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// snapshot builds a snapshot from alternating path, level arguments. Paths
// containing a slash are sections.
func snapshot(levels ...string) ir.Snapshot {
	var snap ir.Snapshot
	for i := 0; i+1 < len(levels); i += 2 {
		kind := ir.KindLocation
		if strings.Contains(levels[i], "/") {
			kind = ir.KindSection
		}
		snap = append(snap, ir.LevelEntry{Kind: kind, Path: levels[i], Level: levels[i+1]})
	}
	return snap
}

func mustRecord(t *testing.T, s *Store, rec Record) Run {
	t.Helper()
	run, _, err := s.RecordSnapshot(context.Background(), rec)
	if err != nil {
		t.Fatalf("RecordSnapshot() failed: %v", err)
	}
	return run
}
