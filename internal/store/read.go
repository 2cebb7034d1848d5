package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/packtrack/internal/ir"
)

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// HistoryEntry is the level of one path in one run.
type HistoryEntry struct {
	Run   Run
	Kind  string
	Level string
}

const runColumns = `r.id, r.seq, r.variant, r.label, r.snapshot_hash, r.engine_version`

// Runs returns every run in seq order.
//
// Returns an empty slice (not nil) for an empty journal.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a run by token.
func (s *Store) ReadRun(ctx context.Context, token string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		WHERE r.id = ?
	`, token)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", token, ErrNotFound)
	}
	return run, err
}

// Snapshot returns the stored snapshot with the given hash.
func (s *Store) Snapshot(ctx context.Context, hash string) (ir.Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE hash = ?`, hash).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return unmarshalSnapshot(body, hash)
}

// History returns the level of path in every run that contains it, in seq
// order.
func (s *Store) History(ctx context.Context, path string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`, l.kind, l.level
		FROM runs r
		JOIN levels l ON l.snapshot_hash = r.snapshot_hash
		WHERE l.path = ?
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC, l.ord ASC
	`, path)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.Run.Token, &e.Run.Seq, &e.Run.Variant, &e.Run.Label, &e.Run.SnapshotHash, &e.Run.EngineVersion,
			&e.Kind, &e.Level,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(&run.Token, &run.Seq, &run.Variant, &run.Label, &run.SnapshotHash, &run.EngineVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}
