package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/packtrack/internal/ir"
)

// Run is one recorded evaluation.
type Run struct {
	Token         string
	Seq           int64
	Variant       string
	Label         string
	SnapshotHash  string
	EngineVersion string
}

// Record is the input to RecordSnapshot.
type Record struct {
	Variant  string
	Label    string
	Snapshot ir.Snapshot
}

// RecordSnapshot appends a run for rec. The snapshot itself is stored only
// if no earlier run produced the same one; fresh reports whether it was new.
func (s *Store) RecordSnapshot(ctx context.Context, rec Record) (run Run, fresh bool, err error) {
	body, hash, err := marshalSnapshot(rec.Snapshot)
	if err != nil {
		return Run{}, false, fmt.Errorf("record snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, false, fmt.Errorf("record snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	fresh, err = insertSnapshot(ctx, tx, hash, body, rec.Snapshot)
	if err != nil {
		return Run{}, false, fmt.Errorf("record snapshot: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, false, fmt.Errorf("record snapshot: next seq: %w", err)
	}

	run = Run{
		Token:         s.tokens.Generate(),
		Seq:           seq,
		Variant:       rec.Variant,
		Label:         rec.Label,
		SnapshotHash:  hash,
		EngineVersion: ir.EngineVersion,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, variant, label, snapshot_hash, engine_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.Token,
		run.Seq,
		run.Variant,
		run.Label,
		run.SnapshotHash,
		run.EngineVersion,
	)
	if err != nil {
		return Run{}, false, fmt.Errorf("record snapshot: insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, false, fmt.Errorf("record snapshot: commit: %w", err)
	}
	return run, fresh, nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, hash, body string, snap ir.Snapshot) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (hash, version, body)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, ir.SnapshotVersion, body)
	if err != nil {
		return false, fmt.Errorf("insert snapshot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert snapshot: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO levels (snapshot_hash, ord, kind, path, level)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("prepare levels: %w", err)
	}
	defer stmt.Close()

	for i, e := range snap {
		if _, err := stmt.ExecContext(ctx, hash, i, e.Kind, e.Path, e.Level); err != nil {
			return false, fmt.Errorf("insert level %s: %w", e.Path, err)
		}
	}
	return true, nil
}
