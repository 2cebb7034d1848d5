package cli

import (
	"context"

	"github.com/roach88/packtrack/internal/pack"
	"github.com/roach88/packtrack/internal/store"
)

// openSession opens the pack at dir with the configured engine settings.
func openSession(ctx context.Context, opts *RootOptions, dir, variant, initScript string) (*pack.Session, error) {
	engineOpts, err := opts.engineOptions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid engine settings", err)
	}

	session, err := pack.OpenDir(ctx, dir, variant, pack.Options{
		InitScript:    initScript,
		Logger:        opts.logger(),
		EngineOptions: engineOpts,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open pack", err)
	}
	return session, nil
}

// openJournal opens the journal at path, falling back to PACKTRACK_JOURNAL.
// It returns nil when neither names a journal.
func openJournal(opts *RootOptions, path string) (*store.Store, error) {
	if path == "" {
		path = opts.Config.Journal
	}
	if path == "" {
		return nil, nil
	}
	journal, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return journal, nil
}
