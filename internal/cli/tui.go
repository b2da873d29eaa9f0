package cli

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/tgienger/tdt/internal/db"
	"github.com/tgienger/tdt/internal/logging"
	"github.com/tgienger/tdt/internal/ui"
)

// runTUI is swapped in tests.
var runTUI = ui.Run

func (a *app) tuiCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("tui", flag.ContinueOnError),
		Usage: "tui",
		Short: "Open the interactive view (default)",
		Long:  "Open the project tree and task list. Press ? inside for key bindings.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return a.execTUI(ctx, o)
		},
	}
}

func (a *app) execTUI(ctx context.Context, o *IO) (err error) {
	logger, closer := a.fileLogger(o)
	defer func() { _ = closer.Close() }()

	svc, err := a.openService(logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, svc.Close())
	}()

	var store *db.DB
	if s, dbErr := a.openStateDB(); dbErr != nil {
		o.Warn("%v (tree state will not be saved)", dbErr)
		logger.Warn("state db unavailable", "err", dbErr)
	} else {
		store = s
		defer func() { _ = store.Close() }()
		if err := store.TouchRecentFile(svc.Path()); err != nil {
			logger.Warn("record recent file", "err", err)
		}
	}

	logger.Info("starting tui", "file", svc.Path())
	return runTUI(ctx, ui.Options{
		Service:       svc,
		State:         store,
		Logger:        logger,
		ShowCompleted: a.cfg.ShowCompleted,
	})
}

// fileLogger logs to the configured log file, since the terminal belongs to
// the TUI. Without a usable log file, logs are dropped.
func (a *app) fileLogger(o *IO) (*log.Logger, io.Closer) {
	if a.cfg.LogFile == "" {
		return logging.Discard(), nopCloser{}
	}
	logger, closer, err := logging.OpenFile(a.cfg.LogFile, a.cfg.LogLevel)
	if err != nil {
		o.Warn("%v (logging disabled)", err)
		return logging.Discard(), nopCloser{}
	}
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
