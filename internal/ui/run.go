// Package ui is the interactive project tree and task list.
package ui

import (
	"context"
	"errors"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/tgienger/tdt/internal/db"
	"github.com/tgienger/tdt/internal/logging"
	"github.com/tgienger/tdt/internal/ui/views"
)

// Options configures Run.
type Options struct {
	Service       Service
	State         *db.DB // optional
	Logger        *log.Logger
	ShowCompleted bool
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	var state views.StateStore
	var filters FilterStore
	if opts.State != nil {
		state, filters = opts.State, opts.State
	}

	watcher, err := watch(opts.Service.Path())
	if err != nil {
		logger.Warn("file watching disabled", "err", err)
	} else {
		defer watcher.Close()
	}

	app := NewApp(opts.Service, state, filters, watcher, logger, opts.ShowCompleted)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// watch watches the directory of path. Saves replace the file through a
// rename, so watching the file itself would lose track after the first save.
func watch(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}
