// Package service exposes todo list operations to the CLI and the TUI.
//
// Each mutating call persists the whole list before returning the
// post-mutation snapshot. Calls are serialized inside the process with a
// mutex and across processes with an advisory lock file next to the todo
// file. Under that lock every mutation first re-reads the file, so changes
// written by other processes are merged in rather than overwritten. Tasks
// whose line did not change keep their ids across those re-reads.
package service

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/tgienger/tdt/internal/logging"
	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/projecttree"
	"github.com/tgienger/tdt/internal/todotxt"
)

const lockSuffix = ".lock"

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for load and save events.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithoutLock disables the advisory lock file.
func WithoutLock() Option {
	return func(s *Service) { s.lockEnabled = false }
}

// Service owns the in-memory list for one todo file.
type Service struct {
	mu          sync.Mutex
	path        string
	list        *todotxt.List
	lock        *flock.Flock
	lockEnabled bool
	logger      *log.Logger

	// digest of the file content as last read or written
	sum [sha256.Size]byte
}

// Open loads the todo file at path. A missing file yields an empty list
// that is created on the first mutation.
func Open(path string, opts ...Option) (*Service, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	s := &Service{
		path:        path,
		lockEnabled: true,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lockEnabled {
		s.lock = flock.New(path + lockSuffix)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.withFileLock(s.load); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the todo file path.
func (s *Service) Path() string {
	return s.path
}

// Close releases the lock file handle.
func (s *Service) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Close()
}

// FetchAll returns every task in file order.
func (s *Service) FetchAll() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.FromTasks(s.list.Tasks())
}

// Get returns a single task.
func (s *Service) Get(id uint64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.list.Get(id)
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %d", todotxt.ErrNotFound, id)
	}
	return models.FromTask(t), nil
}

// Tree returns the project forest of the current list.
func (s *Service) Tree() []projecttree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	return projecttree.Build(s.list.ProjectTags())
}

// Add appends a task parsed from text.
func (s *Service) Add(text string) ([]models.Task, error) {
	return s.mutate("add", func(l *todotxt.List) error {
		t := l.Add(text)
		s.logger.Debug("added task", "id", t.ID)
		return nil
	})
}

// Toggle flips the completion state of a task.
func (s *Service) Toggle(id uint64) ([]models.Task, error) {
	return s.mutate("toggle", func(l *todotxt.List) error {
		finished, err := l.Toggle(id)
		if err != nil {
			return err
		}
		s.logger.Debug("toggled task", "id", id, "finished", finished)
		return nil
	})
}

// Complete marks a task finished.
func (s *Service) Complete(id uint64) ([]models.Task, error) {
	return s.mutate("complete", func(l *todotxt.List) error {
		return l.Complete(id)
	})
}

// Uncomplete marks a task pending.
func (s *Service) Uncomplete(id uint64) ([]models.Task, error) {
	return s.mutate("uncomplete", func(l *todotxt.List) error {
		return l.Uncomplete(id)
	})
}

// Delete removes a task.
func (s *Service) Delete(id uint64) ([]models.Task, error) {
	return s.mutate("delete", func(l *todotxt.List) error {
		_, err := l.Remove(id)
		return err
	})
}

// Edit replaces a task's line with text, keeping its id.
func (s *Service) Edit(id uint64, text string) ([]models.Task, error) {
	return s.mutate("edit", func(l *todotxt.List) error {
		t, ok := l.Get(id)
		if !ok {
			return fmt.Errorf("%w: %d", todotxt.ErrNotFound, id)
		}
		parsed := todotxt.Parse(text)
		parsed.ID = t.ID
		*t = parsed
		return nil
	})
}

// SetPriority changes a task's priority. PriorityNone clears it.
func (s *Service) SetPriority(id uint64, p todotxt.Priority) ([]models.Task, error) {
	return s.mutate("priority", func(l *todotxt.List) error {
		t, ok := l.Get(id)
		if !ok {
			return fmt.Errorf("%w: %d", todotxt.ErrNotFound, id)
		}
		t.SetPriority(p)
		return nil
	})
}

// Reload re-reads the todo file. Tasks whose line is unchanged keep their
// ids; new or edited lines get fresh ones.
func (s *Service) Reload() ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withFileLock(func() error {
		_, err := s.sync(true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return models.FromTasks(s.list.Tasks()), nil
}

// ReloadIfChanged reloads only when the file content differs from what this
// service last read or wrote. The bool reports whether a reload happened.
func (s *Service) ReloadIfChanged() ([]models.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed bool
	err := s.withFileLock(func() error {
		var err error
		changed, err = s.sync(false)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return models.FromTasks(s.list.Tasks()), changed, nil
}

func (s *Service) mutate(op string, fn func(*todotxt.List) error) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withFileLock(func() error {
		changed, err := s.sync(false)
		if err != nil {
			return err
		}
		if changed {
			s.logger.Info("merged external changes", "op", op, "path", s.path, "tasks", s.list.Len())
		}
		if err := fn(s.list); err != nil {
			return err
		}
		if err := s.list.Save(); err != nil {
			s.logger.Error("save failed", "op", op, "path", s.path, "err", err)
			return err
		}
		s.sum = sha256.Sum256([]byte(s.list.String()))
		s.logger.Info("saved", "op", op, "path", s.path, "tasks", s.list.Len())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models.FromTasks(s.list.Tasks()), nil
}

// load must run with mu held.
func (s *Service) load() error {
	data, found, err := s.read()
	if err != nil {
		return err
	}
	if !found {
		s.logger.Warn("todo file missing, starting empty", "path", s.path)
	}

	s.list = todotxt.ParseList(string(data))
	s.list.SetPath(s.path)
	s.sum = sha256.Sum256(data)
	s.logger.Debug("loaded", "path", s.path, "tasks", s.list.Len())
	return nil
}

// sync re-reads the file and folds it into the list when its content differs
// from the last read or write, or always when force is set. It must run with
// mu and the file lock held.
func (s *Service) sync(force bool) (bool, error) {
	data, _, err := s.read()
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(data)
	if !force && sum == s.sum {
		return false, nil
	}

	s.list.Refresh(todotxt.ParseList(string(data)))
	s.sum = sum
	s.logger.Debug("reloaded", "path", s.path, "tasks", s.list.Len())
	return true, nil
}

// read returns the file content. A missing file reads as empty.
func (s *Service) read() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading %s: %w", todotxt.ErrIO, s.path, err)
	}
	return data, true, nil
}

func (s *Service) withFileLock(fn func() error) error {
	if s.lock == nil {
		return fn()
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}
