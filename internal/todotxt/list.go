package todotxt

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
)

const defaultFileMode os.FileMode = 0o644

// List is an ordered todo.txt file. Ids are assigned on insertion and never
// reused, even after a task is removed.
//
// A List is not safe for concurrent use.
type List struct {
	tasks  []*Task
	nextID uint64
	path   string
}

// New returns an empty list that is not bound to a file.
func New() *List {
	return &List{nextID: 1}
}

// ParseList builds a list from todo.txt text, skipping blank lines.
func ParseList(text string) *List {
	l := New()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		l.insert(Parse(line))
	}
	return l
}

// Load reads a whole todo.txt document from r.
func Load(r io.Reader) (*List, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return ParseList(string(data)), nil
}

// LoadFile reads the file at path and binds the list to it.
func LoadFile(path string) (*List, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrIO, path, err)
	}
	l := ParseList(string(data))
	l.path = path
	return l, nil
}

// Path returns the bound file path, or "" if unbound.
func (l *List) Path() string {
	return l.path
}

// SetPath binds the list to a file path used by Save.
func (l *List) SetPath(path string) {
	l.path = path
}

// Add parses line, appends it and returns the stored task.
func (l *List) Add(line string) *Task {
	return l.insert(Parse(line))
}

func (l *List) insert(t Task) *Task {
	t.ID = l.nextID
	l.nextID++
	stored := &t
	l.tasks = append(l.tasks, stored)
	return stored
}

// Refresh replaces the tasks of l with those of next, which must not be used
// afterwards. A task whose line is unchanged keeps its id; lines that are new
// or edited get fresh ids. The bound path of l is kept.
func (l *List) Refresh(next *List) {
	known := make(map[string][]uint64, len(l.tasks))
	for _, t := range l.tasks {
		line := t.String()
		known[line] = append(known[line], t.ID)
	}

	tasks := make([]*Task, 0, len(next.tasks))
	var fresh []*Task
	for _, t := range next.tasks {
		line := t.String()
		if ids := known[line]; len(ids) > 0 {
			t.ID = ids[0]
			known[line] = ids[1:]
		} else {
			fresh = append(fresh, t)
		}
		tasks = append(tasks, t)
	}
	for _, t := range fresh {
		t.ID = l.nextID
		l.nextID++
	}
	l.tasks = tasks
}

// Remove deletes the task with the given id and returns it.
func (l *List) Remove(id uint64) (Task, error) {
	i := l.index(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	removed := *l.tasks[i]
	l.tasks = slices.Delete(l.tasks, i, i+1)
	return removed, nil
}

// Get returns the task with the given id. The returned pointer is live:
// changes through it are saved with the list.
func (l *List) Get(id uint64) (*Task, bool) {
	i := l.index(id)
	if i < 0 {
		return nil, false
	}
	return l.tasks[i], true
}

// Complete marks a task finished.
func (l *List) Complete(id uint64) error {
	t, ok := l.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	t.Complete()
	return nil
}

// Uncomplete marks a task pending.
func (l *List) Uncomplete(id uint64) error {
	t, ok := l.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	t.Uncomplete()
	return nil
}

// Toggle flips the completion state and returns the new state.
func (l *List) Toggle(id uint64) (bool, error) {
	t, ok := l.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if t.Finished {
		t.Uncomplete()
	} else {
		t.Complete()
	}
	return t.Finished, nil
}

// Tasks returns the tasks in file order.
func (l *List) Tasks() []*Task {
	return slices.Clone(l.tasks)
}

// Pending returns the unfinished tasks in file order.
func (l *List) Pending() []*Task {
	return l.filter(func(t *Task) bool { return !t.Finished })
}

// Done returns the finished tasks in file order.
func (l *List) Done() []*Task {
	return l.filter(func(t *Task) bool { return t.Finished })
}

// Len returns the number of tasks.
func (l *List) Len() int {
	return len(l.tasks)
}

// ProjectTags returns every project tag in the list, duplicates included.
func (l *List) ProjectTags() []string {
	var tags []string
	for _, t := range l.tasks {
		tags = append(tags, t.Projects...)
	}
	return tags
}

// ContextTags returns every context tag in the list, duplicates included.
func (l *List) ContextTags() []string {
	var tags []string
	for _, t := range l.tasks {
		tags = append(tags, t.Contexts...)
	}
	return tags
}

// Save writes the list to its bound path.
func (l *List) Save() error {
	if l.path == "" {
		return ErrNotBound
	}
	return l.SaveTo(l.path)
}

// SaveTo replaces the file at path with the rendered list. The bound path
// is left unchanged. The write goes through a temp file and a rename, so a
// crash leaves either the old or the new content.
func (l *List) SaveTo(path string) error {
	mode := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := atomic.WriteFile(path, strings.NewReader(l.String())); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}

	// atomic.WriteFile creates the temp file with a restrictive mode.
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", ErrIO, path, err)
	}
	return nil
}

// String renders the list, one task per line, joined with "\n".
func (l *List) String() string {
	lines := make([]string, len(l.tasks))
	for i, t := range l.tasks {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}

func (l *List) index(id uint64) int {
	return slices.IndexFunc(l.tasks, func(t *Task) bool { return t.ID == id })
}

func (l *List) filter(keep func(*Task) bool) []*Task {
	var out []*Task
	for _, t := range l.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
