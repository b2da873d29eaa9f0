package views

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/projecttree"
	"github.com/tgienger/tdt/internal/todotxt"
)

// Store is the task source the views read from and mutate.
type Store interface {
	Path() string
	Tree() []projecttree.Node
	Add(text string) ([]models.Task, error)
	Toggle(id uint64) ([]models.Task, error)
	Delete(id uint64) ([]models.Task, error)
	Edit(id uint64, text string) ([]models.Task, error)
	SetPriority(id uint64, p todotxt.Priority) ([]models.Task, error)
}

// StateStore persists view state between runs, keyed by todo file.
type StateStore interface {
	CollapsedNodes(todoFile string) (map[string]bool, error)
	SetCollapsed(todoFile, fullPath string, collapsed bool) error
}

// DataMsg carries a fresh snapshot of the list.
type DataMsg struct {
	Tasks []models.Task
	Tree  []projecttree.Node
}

// ErrMsg reports a failed operation.
type ErrMsg struct {
	Err error
}

// StatusMsg is a short informational message for the status line.
type StatusMsg string

// SelectedNode opens the task list filtered to a project node.
// An empty FullPath means all tasks.
type SelectedNode struct {
	FullPath string
}

// BackToTree signals to go back to the project tree.
type BackToTree struct{}

// mutation runs op and turns its outcome into a DataMsg or an ErrMsg.
func mutation(store Store, op func() ([]models.Task, error)) tea.Cmd {
	return func() tea.Msg {
		tasks, err := op()
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DataMsg{Tasks: tasks, Tree: store.Tree()}
	}
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
