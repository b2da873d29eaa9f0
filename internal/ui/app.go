package ui

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/projecttree"
	"github.com/tgienger/tdt/internal/ui/styles"
	"github.com/tgienger/tdt/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTree View = iota
	ViewTasks
)

// Service is what the app needs from the task service.
type Service interface {
	views.Store
	FetchAll() []models.Task
	ReloadIfChanged() ([]models.Task, bool, error)
}

// FilterStore remembers the open project node per todo file.
type FilterStore interface {
	ActiveFilter(todoFile string) (string, error)
	SetActiveFilter(todoFile, fullPath string) error
}

type App struct {
	svc     Service
	filters FilterStore
	logger  *log.Logger
	watcher *fsnotify.Watcher

	showCompleted bool

	currentView View
	tree        *views.TreeView
	taskList    *views.TaskListView
	tasks       []models.Task
	width       int
	height      int

	status    string
	statusErr bool
}

type fileChangedMsg struct{}

type watchErrMsg struct {
	err error
}

type initialMsg struct {
	data   views.DataMsg
	filter string
}

// NewApp creates a new application. state, filters and watcher may be nil.
func NewApp(svc Service, state views.StateStore, filters FilterStore, watcher *fsnotify.Watcher, logger *log.Logger, showCompleted bool) *App {
	return &App{
		svc:           svc,
		filters:       filters,
		logger:        logger,
		watcher:       watcher,
		showCompleted: showCompleted,
		currentView:   ViewTree,
		tree:          views.NewTreeView(state, svc.Path()),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.tree.Init(), a.loadInitial, a.waitForFileChange())
}

func (a *App) loadInitial() tea.Msg {
	tasks := a.svc.FetchAll()
	msg := initialMsg{data: views.DataMsg{Tasks: tasks, Tree: a.svc.Tree()}}

	// Check for the last opened project node
	if a.filters != nil {
		filter, err := a.filters.ActiveFilter(a.svc.Path())
		if err != nil {
			a.logger.Warn("load active filter", "err", err)
		} else if _, ok := projecttree.Find(msg.data.Tree, filter); ok {
			msg.filter = filter
		}
	}
	return msg
}

func (a *App) openNode(fullPath string) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.svc, fullPath, a.showCompleted)
	a.taskList.SetTasks(a.tasks)
	a.saveFilter(fullPath)

	// Initialize task list with window size
	return tea.Batch(
		a.taskList.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) saveFilter(fullPath string) {
	if a.filters == nil {
		return
	}
	if err := a.filters.SetActiveFilter(a.svc.Path(), fullPath); err != nil {
		a.logger.Warn("save active filter", "err", err)
	}
}

func (a *App) applyData(msg views.DataMsg) {
	a.tasks = msg.Tasks
	a.tree.SetData(msg.Tree, len(msg.Tasks))
	if a.taskList != nil {
		a.taskList.SetTasks(msg.Tasks)
		if notice := a.taskList.TakeNotice(); notice != "" {
			a.status, a.statusErr = notice, false
		}
	}
}

// waitForFileChange blocks until the todo file changes on disk.
func (a *App) waitForFileChange() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	w, name := a.watcher, filepath.Clean(a.svc.Path())
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					return fileChangedMsg{}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func (a *App) reload() tea.Msg {
	tasks, changed, err := a.svc.ReloadIfChanged()
	if err != nil {
		return views.ErrMsg{Err: err}
	}
	if !changed {
		return nil
	}
	a.logger.Info("reloaded after external change", "path", a.svc.Path(), "tasks", len(tasks))
	return views.DataMsg{Tasks: tasks, Tree: a.svc.Tree()}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update tree size since it persists
		a.tree.Update(msg)
		if a.taskList != nil {
			a.taskList.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		a.status = ""

	case initialMsg:
		a.applyData(msg.data)
		if msg.filter != "" {
			return a, a.openNode(msg.filter)
		}
		return a, nil

	case views.DataMsg:
		a.applyData(msg)
		return a, nil

	case views.ErrMsg:
		a.logger.Error("operation failed", "err", msg.Err)
		a.status, a.statusErr = msg.Err.Error(), true
		return a, nil

	case views.StatusMsg:
		a.status, a.statusErr = string(msg), false
		return a, nil

	case fileChangedMsg:
		return a, tea.Batch(a.reload, a.waitForFileChange())

	case watchErrMsg:
		a.logger.Warn("file watcher error", "err", msg.err)
		return a, a.waitForFileChange()

	case views.SelectedNode:
		return a, a.openNode(msg.FullPath)

	case views.BackToTree:
		a.currentView = ViewTree
		a.taskList = nil
		a.saveFilter("")
		return a, func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTree:
		_, cmd = a.tree.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	var content string
	switch {
	case a.currentView == ViewTasks && a.taskList != nil:
		content = a.taskList.View()
	default:
		content = a.tree.View()
	}

	if a.status == "" {
		return content
	}
	s := styles.NewStyles()
	line := s.StatusBar.Render(a.status)
	if a.statusErr {
		line = s.StatusError.Render("error: " + a.status)
	}
	return content + "\n" + line
}
