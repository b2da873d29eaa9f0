package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/projecttree"
	"github.com/tgienger/tdt/internal/todotxt"
	"github.com/tgienger/tdt/internal/ui/keys"
	"github.com/tgienger/tdt/internal/ui/styles"
)

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// TaskListView shows the tasks under the selected project node
type TaskListView struct {
	store  Store
	styles *styles.Styles
	keys   keys.KeyMap

	all     []models.Task
	visible []models.Task
	project string // full path, "" = all tasks

	width  int
	height int

	// UI state
	cursor      int
	scrollY     int
	searching   bool
	searchInput textinput.Model

	// Task creation/editing
	editing    bool
	editingNew bool
	editID     uint64
	editRaw    string
	editInput  textinput.Model

	// Read-only detail view
	viewingTask bool
	detail      viewport.Model

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     models.Task

	// Show completed tasks mode
	showingCompleted bool

	// Help popup (shown with ?)
	showHelpPopup bool

	// Set when a reload cancels a pending edit or delete.
	notice string
}

// NewTaskListView creates a new task list view
func NewTaskListView(store Store, project string, showCompleted bool) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	edit := textinput.New()
	edit.Placeholder = "(A) Call mom @phone +family"
	edit.CharLimit = 500

	return &TaskListView{
		store:            store,
		styles:           styles.NewStyles(),
		keys:             keys.DefaultKeyMap(),
		project:          project,
		searchInput:      search,
		editInput:        edit,
		detail:           viewport.New(0, 0),
		showingCompleted: showCompleted,
	}
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// SetTasks replaces the task snapshot and refreshes the visible rows. A
// pending delete or edit whose task is gone or changed in the new snapshot
// is cancelled, and TakeNotice reports it.
func (v *TaskListView) SetTasks(tasks []models.Task) {
	v.all = tasks
	if v.confirmingDelete && !v.unchanged(v.deleteTarget.ID, v.deleteTarget.Raw) {
		v.confirmingDelete = false
		v.notice = "task changed on disk, delete cancelled"
	}
	if v.editing && !v.editingNew && !v.unchanged(v.editID, v.editRaw) {
		v.editing = false
		v.editInput.Blur()
		v.notice = "task changed on disk, edit cancelled"
	}
	v.refresh()
}

// TakeNotice returns and clears the message left by SetTasks.
func (v *TaskListView) TakeNotice() string {
	n := v.notice
	v.notice = ""
	return n
}

func (v *TaskListView) unchanged(id uint64, raw string) bool {
	for _, t := range v.all {
		if t.ID == id {
			return t.Raw == raw
		}
	}
	return false
}

// Project returns the full path the view is filtered to.
func (v *TaskListView) Project() string {
	return v.project
}

// Visible returns the rows currently shown, in display order.
func (v *TaskListView) Visible() []models.Task {
	return v.visible
}

// refresh recomputes the visible rows from the snapshot, the project
// filter, the completed toggle and the search query.
func (v *TaskListView) refresh() {
	var candidates []models.Task
	for _, t := range v.all {
		if t.Finished != v.showingCompleted {
			continue
		}
		if v.project != "" && !inProject(t, v.project) {
			continue
		}
		candidates = append(candidates, t)
	}

	query := strings.TrimSpace(v.searchInput.Value())
	if query == "" {
		v.visible = candidates
	} else {
		v.visible = nil
		for _, m := range fuzzy.FindFrom(query, taskSource(candidates)) {
			v.visible = append(v.visible, candidates[m.Index])
		}
	}

	if v.cursor >= len(v.visible) {
		v.cursor = max(0, len(v.visible)-1)
	}
	v.ensureVisible()
}

func inProject(t models.Task, fullPath string) bool {
	for _, p := range t.Projects {
		if projecttree.Matches(p, fullPath) {
			return true
		}
	}
	return false
}

// taskSource adapts tasks for fuzzy matching on the subject.
type taskSource []models.Task

func (s taskSource) String(i int) string { return s[i].Subject }
func (s taskSource) Len() int            { return len(s) }

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.visible) {
		return models.Task{}, false
	}
	return v.visible[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		inputWidth := clamp(contentWidth-10, 20, 70)
		v.editInput.Width = inputWidth
		v.searchInput.Width = clamp(contentWidth-8, 10, 30)
		v.detail.Width = clamp(contentWidth-6, 20, 76)
		v.detail.Height = max(v.height-8, 3)
		v.ensureVisible()
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.searching {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.searching = false
			v.searchInput.Blur()
			v.searchInput.Reset()
			v.refresh()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			v.searching = false
			v.searchInput.Blur()
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.cursor = 0
			v.scrollY = 0
			v.refresh()
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.searchInput.Value() != "" {
			v.searchInput.Reset()
			v.refresh()
			return v, nil
		}
		return v, func() tea.Msg { return BackToTree{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.visible)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if t, ok := v.selected(); ok {
			v.viewingTask = true
			v.detail.SetContent(v.renderDetail(t))
			v.detail.GotoTop()
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selected(); ok {
			v.startEdit(t)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNew()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Toggle):
		if t, ok := v.selected(); ok {
			id := t.ID
			return v, mutation(v.store, func() ([]models.Task, error) { return v.store.Toggle(id) })
		}
		return v, nil

	case key.Matches(msg, v.keys.Priority):
		if t, ok := v.selected(); ok {
			id, p := t.ID, nextPriority(t)
			return v, mutation(v.store, func() ([]models.Task, error) { return v.store.SetPriority(id, p) })
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = t
		}
		return v, nil

	case key.Matches(msg, v.keys.Yank):
		if t, ok := v.selected(); ok {
			raw := t.Raw
			return v, func() tea.Msg {
				if err := writeClipboard(raw); err != nil {
					return ErrMsg{Err: fmt.Errorf("copy to clipboard: %w", err)}
				}
				return StatusMsg("copied: " + raw)
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showingCompleted = !v.showingCompleted
		v.cursor = 0
		v.scrollY = 0
		v.refresh()
		return v, nil
	}

	return v, nil
}

// nextPriority cycles none -> A -> B -> C -> none.
func nextPriority(t models.Task) todotxt.Priority {
	switch {
	case !t.HasPriority():
		return 0
	case t.Priority < 2:
		return todotxt.Priority(t.Priority + 1)
	default:
		return todotxt.PriorityNone
	}
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTarget.ID
		return v, mutation(v.store, func() ([]models.Task, error) { return v.store.Delete(id) })
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		if t, ok := v.selected(); ok {
			v.startEdit(t)
			return v, textinput.Blink
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.detail, cmd = v.detail.Update(msg)
	return v, cmd
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		v.editInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		text := strings.TrimSpace(v.editInput.Value())
		v.editing = false
		v.editInput.Blur()
		if text == "" {
			return v, nil
		}
		if v.editingNew {
			return v, mutation(v.store, func() ([]models.Task, error) { return v.store.Add(text) })
		}
		id := v.editID
		return v, mutation(v.store, func() ([]models.Task, error) { return v.store.Edit(id, text) })
	}

	var cmd tea.Cmd
	v.editInput, cmd = v.editInput.Update(msg)
	return v, cmd
}

func (v *TaskListView) startNew() {
	v.editing = true
	v.editingNew = true
	v.editID = 0
	v.editRaw = ""
	v.editInput.Reset()
	if v.project != "" {
		v.editInput.SetValue(" +" + v.project)
		v.editInput.CursorStart()
	}
	v.editInput.Focus()
}

func (v *TaskListView) startEdit(t models.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = t.ID
	v.editRaw = t.Raw
	v.editInput.SetValue(t.Raw)
	v.editInput.CursorEnd()
	v.editInput.Focus()
}

func (v *TaskListView) ensureVisible() {
	// Each task item is 2 lines + 1 margin = 3 lines
	visibleItems := v.visibleItems()

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *TaskListView) visibleItems() int {
	availableHeight := max(v.height-10, 3)
	return max(availableHeight/3, 1)
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.viewingTask {
		padded := lipgloss.NewStyle().Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				v.detail.View(),
				v.styles.Help.Render(fmt.Sprintf("%s edit • %s back",
					v.styles.HelpKey.Render("e"),
					v.styles.HelpKey.Render("esc"),
				)),
			),
		)
		return styles.CenterView(padded, v.width, v.height)
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	titleText := allTasksLabel
	if v.project != "" {
		titleText = "+" + v.project
	}
	if v.showingCompleted {
		titleText += " (Completed)"
	}
	title := s.Title.Render(titleText) + " " + s.TitleMuted.Render(fmt.Sprintf("%d", len(v.visible)))

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Render(v.searchInput.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, searchBox)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.visible) == 0 {
		if v.showingCompleted {
			return s.TitleMuted.Render("No completed tasks here.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.visible))
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.visible[i], i == v.cursor))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	check := "[ ] "
	subject := task.Subject
	if task.Finished {
		check = "[x] "
		subject = s.Done.Render(subject)
	}

	var badges []string
	if style, ok := s.PriorityBadge(task.PriorityLabel); ok {
		badges = append(badges, style.Render(task.PriorityLabel))
	}
	for _, p := range task.Projects {
		badges = append(badges, s.Project.Render("+"+p))
	}
	for _, c := range task.Contexts {
		badges = append(badges, s.Context.Render("@"+c))
	}
	badgeLine := s.TitleMuted.Render("-")
	if len(badges) > 0 {
		badgeLine = strings.Join(badges, " ")
	}

	lineStyle := s.ListItem.Width(width)
	if selected {
		lineStyle = s.ListSelected.Width(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lineStyle.Render(check+subject),
		lineStyle.Render("    "+badgeLine),
	) + "\n"
}

func (v *TaskListView) renderDetail(t models.Task) string {
	s := v.styles
	label := s.TitleMuted.Render

	orNone := func(values []string, prefix string) string {
		if len(values) == 0 {
			return "None"
		}
		out := make([]string, len(values))
		for i, val := range values {
			out[i] = prefix + val
		}
		return strings.Join(out, " ")
	}

	priority := "None"
	if t.HasPriority() {
		priority = t.PriorityLabel
	}
	status := "Pending"
	if t.Finished {
		status = "Completed"
		if t.FinishedAt != "" {
			status += " on " + t.FinishedAt
		}
	}
	created := t.CreatedAt
	if created == "" {
		created = "Unknown"
	}

	width := max(v.detail.Width, 20)
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Width(width).Render(t.Subject),
		"",
		label("Status"), status,
		"",
		label("Priority"), priority,
		"",
		label("Created"), created,
		"",
		label("Projects"), orNone(t.Projects, "+"),
		"",
		label("Contexts"), orNone(t.Contexts, "@"),
		"",
		label("Line"), lipgloss.NewStyle().Width(width).Render(t.Raw),
	)
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	title := "Edit Task"
	if v.editingNew {
		title = "New Task"
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		s.InputFocused.Render(v.editInput.View()),
		"",
		s.TitleMuted.Render("Enter: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	completedLabel := "done"
	if v.showingCompleted {
		completedLabel = "pending"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s toggle • %s new • %s edit • %s del • %s pri • %s search • %s %s • %s back • %s help",
			v.styles.HelpKey.Render("x"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("c"),
			completedLabel,
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("?"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	// Dynamic label for 'c' key based on current mode
	completedLabel := "show completed"
	if v.showingCompleted {
		completedLabel = "show pending"
	}

	helpItems := []string{
		s.HelpKey.Render("↵") + "        view task",
		s.HelpKey.Render("space/x") + "  toggle done",
		s.HelpKey.Render("n") + "        new task",
		s.HelpKey.Render("e") + "        edit line",
		s.HelpKey.Render("d") + "        delete task",
		s.HelpKey.Render("p") + "        cycle priority",
		s.HelpKey.Render("y") + "        copy line",
		s.HelpKey.Render("/") + "        fuzzy search",
		s.HelpKey.Render("c") + "        " + completedLabel,
		s.HelpKey.Render("esc") + "      back",
		s.HelpKey.Render("q") + "        quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(v.deleteTarget.Subject),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
