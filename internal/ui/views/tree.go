package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tdt/internal/projecttree"
	"github.com/tgienger/tdt/internal/ui/keys"
	"github.com/tgienger/tdt/internal/ui/styles"
)

const allTasksLabel = "All tasks"

type treeItem struct {
	name        string
	fullPath    string
	depth       int
	count       int
	hasChildren bool
	collapsed   bool
	all         bool
}

func (i treeItem) FilterValue() string { return i.fullPath }

type treeDelegate struct {
	styles *styles.Styles
	width  int
}

func (d treeDelegate) Height() int                             { return 1 }
func (d treeDelegate) Spacing() int                            { return 0 }
func (d treeDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d treeDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(treeItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	style := d.styles.ListItem.Width(width)
	if index == m.Index() {
		style = d.styles.ListSelected.Width(width)
	}

	chevron := "  "
	switch {
	case it.hasChildren && it.collapsed:
		chevron = "▸ "
	case it.hasChildren:
		chevron = "▾ "
	}

	label := it.name
	if it.all {
		label = allTasksLabel
	}

	line := strings.Repeat("  ", it.depth) +
		d.styles.TreeBranch.Render(chevron) +
		label
	if it.count > 0 || it.all {
		line += " " + d.styles.TreeCount.Render(fmt.Sprintf("%d", it.count))
	}

	_, _ = fmt.Fprint(w, style.Render(line))
}

// TreeView shows the project forest.
type TreeView struct {
	state    StateStore
	todoFile string

	list     list.Model
	delegate *treeDelegate
	styles   *styles.Styles
	keys     keys.KeyMap

	nodes     []projecttree.Node
	taskCount int
	collapsed map[string]bool
	loaded    bool

	width  int
	height int

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewTreeView creates the tree view. state may be nil, in which case
// collapsed nodes are not remembered.
func NewTreeView(state StateStore, todoFile string) *TreeView {
	s := styles.NewStyles()

	delegate := &treeDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)
	// q and esc are handled by the view
	l.KeyMap.Quit.SetEnabled(false)

	return &TreeView{
		state:     state,
		todoFile:  todoFile,
		list:      l,
		delegate:  delegate,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		collapsed: map[string]bool{},
	}
}

type collapsedLoadedMsg struct {
	collapsed map[string]bool
}

// Init loads the remembered collapsed nodes.
func (v *TreeView) Init() tea.Cmd {
	if v.state == nil {
		return nil
	}
	return func() tea.Msg {
		collapsed, err := v.state.CollapsedNodes(v.todoFile)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("load tree state: %w", err)}
		}
		return collapsedLoadedMsg{collapsed: collapsed}
	}
}

// SetData replaces the forest and the total task count.
func (v *TreeView) SetData(nodes []projecttree.Node, taskCount int) {
	v.nodes = nodes
	v.taskCount = taskCount
	v.loaded = true
	v.rebuild()
}

// Collapsed reports whether the node at fullPath is folded.
func (v *TreeView) Collapsed(fullPath string) bool {
	return v.collapsed[fullPath]
}

// Selected returns the full path under the cursor, and false when the
// "All tasks" entry or nothing is selected.
func (v *TreeView) Selected() (string, bool) {
	it, ok := v.list.SelectedItem().(treeItem)
	if !ok || it.all {
		return "", false
	}
	return it.fullPath, true
}

// Rows returns the visible rows as indented labels.
func (v *TreeView) Rows() []string {
	var rows []string
	for _, item := range v.list.Items() {
		it := item.(treeItem)
		if it.all {
			rows = append(rows, allTasksLabel)
			continue
		}
		rows = append(rows, strings.Repeat("  ", it.depth)+it.name)
	}
	return rows
}

func (v *TreeView) rebuild() {
	prev := ""
	if it, ok := v.list.SelectedItem().(treeItem); ok {
		prev = it.fullPath
	}

	items := []list.Item{treeItem{all: true, count: v.taskCount}}
	projecttree.Walk(v.nodes, func(n projecttree.Node, depth int) bool {
		items = append(items, treeItem{
			name:        n.Name,
			fullPath:    n.FullPath,
			depth:       depth,
			count:       n.DirectCount,
			hasChildren: len(n.Children) > 0,
			collapsed:   v.collapsed[n.FullPath],
		})
		return !v.collapsed[n.FullPath]
	})
	v.list.SetItems(items)

	for i, item := range items {
		if it := item.(treeItem); !it.all && it.fullPath == prev {
			v.list.Select(i)
			return
		}
	}
	if v.list.Index() >= len(items) {
		v.list.Select(len(items) - 1)
	}
}

// Update handles messages
func (v *TreeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case collapsedLoadedMsg:
		v.collapsed = msg.collapsed
		v.rebuild()
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		// While typing a filter every key belongs to the list
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back) && v.list.FilterState() != list.FilterApplied:
			return v, nil
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if it, ok := v.list.SelectedItem().(treeItem); ok {
				return v, func() tea.Msg {
					return SelectedNode{FullPath: it.fullPath}
				}
			}
			return v, nil
		case key.Matches(msg, v.keys.Collapse):
			return v, v.toggleSelected()
		case key.Matches(msg, v.keys.Left):
			return v, v.collapseOrParent()
		case key.Matches(msg, v.keys.Right):
			if it, ok := v.list.SelectedItem().(treeItem); ok && it.hasChildren && it.collapsed {
				return v, v.setCollapsed(it.fullPath, false)
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *TreeView) toggleSelected() tea.Cmd {
	it, ok := v.list.SelectedItem().(treeItem)
	if !ok || !it.hasChildren {
		return nil
	}
	return v.setCollapsed(it.fullPath, !it.collapsed)
}

func (v *TreeView) collapseOrParent() tea.Cmd {
	it, ok := v.list.SelectedItem().(treeItem)
	if !ok || it.all {
		return nil
	}
	if it.hasChildren && !it.collapsed {
		return v.setCollapsed(it.fullPath, true)
	}

	parent := projecttree.ParsePath(it.fullPath)
	if len(parent) < 2 {
		return nil
	}
	parentPath := parent[:len(parent)-1].String()
	for i, item := range v.list.Items() {
		if p := item.(treeItem); !p.all && p.fullPath == parentPath {
			v.list.Select(i)
			break
		}
	}
	return nil
}

func (v *TreeView) setCollapsed(fullPath string, collapsed bool) tea.Cmd {
	if collapsed {
		v.collapsed[fullPath] = true
	} else {
		delete(v.collapsed, fullPath)
	}
	v.rebuild()

	if v.state == nil {
		return nil
	}
	state, file := v.state, v.todoFile
	return func() tea.Msg {
		if err := state.SetCollapsed(file, fullPath, collapsed); err != nil {
			return ErrMsg{Err: fmt.Errorf("save tree state: %w", err)}
		}
		return nil
	}
}

// View renders the view
func (v *TreeView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	content := v.list.View()
	if len(v.nodes) == 0 {
		content += "\n" + v.styles.TitleMuted.Render("  No +projects yet. Tag a task like +home---errands.")
	}
	content += "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *TreeView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s fold • %s filter • %s help • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("?"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TreeView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      show tasks of node",
		s.HelpKey.Render("space") + "  fold / unfold",
		s.HelpKey.Render("←/h") + "    fold or go to parent",
		s.HelpKey.Render("→/l") + "    unfold",
		s.HelpKey.Render("/") + "      filter projects",
		s.HelpKey.Render("q") + "      quit",
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
