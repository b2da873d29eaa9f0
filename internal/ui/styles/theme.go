package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a palette of adaptive colors. Each color picks its light or
// dark variant from the terminal background.
type Theme struct {
	Name string

	Background    lipgloss.AdaptiveColor
	Foreground    lipgloss.AdaptiveColor
	ForegroundDim lipgloss.AdaptiveColor

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Accent    lipgloss.AdaptiveColor

	// Priority badges A, B and C, in that order
	Error   lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor

	Border      lipgloss.AdaptiveColor
	BorderFocus lipgloss.AdaptiveColor
	Selection   lipgloss.AdaptiveColor
}

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Tokyo pairs Tokyo Night on dark terminals with Tokyo Day on light ones.
var Tokyo = Theme{
	Name: "Tokyo",

	Background:    adaptive("#e1e2e7", "#1a1b26"),
	Foreground:    adaptive("#3760bf", "#c0caf5"),
	ForegroundDim: adaptive("#848cb5", "#565f89"),

	Primary:   adaptive("#2e7de9", "#7aa2f7"),
	Secondary: adaptive("#9854f1", "#bb9af7"),
	Accent:    adaptive("#007197", "#7dcfff"),

	Error:   adaptive("#f52a65", "#f7768e"),
	Warning: adaptive("#8c6c3e", "#e0af68"),
	Success: adaptive("#587539", "#9ece6a"),

	Border:      adaptive("#a8aecb", "#3b4261"),
	BorderFocus: adaptive("#2e7de9", "#7aa2f7"),
	Selection:   adaptive("#b7c1e3", "#33467c"),
}

// Current holds the active theme
var Current = Tokyo

// MaxWidth is the maximum content width for the app (classic terminal width)
const MaxWidth = 80

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	// Lists
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	// Tree
	TreeBranch lipgloss.Style
	TreeCount  lipgloss.Style

	// Boxes and buttons
	Popup         lipgloss.Style
	Button        lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Task badges
	PriorityA lipgloss.Style
	PriorityB lipgloss.Style
	PriorityC lipgloss.Style
	Project   lipgloss.Style
	Context   lipgloss.Style
	Done      lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Help text
	Help    lipgloss.Style
	HelpKey lipgloss.Style

	// Status line
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
}

func badge(bg lipgloss.AdaptiveColor) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(Current.Background).
		Background(bg).
		Padding(0, 1).
		Bold(true)
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 2).
			Bold(true),

		TreeBranch: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		TreeCount: lipgloss.NewStyle().
			Foreground(t.Accent),

		Popup: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		PriorityA: badge(t.Error),
		PriorityB: badge(t.Warning),
		PriorityC: badge(t.Success),

		Project: lipgloss.NewStyle().
			Foreground(t.Secondary),

		Context: lipgloss.NewStyle().
			Foreground(t.Accent),

		Done: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		StatusError: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),
	}
}

// PriorityBadge returns the badge style for a priority letter. Only A, B
// and C get a badge.
func (s *Styles) PriorityBadge(label string) (lipgloss.Style, bool) {
	switch label {
	case "A":
		return s.PriorityA, true
	case "B":
		return s.PriorityB, true
	case "C":
		return s.PriorityC, true
	}
	return lipgloss.Style{}, false
}
