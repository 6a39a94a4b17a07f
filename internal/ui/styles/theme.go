package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Current holds the active theme
var Current = TokyoNight

// MaxWidth is the maximum content width for the app (classic terminal width)
const MaxWidth = 80

// ContentWidth returns the actual content width to use
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	Completed    lipgloss.Style

	PriorityHigh   lipgloss.Style
	PriorityMedium lipgloss.Style
	PriorityLow    lipgloss.Style

	Tag lipgloss.Style

	FormLabel  lipgloss.Style
	FieldError lipgloss.Style
	StatusErr  lipgloss.Style
	StatusInfo lipgloss.Style
	Help       lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	ToolCall         lipgloss.Style

	Dialog lipgloss.Style
}

// NewStyles creates the style set from the current theme
func NewStyles() *Styles {
	t := Current
	return &Styles{
		Title:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		TitleMuted: lipgloss.NewStyle().Foreground(t.ForegroundDim),

		ListItem:     lipgloss.NewStyle().Foreground(t.Foreground),
		ListSelected: lipgloss.NewStyle().Foreground(t.Foreground).Background(t.Selection).Bold(true),
		Completed:    lipgloss.NewStyle().Foreground(t.ForegroundDim).Strikethrough(true),

		PriorityHigh:   lipgloss.NewStyle().Foreground(t.Error),
		PriorityMedium: lipgloss.NewStyle().Foreground(t.Warning),
		PriorityLow:    lipgloss.NewStyle().Foreground(t.ForegroundDim),

		Tag: lipgloss.NewStyle().Foreground(t.Secondary),

		FormLabel:  lipgloss.NewStyle().Foreground(t.Primary),
		FieldError: lipgloss.NewStyle().Foreground(t.Error),
		StatusErr:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		StatusInfo: lipgloss.NewStyle().Foreground(t.ForegroundDim),
		Help:       lipgloss.NewStyle().Foreground(t.ForegroundDim),

		UserMessage:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		AssistantMessage: lipgloss.NewStyle().Foreground(t.Foreground),
		ToolCall:         lipgloss.NewStyle().Foreground(t.Secondary).Italic(true),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(1, 2),
	}
}
