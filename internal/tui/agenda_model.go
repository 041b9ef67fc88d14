package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/tempo/internal/parser"
	"github.com/balkashynov/tempo/internal/schedule"
)

// DayLoader returns the agenda of a day
type DayLoader func(day time.Time) ([]schedule.Entry, error)

// AgendaModel browses day views one day at a time
type AgendaModel struct {
	width  int
	height int

	day     time.Time
	today   time.Time
	entries []schedule.Entry
	err     error
	load    DayLoader

	table   table.Model
	shimmer *Shimmer
}

type dayLoadedMsg struct {
	day     time.Time
	entries []schedule.Entry
	err     error
}

// NewAgendaModel creates an agenda starting at day. today anchors the
// "Today"/"Yesterday" labels and the t key.
func NewAgendaModel(day, today time.Time, load DayLoader) AgendaModel {
	t := table.New(
		table.WithColumns(agendaColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorAccentMain)).
		Bold(true)
	t.SetStyles(styles)

	return AgendaModel{
		day:     day,
		today:   today,
		load:    load,
		table:   t,
		shimmer: NewShimmer(DefaultShimmerConfig()),
	}
}

func agendaColumns(width int) []table.Column {
	note := max(width-13-11-18-8-10, 10)
	return []table.Column{
		{Title: "TIME", Width: 13},
		{Title: "KIND", Width: 11},
		{Title: "CATEGORY", Width: 18},
		{Title: "DUR", Width: 8},
		{Title: "NOTE", Width: note},
	}
}

func (m AgendaModel) loadDay(day time.Time) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.load(day)
		return dayLoadedMsg{day: day, entries: entries, err: err}
	}
}

func (m AgendaModel) shimmerTick() tea.Cmd {
	if !m.shimmer.Active() {
		return nil
	}
	return tea.Tick(m.shimmer.Interval(), func(time.Time) tea.Msg { return shimmerTickMsg{} })
}

// Init loads the first day
func (m AgendaModel) Init() tea.Cmd {
	return tea.Batch(m.loadDay(m.day), m.shimmerTick())
}

// Update handles messages
func (m AgendaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dayLoadedMsg:
		m.day = msg.day
		m.entries = msg.entries
		m.err = msg.err
		m.table.SetRows(agendaRows(m.entries))
		m.table.SetCursor(0)
		m.shimmer.Reset()
		return m, nil

	case shimmerTickMsg:
		m.shimmer.Advance(len([]rune(m.title())), time.Now())
		return m, m.shimmerTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		left := m.width * 65 / 100
		m.table.SetColumns(agendaColumns(left - 4))
		m.table.SetHeight(max(m.height-9, 3))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h":
			return m, m.loadDay(m.day.AddDate(0, 0, -1))
		case "right", "l":
			return m, m.loadDay(m.day.AddDate(0, 0, 1))
		case "t":
			return m, m.loadDay(m.today)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Day is the day currently shown
func (m AgendaModel) Day() time.Time {
	return m.day
}

func (m AgendaModel) title() string {
	return parser.FormatDay(m.day, m.today)
}

func clockSpan(e schedule.Entry) string {
	if !e.HasStart() {
		return "--:--"
	}
	if e.End.IsZero() {
		return e.Start.Format("15:04") + " → now"
	}
	return e.Start.Format("15:04") + "–" + e.End.Format("15:04")
}

func agendaRows(entries []schedule.Entry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		minutes := "-"
		if e.Kind != schedule.KindInProgress {
			minutes = parser.FormatMinutes(e.Minutes)
		}
		rows = append(rows, table.Row{
			clockSpan(e),
			kindLabel(e.Kind),
			categoryName(e.CategoryName),
			minutes,
			e.Note,
		})
	}
	return rows
}

func totalMinutes(entries []schedule.Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Minutes
	}
	return total
}

// View renders the agenda
func (m AgendaModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 65 / 100
	rightWidth := m.width - leftWidth - 1

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTable(leftWidth),
		" ",
		m.renderDetails(rightWidth),
	)
	return lipgloss.JoinVertical(lipgloss.Left, "", content, "", m.renderHelpBar())
}

func (m AgendaModel) renderTable(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("📅 " + m.shimmer.Render(m.title())))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("Error: " + m.err.Error()))
	case len(m.entries) == 0:
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true).
			Render("Nothing planned or logged"))
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccentBright)).
			Render(fmt.Sprintf("Total: %s in %d entries", parser.FormatMinutes(totalMinutes(m.entries)), len(m.entries))))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

func (m AgendaModel) selected() (schedule.Entry, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.entries) {
		return schedule.Entry{}, false
	}
	return m.entries[i], true
}

func (m AgendaModel) renderDetails(width int) string {
	var b strings.Builder
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width)

	e, ok := m.selected()
	if !ok {
		b.WriteString(centered(width).
			Foreground(lipgloss.Color(ColorAccentMain)).
			Bold(true).
			Render(strings.Join(logo, "\n")))
		return border.Render(b.String())
	}

	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(kindColor(e.Kind))).
		Render(categoryName(e.CategoryName)))
	b.WriteString("\n\n")

	field := func(label, value, color string) {
		b.WriteString(label + ": ")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(value))
		b.WriteString("\n")
	}
	field("Kind", kindLabel(e.Kind), kindColor(e.Kind))
	field("Time", clockSpan(e), ColorPrimaryText)
	if e.Kind != schedule.KindInProgress {
		field("Duration", parser.FormatMinutes(e.Minutes), ColorPrimaryText)
	}

	if e.Kind == schedule.KindRecurring {
		field("Repeats", parser.DescribeRule(e.Recurrence), ColorAccentBright)
		if e.SeriesStart != nil {
			window := "from " + e.SeriesStart.Format("02/01/2006")
			if e.SeriesEnd != nil {
				window += " to " + e.SeriesEnd.Format("02/01/2006")
			}
			field("Active", window, ColorSecondaryText)
		}
		if e.IgnorePauses {
			field("Pauses", "ignored", ColorWarning)
		}
	}

	if e.Note != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true).
			Width(width - 2).
			Render(e.Note))
	}
	return border.Render(b.String())
}

func (m AgendaModel) renderHelpBar() string {
	return centered(m.width).
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Render("↑/↓ select · ←/→ day · t today · q/esc quit")
}

// RunAgendaTUI opens the agenda at day
func RunAgendaTUI(day, today time.Time, load DayLoader) error {
	_, err := run(NewAgendaModel(day, today, load))
	return err
}
