package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/parser"
)

// StopFunc closes the running worktime and returns it
type StopFunc func() (models.Worktime, error)

// TimerModel is the full-screen view of a running worktime
type TimerModel struct {
	width    int
	height   int
	worktime models.Worktime

	// Minutes already logged today, shown next to the timer
	loggedToday int

	elapsed   time.Duration
	animation int
	now       func() time.Time

	stopping bool // user pressed s: close the worktime after the program exits
	exiting  bool // user pressed q/esc: leave it running
}

type timerTickMsg struct{}

type animationTickMsg struct{}

// NewTimerModel creates a timer for an open worktime
func NewTimerModel(w models.Worktime, loggedToday int) TimerModel {
	m := TimerModel{
		worktime:    w,
		loggedToday: loggedToday,
		now:         time.Now,
	}
	m.elapsed = m.now().Sub(w.StartedAt)
	return m
}

func timerTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return timerTickMsg{} })
}

func animationTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return animationTickMsg{} })
}

// Init starts both tickers
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(timerTick(), animationTick())
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	done := m.stopping || m.exiting

	switch msg := msg.(type) {
	case timerTickMsg:
		m.elapsed = m.now().Sub(m.worktime.StartedAt)
		if done {
			return m, nil
		}
		return m, timerTick()

	case animationTickMsg:
		m.animation = (m.animation + 1) % 4
		if done {
			return m, nil
		}
		return m, animationTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "s", "S":
			m.stopping = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.exiting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// Stopping reports whether the user asked to stop the worktime
func (m TimerModel) Stopping() bool {
	return m.stopping
}

// View renders the timer
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTimerPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderDetailsPanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func centered(width int) lipgloss.Style {
	return lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
}

func (m TimerModel) renderTimerPanel(width, height int) string {
	var components []string

	frames := []string{"◐", "◓", "◑", "◒"}
	frame := frames[m.animation]
	header := centered(width).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(fmt.Sprintf("%s  TRACKING  %s", frame, frame))
	components = append(components, header)

	category := centered(width).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render(truncate(categoryName(m.worktime.Category.Name), width-4))
	components = append(components, category)

	var clock []string
	for _, line := range strings.Split(renderBigClock(m.elapsed), "\n") {
		clock = append(clock, centered(width).Render(line))
	}
	components = append(components, strings.Join(clock, "\n"))

	started := centered(width).
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Render("Started at " + m.worktime.StartedAt.Format("15:04:05"))
	components = append(components, started)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

var bigDigits = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// clockText is HH:MM:SS, or MM:SS under an hour
func clockText(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	ss := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, mm, ss)
	}
	return fmt.Sprintf("%02d:%02d", mm, ss)
}

func renderBigClock(d time.Duration) string {
	var lines [5]strings.Builder
	for _, r := range clockText(d) {
		art, ok := bigDigits[r]
		if !ok {
			continue
		}
		for i := range lines {
			lines[i].WriteString(art[i])
			lines[i].WriteString(" ")
		}
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	out := make([]string, len(lines))
	for i := range lines {
		out[i] = style.Render(lines[i].String())
	}
	return strings.Join(out, "\n")
}

var logo = []string{
	"▀█▀ █▀▀ █▀▄▀█ █▀█ █▀█",
	" █  ██▄ █ ▀ █ █▀▀ █▄█",
}

func (m TimerModel) renderDetailsPanel(width, height int) string {
	var b strings.Builder
	inner := width - 8

	b.WriteString("\n")
	b.WriteString(centered(inner).
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Render(strings.Join(logo, "\n")))
	b.WriteString("\n\n")

	b.WriteString(centered(inner).
		Foreground(lipgloss.Color(ColorBorder)).
		Render(strings.Repeat("─", min(width-12, 40))))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width-12).
		Padding(0, 1).
		Render(categoryName(m.worktime.Category.Name)))
	b.WriteString("\n\n")

	note := "none"
	noteColor := ColorDisabledText
	if m.worktime.Note != "" {
		note = m.worktime.Note
		noteColor = ColorSecondaryText
	}
	rows := []string{
		"📝 Note: " + lipgloss.NewStyle().Foreground(lipgloss.Color(noteColor)).Render(note),
		"📅 Day: " + lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).
			Render(m.worktime.StartedAt.Format("Mon 02/01/2006")),
		"📊 Logged today: " + lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).
			Render(parser.FormatMinutes(m.loggedToday)),
	}
	b.WriteString(centered(inner).Render(strings.Join(rows, "\n")))

	return lipgloss.NewStyle().Height(height).Render(b.String())
}

func (m TimerModel) renderHelpBar() string {
	return centered(m.width).
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Render("s stop & save · esc/q exit (keep running) · ctrl+c quit")
}

func categoryName(name string) string {
	if name == "" {
		return "(no category)"
	}
	return name
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width < 4 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// RunTimerTUI shows the timer for w. If the user stops it, stop is called and
// the result printed. Otherwise the worktime keeps running.
func RunTimerTUI(w models.Worktime, loggedToday int, stop StopFunc) error {
	final, err := run(NewTimerModel(w, loggedToday))
	if err != nil {
		return err
	}

	if final.(TimerModel).Stopping() {
		stopped, err := stop()
		if err != nil {
			return fmt.Errorf("failed to stop timer: %w", err)
		}
		fmt.Printf("⏹️  Stopped %s\n", categoryName(stopped.Category.Name))
		fmt.Printf("📊 Logged: %s\n", parser.FormatMinutes(stopped.Minutes()))
		return nil
	}

	fmt.Printf("\n💡 Timer is still running for %s\n", categoryName(w.Category.Name))
	fmt.Printf("   Use 'tempo status' to check it or 'tempo stop' to stop it.\n")
	return nil
}
