package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/parser"
	"github.com/balkashynov/tempo/internal/schedule"
	"github.com/balkashynov/tempo/internal/tracking"
	"github.com/balkashynov/tempo/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start <category>",
	Short: "Start a timer on a category",
	Long: `Start a timer on a category. Opens the interactive timer by default, use --no-ui for a simple start.
Only one timer can run at a time.

Examples:
  tempo start Work               # Start timer with interactive UI
  tempo start Work --no-ui       # Start timer without UI
  tempo start Reading -n "ch. 4" # Start with a note`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")
		w, err := a.tracking.StartTimer(a.user.ID, tracking.CategoryRef{Name: strings.TrimPrefix(args[0], "#")}, note)
		if err != nil {
			return err
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			fmt.Fprintf(out(cmd), "⏱️  Started timer #%d on %s\n", w.ID, w.Category.Name)
			fmt.Fprintf(out(cmd), "Started at: %s\n", w.StartedAt.Format("15:04:05"))
			return nil
		}

		logged, err := a.loggedToday()
		if err != nil {
			return err
		}
		return tui.RunTimerTUI(w, logged, func() (models.Worktime, error) {
			return a.tracking.StopTimer(a.user.ID)
		})
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		w, err := a.tracking.StopTimer(a.user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "⏹️  Stopped timer #%d on %s\n", w.ID, w.Category.Name)
		fmt.Fprintf(out(cmd), "Logged: %s\n", parser.FormatMinutes(w.Minutes()))
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running timer",
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		w, err := a.tracking.ActiveTimer(a.user.ID)
		if err != nil {
			return err
		}
		if w == nil {
			fmt.Fprintln(out(cmd), "No timer running")
			return nil
		}

		elapsed := a.now().Sub(w.StartedAt)
		fmt.Fprintf(out(cmd), "⏱️  Running: #%d on %s\n", w.ID, w.Category.Name)
		fmt.Fprintf(out(cmd), "Started at: %s (%s)\n", w.StartedAt.Format("15:04:05"), humanize.RelTime(w.StartedAt, a.now(), "ago", "from now"))
		fmt.Fprintf(out(cmd), "Elapsed time: %s\n", formatDuration(elapsed))
		if w.Note != "" {
			fmt.Fprintf(out(cmd), "Note: %s\n", w.Note)
		}
		return nil
	}),
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start timer without interactive UI")
	startCmd.Flags().StringP("note", "n", "", "Note")
}

// loggedToday sums today's finished one-off worktimes
func (a *app) loggedToday() (int, error) {
	entries, err := a.schedule.DayView(a.now(), a.user.ID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		if e.Kind == schedule.KindSingle {
			total += e.Minutes
		}
	}
	return total, nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
