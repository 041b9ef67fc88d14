package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tempo/internal/parser"
	"github.com/balkashynov/tempo/internal/schedule"
	"github.com/balkashynov/tempo/internal/tui"
)

var dayCmd = &cobra.Command{
	Use:   "day [date]",
	Short: "Show everything planned or logged on a day",
	Long: `Show the day view: logged worktimes, series occurrences that are not paused
and the running timer, ordered by time of day.

Examples:
  tempo day                # Today
  tempo day yesterday
  tempo day 2024-03-01 --json
  tempo day --ui           # Browse days interactively`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		d, err := a.day(firstArg(args))
		if err != nil {
			return err
		}

		if ui, _ := cmd.Flags().GetBool("ui"); ui {
			return tui.RunAgendaTUI(d, a.now(), func(day time.Time) ([]schedule.Entry, error) {
				return a.schedule.DayView(day, a.user.ID)
			})
		}

		entries, err := a.schedule.DayView(d, a.user.ID)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(out(cmd), entries)
		}
		printDay(out(cmd), parser.FormatDay(d, a.now()), entries)
		return nil
	}),
}

var monthCmd = &cobra.Command{
	Use:   "month [yyyy-mm]",
	Short: "Show a month of worktimes and active series",
	Long: `Show the month view: every one-off worktime of the month and one line per
series active during the month.

Examples:
  tempo month
  tempo month 2024-03
  tempo month 15/02/2024`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		arg := firstArg(args)
		if arg == "" {
			arg = "today"
		}
		m, err := parser.ParseMonth(arg, a.now())
		if err != nil {
			return err
		}
		entries, err := a.schedule.MonthView(m, a.user.ID)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(out(cmd), entries)
		}

		w := out(cmd)
		fmt.Fprintf(w, "📅 %s\n\n", m.Format("January 2006"))
		if len(entries) == 0 {
			fmt.Fprintln(w, "Nothing planned or logged")
			return nil
		}
		for _, e := range entries {
			if e.Kind == schedule.KindRecurring {
				fmt.Fprintf(w, "  ↻ %-11s %-18s %s, %s\n", clockRange(e), e.CategoryName, parser.DescribeRule(e.Recurrence), seriesWindow(e))
				continue
			}
			fmt.Fprintf(w, "  %s %s\n", e.Start.Format("Mon 02"), entryLine(e))
		}
		return nil
	}),
}

var week3Cmd = &cobra.Command{
	Use:   "week3 [date]",
	Short: "Show yesterday, today and tomorrow",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		d, err := a.day(firstArg(args))
		if err != nil {
			return err
		}
		days, err := a.schedule.ThreeDays(d, a.user.ID)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(out(cmd), days)
		}

		ref := a.now()
		printDay(out(cmd), parser.FormatDay(d.AddDate(0, 0, -1), ref), days.Yesterday)
		fmt.Fprintln(out(cmd))
		printDay(out(cmd), parser.FormatDay(d, ref), days.Today)
		fmt.Fprintln(out(cmd))
		printDay(out(cmd), parser.FormatDay(d.AddDate(0, 0, 1), ref), days.Tomorrow)
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{dayCmd, monthCmd, week3Cmd} {
		c.Flags().Bool("json", false, "JSON output")
	}
	dayCmd.Flags().Bool("ui", false, "Browse days in the interactive agenda")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDay(w io.Writer, title string, entries []schedule.Entry) {
	fmt.Fprintf(w, "📅 %s\n", title)
	if len(entries) == 0 {
		fmt.Fprintln(w, "  Nothing planned or logged")
		return
	}
	total := 0
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\n", entryLine(e))
		total += e.Minutes
	}
	fmt.Fprintf(w, "  Total: %s\n", parser.FormatMinutes(total))
}

func entryLine(e schedule.Entry) string {
	var mark, dur string
	switch e.Kind {
	case schedule.KindRecurring:
		mark, dur = "↻", parser.FormatMinutes(e.Minutes)
	case schedule.KindInProgress:
		mark, dur = "●", "running"
	default:
		mark, dur = "·", parser.FormatMinutes(e.Minutes)
	}

	line := fmt.Sprintf("%s %-11s %-18s %-8s", mark, clockRange(e), e.CategoryName, dur)
	if e.Kind != schedule.KindRecurring {
		line += fmt.Sprintf(" #%d", e.ID)
	}
	if e.Note != "" {
		line += "  " + e.Note
	}
	return strings.TrimRight(line, " ")
}

func clockRange(e schedule.Entry) string {
	switch {
	case !e.HasStart():
		return "--:--"
	case e.End.IsZero():
		return e.Start.Format("15:04") + "-…"
	}
	return e.Start.Format("15:04") + "-" + e.End.Format("15:04")
}

func seriesWindow(e schedule.Entry) string {
	if e.SeriesStart == nil {
		return ""
	}
	s := "from " + e.SeriesStart.Format("2006-01-02")
	if e.SeriesEnd != nil {
		s += " until " + e.SeriesEnd.Format("2006-01-02")
	}
	return s
}
