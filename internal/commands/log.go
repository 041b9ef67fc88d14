package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/parser"
	"github.com/balkashynov/tempo/internal/tracking"
)

var logCmd = &cobra.Command{
	Use:   "log <HH:MM-HH:MM> [#category] [note]",
	Short: "Log a finished block of work",
	Long: `Log a one-off block of work.

Quick syntax:
  HH:MM-HH:MM   - Start and end time (required)
  #category     - Category, created on first use
  on:<date>     - Day (yyyy-mm-dd, dd/mm/yyyy, yesterday, -2d). Defaults to today
  anything else - Note

Examples:
  tempo log 09:00-10:30 #Work review pull requests
  tempo log 14:00-15:00 #Gym on:yesterday
  tempo log 08:00-08:45 --category Reading --date 2024-03-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		entry := parser.ParseEntry(strings.Join(args, " "), a.now())
		if len(entry.Errors) > 0 {
			return fmt.Errorf("%s", strings.Join(entry.Errors, "; "))
		}

		if c, _ := cmd.Flags().GetString("category"); c != "" {
			entry.Category = c
		}
		if n, _ := cmd.Flags().GetString("note"); n != "" {
			entry.Note = n
		}
		if d, _ := cmd.Flags().GetString("date"); d != "" {
			day, err := a.day(d)
			if err != nil {
				return err
			}
			entry.Day = day
		}
		if entry.Category == "" {
			return fmt.Errorf("category required: add #Name or --category")
		}

		start, end := entry.Interval()
		w, err := a.tracking.LogWorktime(a.user.ID, tracking.WorktimeInput{
			Category:   tracking.CategoryRef{Name: entry.Category},
			StartedAt:  start,
			FinishedAt: &end,
			Note:       entry.Note,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out(cmd), "✅ Logged %s on %s - ID: %d\n", parser.FormatMinutes(w.Minutes()), w.Category.Name, w.ID)
		fmt.Fprintf(out(cmd), "   %s %s–%s\n", w.StartedAt.Format("Mon 02/01/2006"), w.StartedAt.Format("15:04"), w.FinishedAt.Format("15:04"))
		return nil
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <worktime-id>",
	Short: "Edit a logged worktime",
	Long: `Change the time, day, category or note of a logged worktime.
Only the given flags are changed.

Examples:
  tempo edit 42 --time 09:15-10:30
  tempo edit 42 --category Meetings --note "weekly sync"`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("worktime", args[0])
		if err != nil {
			return err
		}
		current, err := a.store.WorktimeByID(id)
		if err != nil {
			return err
		}

		var in tracking.WorktimeInput
		if c, _ := cmd.Flags().GetString("category"); c != "" {
			in.Category = tracking.CategoryRef{Name: c}
		}
		in.Note, _ = cmd.Flags().GetString("note")

		day := current.StartedAt
		if d, _ := cmd.Flags().GetString("date"); d != "" {
			if day, err = a.day(d); err != nil {
				return err
			}
		}
		span, _ := cmd.Flags().GetString("time")
		switch {
		case span != "":
			start, end, err := parser.ParseClockRange(span)
			if err != nil {
				return err
			}
			s, e := start.On(day), end.On(day)
			in.StartedAt, in.FinishedAt = s, &e
		case cmd.Flags().Changed("date"):
			s := models.ClockOf(current.StartedAt).On(day)
			in.StartedAt = s
			if current.FinishedAt != nil {
				e := s.Add(current.FinishedAt.Sub(current.StartedAt))
				in.FinishedAt = &e
			}
		}

		w, err := a.tracking.UpdateWorktime(a.user.ID, id, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "✏️  Updated worktime #%d: %s on %s\n", w.ID, parser.FormatMinutes(w.Minutes()), w.Category.Name)
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:     "rm <worktime-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a logged worktime",
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("worktime", args[0])
		if err != nil {
			return err
		}
		if err := a.tracking.DeleteWorktime(a.user.ID, id); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "🗑️  Deleted worktime #%d\n", id)
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{logCmd, editCmd} {
		c.Flags().StringP("category", "c", "", "Category name")
		c.Flags().StringP("note", "n", "", "Note")
		c.Flags().StringP("date", "d", "", "Day (yyyy-mm-dd, dd/mm/yyyy, today, yesterday, -Nd)")
	}
	editCmd.Flags().StringP("time", "t", "", "New time range HH:MM-HH:MM")
}
