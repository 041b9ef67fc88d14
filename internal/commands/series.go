package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tempo/internal/linkage"
	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/parser"
	"github.com/balkashynov/tempo/internal/tracking"
)

var seriesCmd = &cobra.Command{
	Use:     "series",
	Aliases: []string{"s"},
	Short:   "Manage recurring weekly blocks",
	Long: `A series is a weekly block of time, e.g. gym on Monday, Wednesday and Friday
from 07:00 to 08:00. Series are suspended by the pauses linked to them.`,
}

var seriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a series",
	Long: `Create a series. Global pauses overlapping it are linked automatically
unless --ignore-pauses is set.

Examples:
  tempo series add -c Gym --days mo,we,fr --time 07:00-08:00
  tempo series add -c Standup --days weekdays --time 09:30-09:45 --from 2024-01-08 --until 2024-06-28`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("category")
		cat, err := a.tracking.ResolveCategory(a.user.ID, tracking.CategoryRef{Name: name})
		if err != nil {
			return err
		}

		in := linkage.SeriesInput{CategoryID: cat.ID, StartDate: a.now()}
		if err := a.applySeriesFlags(cmd, &in); err != nil {
			return err
		}
		sr, err := a.linkage.CreateSeries(a.user.ID, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "✅ Created series #%d: %s\n", sr.ID, describeSeries(sr))
		if n := len(sr.Pauses); n > 0 {
			fmt.Fprintf(out(cmd), "   Linked to %d pause(s)\n", n)
		}
		return nil
	}),
}

var seriesEditCmd = &cobra.Command{
	Use:   "edit <series-id>",
	Short: "Change a series",
	Long: `Change a series. Only the given flags are changed. Pause links are
recomputed for the new dates.

Examples:
  tempo series edit 3 --time 18:00-19:00
  tempo series edit 3 --until 2024-12-20
  tempo series edit 3 --until none`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("series", args[0])
		if err != nil {
			return err
		}
		sr, err := a.linkage.GetSeries(a.user.ID, id)
		if err != nil {
			return err
		}

		in := linkage.SeriesInput{
			CategoryID:   sr.CategoryID,
			StartDate:    sr.StartDate,
			EndDate:      sr.EndDate,
			StartTime:    sr.StartTime,
			EndTime:      sr.EndTime,
			Recurrence:   sr.Recurrence,
			IgnorePauses: sr.IgnorePauses,
		}
		if name, _ := cmd.Flags().GetString("category"); name != "" {
			cat, err := a.tracking.ResolveCategory(a.user.ID, tracking.CategoryRef{Name: name})
			if err != nil {
				return err
			}
			in.CategoryID = cat.ID
		}
		if err := a.applySeriesFlags(cmd, &in); err != nil {
			return err
		}

		sr, err = a.linkage.UpdateSeries(a.user.ID, id, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "✏️  Updated series #%d: %s\n", sr.ID, describeSeries(sr))
		return nil
	}),
}

var seriesRmCmd = &cobra.Command{
	Use:     "rm <series-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a series",
	Long:    `Delete a series. Pauses created only for this series are deleted with it.`,
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("series", args[0])
		if err != nil {
			return err
		}
		if err := a.linkage.DeleteSeries(a.user.ID, id); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "🗑️  Deleted series #%d\n", id)
		return nil
	}),
}

var seriesLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List series",
	Args:    cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		series, err := a.linkage.ListSeries(a.user.ID)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(out(cmd), series)
		}
		if len(series) == 0 {
			fmt.Fprintln(out(cmd), "No series yet. Create one with 'tempo series add'.")
			return nil
		}
		for _, sr := range series {
			line := fmt.Sprintf("#%-4d %s", sr.ID, describeSeries(sr))
			if n := len(sr.Pauses); n > 0 {
				line += fmt.Sprintf(" · %d pause(s)", n)
			}
			fmt.Fprintln(out(cmd), line)
		}
		return nil
	}),
}

var seriesIgnoreCmd = &cobra.Command{
	Use:   "ignore-pauses <series-id> <on|off>",
	Short: "Make a series ignore or respect pauses",
	Long: `Turning it on unlinks every pause from the series. Turning it off links the
global pauses overlapping it again.`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("series", args[0])
		if err != nil {
			return err
		}
		var ignore bool
		switch strings.ToLower(args[1]) {
		case "on", "true", "yes":
			ignore = true
		case "off", "false", "no":
		default:
			return fmt.Errorf("expected on or off, got '%s'", args[1])
		}

		sr, err := a.linkage.SetIgnorePauses(a.user.ID, id, ignore)
		if err != nil {
			return err
		}
		if sr.IgnorePauses {
			fmt.Fprintf(out(cmd), "Series #%d now ignores pauses\n", sr.ID)
		} else {
			fmt.Fprintf(out(cmd), "Series #%d follows pauses again (%d linked)\n", sr.ID, len(sr.Pauses))
		}
		return nil
	}),
}

var seriesSkipCmd = &cobra.Command{
	Use:   "skip <series-id> [date]",
	Short: "Skip or restore a single day of a series",
	Long: `Toggle a one-day pause of the series. Running it again on the same day
restores the occurrence.

Examples:
  tempo series skip 3             # Skip today
  tempo series skip 3 tomorrow`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("series", args[0])
		if err != nil {
			return err
		}
		d, err := a.day(firstArg(args[1:]))
		if err != nil {
			return err
		}
		skipped, err := a.linkage.ToggleSeriesDay(a.user.ID, id, d)
		if err != nil {
			return err
		}
		if skipped {
			fmt.Fprintf(out(cmd), "⏭️  Series #%d skipped on %s\n", id, parser.FormatDay(d, a.now()))
		} else {
			fmt.Fprintf(out(cmd), "↩️  Series #%d restored on %s\n", id, parser.FormatDay(d, a.now()))
		}
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{seriesAddCmd, seriesEditCmd} {
		c.Flags().StringP("category", "c", "", "Category name")
		c.Flags().String("days", "", "Days: mo,we,fr | weekdays | weekend | daily | FREQ=WEEKLY;BYDAY=...")
		c.Flags().StringP("time", "t", "", "Time range HH:MM-HH:MM")
		c.Flags().String("from", "", "First day (default today)")
		c.Flags().String("until", "", "Last day, or 'none' for open-ended")
		c.Flags().Bool("ignore-pauses", false, "Never pause this series")
	}
	for _, f := range []string{"category", "days", "time"} {
		_ = seriesAddCmd.MarkFlagRequired(f)
	}
	seriesLsCmd.Flags().Bool("json", false, "JSON output")

	seriesCmd.AddCommand(seriesAddCmd)
	seriesCmd.AddCommand(seriesEditCmd)
	seriesCmd.AddCommand(seriesRmCmd)
	seriesCmd.AddCommand(seriesLsCmd)
	seriesCmd.AddCommand(seriesIgnoreCmd)
	seriesCmd.AddCommand(seriesSkipCmd)
}

// applySeriesFlags copies the changed series flags into in
func (a *app) applySeriesFlags(cmd *cobra.Command, in *linkage.SeriesInput) error {
	flags := cmd.Flags()

	if v, _ := flags.GetString("days"); v != "" {
		rule, err := parser.NormalizeRule(v)
		if err != nil {
			return err
		}
		in.Recurrence = rule
	}
	if v, _ := flags.GetString("time"); v != "" {
		start, end, err := parser.ParseClockRange(v)
		if err != nil {
			return err
		}
		in.StartTime, in.EndTime = start, end
	}
	if v, _ := flags.GetString("from"); v != "" {
		d, err := a.day(v)
		if err != nil {
			return err
		}
		in.StartDate = d
	}
	if v, _ := flags.GetString("until"); v != "" {
		if strings.EqualFold(v, "none") {
			in.EndDate = nil
		} else {
			d, err := a.day(v)
			if err != nil {
				return err
			}
			in.EndDate = &d
		}
	}
	if flags.Changed("ignore-pauses") {
		in.IgnorePauses, _ = flags.GetBool("ignore-pauses")
	}
	return nil
}

func describeSeries(sr models.Series) string {
	s := fmt.Sprintf("%s %s-%s %s, from %s", sr.Category.Name, sr.StartTime, sr.EndTime,
		parser.DescribeRule(sr.Recurrence), sr.StartDate.Format("2006-01-02"))
	if sr.EndDate != nil {
		s += " until " + sr.EndDate.Format("2006-01-02")
	}
	if sr.IgnorePauses {
		s += " (ignores pauses)"
	}
	return s
}
