package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tempo/internal/models"
)

var pauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"p"},
	Short:   "Manage pauses (holidays, sick leave, days off)",
	Long: `A pause suspends the occurrences of the series linked to it. New pauses are
global: they are linked to every overlapping series that does not ignore pauses.`,
}

var pauseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a global pause",
	Long: `Create a global pause. A bare --to date includes that whole day.

Examples:
  tempo pause add --from 2024-08-05 --to 2024-08-16
  tempo pause add --from "2024-03-01 12:00" --to "2024-03-01 18:00"`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		start, end, err := a.pauseRange(cmd)
		if err != nil {
			return err
		}
		p, err := a.linkage.CreatePause(a.user.ID, start, end)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "✅ Created pause #%d: %s\n", p.ID, describePause(p))
		fmt.Fprintf(out(cmd), "   Linked to %d series\n", len(p.Series))
		return nil
	}),
}

var pauseEditCmd = &cobra.Command{
	Use:   "edit <pause-id>",
	Short: "Move a pause",
	Long:  `Move a pause to new dates. Its links are kept as they are.`,
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("pause", args[0])
		if err != nil {
			return err
		}
		current, err := a.linkage.GetPause(a.user.ID, id)
		if err != nil {
			return err
		}

		start, end := current.PauseStart, current.PauseEnd
		if v, _ := cmd.Flags().GetString("from"); v != "" {
			if start, err = a.instant(v, false); err != nil {
				return err
			}
		}
		if v, _ := cmd.Flags().GetString("to"); v != "" {
			if end, err = a.instant(v, true); err != nil {
				return err
			}
		}

		p, err := a.linkage.UpdatePause(a.user.ID, id, start, end)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "✏️  Updated pause #%d: %s\n", p.ID, describePause(p))
		return nil
	}),
}

var pauseRmCmd = &cobra.Command{
	Use:     "rm <pause-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a pause",
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID("pause", args[0])
		if err != nil {
			return err
		}
		if err := a.linkage.DeletePause(a.user.ID, id); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "🗑️  Deleted pause #%d\n", id)
		return nil
	}),
}

var pauseLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List pauses",
	Long: `List all pauses, or only the ones linked to a series.

Examples:
  tempo pause ls
  tempo pause ls --series 3`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		var (
			pauses []models.Pause
			err    error
		)
		if v, _ := cmd.Flags().GetString("series"); v != "" {
			id, perr := parseID("series", v)
			if perr != nil {
				return perr
			}
			pauses, err = a.linkage.PausesForSeries(a.user.ID, id)
		} else {
			pauses, err = a.linkage.ListPauses(a.user.ID)
		}
		if err != nil {
			return err
		}

		if asJSON(cmd) {
			return writeJSON(out(cmd), pauses)
		}
		printPauses(out(cmd), pauses)
		return nil
	}),
}

var pauseLinkCmd = &cobra.Command{
	Use:   "link <series-id> <pause-id>",
	Short: "Link a pause to a series",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		seriesID, pauseID, err := parsePair(args)
		if err != nil {
			return err
		}
		p, err := a.linkage.Link(a.user.ID, seriesID, pauseID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "🔗 Pause #%d linked to series #%d (%d series in total)\n", p.ID, seriesID, len(p.Series))
		return nil
	}),
}

var pauseUnlinkCmd = &cobra.Command{
	Use:   "unlink <series-id> <pause-id>",
	Short: "Unlink a pause from a series",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		seriesID, pauseID, err := parsePair(args)
		if err != nil {
			return err
		}
		p, err := a.linkage.Unlink(a.user.ID, seriesID, pauseID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Pause #%d unlinked from series #%d (%d series left)\n", p.ID, seriesID, len(p.Series))
		return nil
	}),
}

var pauseCanLinkCmd = &cobra.Command{
	Use:   "can-link <series-id> <pause-id>",
	Short: "Check whether a pause can be linked to a series",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		seriesID, pauseID, err := parsePair(args)
		if err != nil {
			return err
		}
		ok, err := a.linkage.CanLink(seriesID, pauseID, a.user.ID)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(out(cmd), "yes")
		} else {
			fmt.Fprintln(out(cmd), "no")
		}
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{pauseAddCmd, pauseEditCmd} {
		c.Flags().String("from", "", "Start: <date> or \"<date> HH:MM\"")
		c.Flags().String("to", "", "End: <date> (whole day) or \"<date> HH:MM\"")
	}
	_ = pauseAddCmd.MarkFlagRequired("from")
	_ = pauseAddCmd.MarkFlagRequired("to")
	pauseLsCmd.Flags().String("series", "", "Only pauses linked to this series")
	pauseLsCmd.Flags().Bool("json", false, "JSON output")

	pauseCmd.AddCommand(pauseAddCmd)
	pauseCmd.AddCommand(pauseEditCmd)
	pauseCmd.AddCommand(pauseRmCmd)
	pauseCmd.AddCommand(pauseLsCmd)
	pauseCmd.AddCommand(pauseLinkCmd)
	pauseCmd.AddCommand(pauseUnlinkCmd)
	pauseCmd.AddCommand(pauseCanLinkCmd)
}

func (a *app) pauseRange(cmd *cobra.Command) (start, end time.Time, err error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if start, err = a.instant(from, false); err != nil {
		return
	}
	end, err = a.instant(to, true)
	return
}

func parsePair(args []string) (seriesID, pauseID uint, err error) {
	if seriesID, err = parseID("series", args[0]); err != nil {
		return
	}
	pauseID, err = parseID("pause", args[1])
	return
}

func describePause(p models.Pause) string {
	s := p.PauseStart.Format("2006-01-02 15:04") + " → " + p.PauseEnd.Format("2006-01-02 15:04")
	if sc, ok := p.Scope().(models.SeriesScope); ok {
		s += fmt.Sprintf(" (series #%d only)", sc.SeriesID)
	}
	return s
}

func printPauses(w io.Writer, pauses []models.Pause) {
	if len(pauses) == 0 {
		fmt.Fprintln(w, "No pauses")
		return
	}
	for _, p := range pauses {
		line := fmt.Sprintf("#%-4d %s", p.ID, describePause(p))
		if ids := p.SeriesIDs(); len(ids) > 0 {
			line += fmt.Sprintf(" · series %v", ids)
		}
		fmt.Fprintln(w, line)
	}
}
