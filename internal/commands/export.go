package commands

import (
	"fmt"
	"os"

	"github.com/jinzhu/now"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export series and worktimes",
}

var exportICSCmd = &cobra.Command{
	Use:   "ics",
	Short: "Export as an iCalendar (.ics) file",
	Long: `Export every series as a recurring event and the worktimes logged between
--from and --to as single events. Paused occurrences inside the window are
excluded from the recurring events.

Examples:
  tempo export ics -o tempo.ics
  tempo export ics --from 2024-01-01 --to 2024-12-31 > 2024.ics`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		from := now.With(a.now()).BeginningOfYear()
		to := now.With(a.now()).EndOfYear()
		if v, _ := cmd.Flags().GetString("from"); v != "" {
			d, err := a.day(v)
			if err != nil {
				return err
			}
			from = d
		}
		if v, _ := cmd.Flags().GetString("to"); v != "" {
			d, err := a.day(v)
			if err != nil {
				return err
			}
			to = now.With(d).EndOfDay()
		}
		if from.After(to) {
			return fmt.Errorf("--from is after --to")
		}

		series, err := a.linkage.ListSeries(a.user.ID)
		if err != nil {
			return err
		}
		worktimes, err := a.store.FinishedWorktimesWithin(a.user.ID, from, to)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" || path == "-" {
			return a.exporter.Export(out(cmd), series, worktimes, from, to)
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := a.exporter.Export(f, series, worktimes, from, to); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "📤 Exported %d series and %d worktimes to %s\n", len(series), len(worktimes), path)
		return nil
	}),
}

func init() {
	exportICSCmd.Flags().String("from", "", "First day (default start of year)")
	exportICSCmd.Flags().String("to", "", "Last day (default end of year)")
	exportICSCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	exportCmd.AddCommand(exportICSCmd)
}
