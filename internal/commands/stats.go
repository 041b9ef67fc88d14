package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tempo/internal/parser"
	"github.com/balkashynov/tempo/internal/stats"
)

const barWidth = 30

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show where your time goes",
	Long: `Statistics count finished worktimes and every occurrence of your series
that is not paused.`,
}

var statsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Time per category",
	Long: `Time per category between two days (both included). Defaults to the current month.

Examples:
  tempo stats categories
  tempo stats categories --from 2024-01-01 --to 2024-03-31`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		from := now.With(a.now()).BeginningOfMonth()
		to := now.With(a.now()).EndOfMonth()
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

		result, err := a.stats.CategoryStats(a.user.ID, from, to)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(out(cmd), result)
		}

		w := out(cmd)
		fmt.Fprintf(w, "📊 %s → %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
		if len(result) == 0 {
			fmt.Fprintln(w, "No time tracked")
			return nil
		}
		labels := make([]string, len(result))
		data := make([]int, len(result))
		for i, c := range result {
			labels[i], data[i] = c.Category, c.Minutes
		}
		printBars(w, labels, data)
		return nil
	}),
}

var statsTotalCmd = &cobra.Command{
	Use:   "total",
	Short: "Total time per day, week or month",
	Long: `Total time bucketed by day (--by week), ISO week (--by month) or month (--by year)
for the period containing --date.

Examples:
  tempo stats total
  tempo stats total --by year --date 2023-06-01`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		g, err := stats.ParseGranularity(by)
		if err != nil {
			return err
		}
		dateArg, _ := cmd.Flags().GetString("date")
		d, err := a.day(dateArg)
		if err != nil {
			return err
		}

		from, to := period(d, g)
		totals, err := a.stats.TotalWorkTime(a.user.ID, from, to, g)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(out(cmd), totals)
		}

		w := out(cmd)
		fmt.Fprintf(w, "📊 %s → %s by %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"), bucketName(g))
		printBars(w, totals.Labels, totals.Data)
		return nil
	}),
}

func init() {
	statsCategoriesCmd.Flags().String("from", "", "First day (default start of month)")
	statsCategoriesCmd.Flags().String("to", "", "Last day (default end of month)")
	statsTotalCmd.Flags().String("by", "week", "Period: week|month|year")
	statsTotalCmd.Flags().String("date", "", "Any day inside the period (default today)")
	for _, c := range []*cobra.Command{statsCategoriesCmd, statsTotalCmd} {
		c.Flags().Bool("json", false, "JSON output")
	}

	statsCmd.AddCommand(statsCategoriesCmd)
	statsCmd.AddCommand(statsTotalCmd)
}

// period returns the week, month or year containing d
func period(d time.Time, g stats.Granularity) (time.Time, time.Time) {
	n := now.With(d)
	switch g {
	case stats.Week:
		return n.Monday(), now.With(n.Monday().AddDate(0, 0, 6)).EndOfDay()
	case stats.Month:
		return n.BeginningOfMonth(), n.EndOfMonth()
	default:
		return n.BeginningOfYear(), n.EndOfYear()
	}
}

func bucketName(g stats.Granularity) string {
	switch g {
	case stats.Week:
		return "day"
	case stats.Month:
		return "week"
	default:
		return "month"
	}
}

func printBars(w io.Writer, labels []string, data []int) {
	width, peak, total := 0, 0, 0
	for i, l := range labels {
		width = max(width, len([]rune(l)))
		peak = max(peak, data[i])
		total += data[i]
	}
	for i, l := range labels {
		bar := 0
		if peak > 0 {
			bar = data[i] * barWidth / peak
		}
		if bar == 0 && data[i] > 0 {
			bar = 1
		}
		fmt.Fprintf(w, "%-*s  %-*s  %s\n", width, l, barWidth, strings.Repeat("█", bar), parser.FormatMinutes(data[i]))
	}
	fmt.Fprintf(w, "\nTotal: %s\n", parser.FormatMinutes(total))
}
