package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/spf13/cobra"
)

var timesheetCmd = &cobra.Command{
	Use:   "timesheet [date]",
	Short: "Show a weekly timesheet per category",
	Long: `Show a weekly timesheet of tracked time grouped by category and day.

Displays hours per day for the calendar week containing date (default this week).
Weekends are only shown when time was tracked on them.

Example output:
  Category                Mon   Tue   Wed   Thu   Fri  Total
  Work                    7.5   8.0   6.0     -   4.0   25.5
  Gym                     1.0     -   1.0     -   1.0    3.0
  Total                   8.5   8.0   7.0   0.0   5.0   28.5`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		d, err := a.day(firstArg(args))
		if err != nil {
			return err
		}
		weekStart := now.With(d).Monday()

		// category -> minutes per day, Monday first
		grid := make(map[string]*[7]int)
		for i := 0; i < 7; i++ {
			day := weekStart.AddDate(0, 0, i)
			result, err := a.stats.CategoryStats(a.user.ID, day, now.With(day).EndOfDay())
			if err != nil {
				return fmt.Errorf("failed to get stats for %s: %w", day.Format("2006-01-02"), err)
			}
			for _, c := range result {
				if grid[c.Category] == nil {
					grid[c.Category] = new([7]int)
				}
				grid[c.Category][i] += c.Minutes
			}
		}

		if len(grid) == 0 {
			fmt.Fprintln(out(cmd), "No time tracked this week.")
			return nil
		}
		displayTimesheet(out(cmd), grid, weekStart)
		return nil
	}),
}

// displayTimesheet outputs the formatted timesheet table
func displayTimesheet(w io.Writer, grid map[string]*[7]int, weekStart time.Time) {
	dayNames := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

	categories := make([]string, 0, len(grid))
	rowTotals := make(map[string]int, len(grid))
	for name, days := range grid {
		categories = append(categories, name)
		for _, m := range days {
			rowTotals[name] += m
		}
	}
	// Biggest category first
	sort.Slice(categories, func(i, j int) bool {
		if rowTotals[categories[i]] != rowTotals[categories[j]] {
			return rowTotals[categories[i]] > rowTotals[categories[j]]
		}
		return categories[i] < categories[j]
	})

	// Mon-Fri always, weekend days only with tracked time
	var daysToShow []int
	for i := range dayNames {
		if i < 5 {
			daysToShow = append(daysToShow, i)
			continue
		}
		for _, days := range grid {
			if days[i] > 0 {
				daysToShow = append(daysToShow, i)
				break
			}
		}
	}

	nameWidth := 20
	for _, name := range categories {
		nameWidth = max(nameWidth, len(name))
	}
	nameWidth = min(nameWidth, 40)

	const cell = 6
	separator := func() {
		fmt.Fprint(w, strings.Repeat("-", nameWidth))
		for range daysToShow {
			fmt.Fprint(w, " "+strings.Repeat("-", cell-1))
		}
		fmt.Fprintln(w, " "+strings.Repeat("-", cell))
	}

	fmt.Fprintf(w, "%-*s", nameWidth, "Category")
	for _, i := range daysToShow {
		fmt.Fprintf(w, "%*s", cell, dayNames[i])
	}
	fmt.Fprintf(w, "%*s\n", cell+1, "Total")
	separator()

	var dayTotals [7]int
	grandTotal := 0
	for _, name := range categories {
		display := name
		if len(display) > nameWidth {
			display = display[:nameWidth-3] + "..."
		}
		fmt.Fprintf(w, "%-*s", nameWidth, display)

		for _, i := range daysToShow {
			m := grid[name][i]
			if m > 0 {
				fmt.Fprintf(w, "%*s", cell, hours(m))
			} else {
				fmt.Fprintf(w, "%*s", cell, "-")
			}
			dayTotals[i] += m
		}
		fmt.Fprintf(w, "%*s\n", cell+1, hours(rowTotals[name]))
		grandTotal += rowTotals[name]
	}

	separator()
	fmt.Fprintf(w, "%-*s", nameWidth, "Total")
	for _, i := range daysToShow {
		fmt.Fprintf(w, "%*s", cell, hours(dayTotals[i]))
	}
	fmt.Fprintf(w, "%*s\n", cell+1, hours(grandTotal))

	fmt.Fprintf(w, "\nWeek of %s to %s\n",
		weekStart.Format("Jan 2"),
		weekStart.AddDate(0, 0, 6).Format("Jan 2, 2006"))
}

func hours(minutes int) string {
	return fmt.Sprintf("%.1f", float64(minutes)/60)
}
