package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show comprehensive help for tempo",
	Long:  `Display detailed help for all tempo commands and flags, or for one command.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if c, _, err := rootCmd.Find(args); err == nil && c != rootCmd {
				_ = c.Help()
				return
			}
		}
		showCustomHelp(out(cmd))
	},
}

func showCustomHelp(w io.Writer) {
	fmt.Fprint(w, `
████████╗███████╗███╗   ███╗██████╗  ██████╗
╚══██╔══╝██╔════╝████╗ ████║██╔══██╗██╔═══██╗
   ██║   █████╗  ██╔████╔██║██████╔╝██║   ██║
   ██║   ██╔══╝  ██║╚██╔╝██║██╔═══╝ ██║   ██║
   ██║   ███████╗██║ ╚═╝ ██║██║     ╚██████╔╝
   ╚═╝   ╚══════╝╚═╝     ╚═╝╚═╝      ╚═════╝

tempo - CLI Time Tracker with recurring schedules

COMMANDS:

  log <HH:MM-HH:MM> ...   Log a finished block of work
    -c, --category        Category name
    -d, --date            Day (default today)
    -n, --note            Note

    Smart syntax:
      #Category     Category, created on first use
      on:<date>     Day: yyyy-mm-dd, dd/mm/yyyy, yesterday, -2d

    Example:
      tempo log 09:00-10:30 #Work review pull requests on:yesterday

  edit <id>               Change a logged worktime
    -t, --time            New range HH:MM-HH:MM
    -d, --date            Move to another day
  rm <id>                 Delete a logged worktime

  start <category>        Start a timer
    --no-ui               Start without interactive timer
  stop                    Stop the running timer
  status                  Show the running timer

  day [date]              Everything planned or logged on a day
    --ui                  Browse days interactively (←/→, t, q)
    --json                JSON output
  week3 [date]            Yesterday, today and tomorrow
  month [yyyy-mm]         Worktimes and active series of a month

  series add              Create a weekly block
    -c, --category        Category name
    --days                mo,we,fr | weekdays | weekend | daily
    -t, --time            HH:MM-HH:MM
    --from / --until      Active window (until: date or none)
    --ignore-pauses       Never pause this series
  series edit <id>        Change a series (same flags)
  series rm <id>          Delete a series
  series ls               List series
  series skip <id> [date] Skip or restore one day
  series ignore-pauses <id> on|off

  pause add               Create a global pause (holidays, sick leave)
    --from / --to         <date> or "<date> HH:MM"
  pause edit <id>         Move a pause
  pause rm <id>           Delete a pause
  pause ls                List pauses
    --series              Only pauses linked to a series
  pause link <series> <pause>
  pause unlink <series> <pause>
  pause can-link <series> <pause>

  stats categories        Time per category
    --from / --to         Window (default this month)
  stats total             Time per day, week or month
    --by                  week|month|year
    --date                Any day in the period

  timesheet [date]        Weekly category x day grid
  export ics              iCalendar export
    -o, --output          File (default stdout)

  category ls|add|rm      Manage categories
  version                 Show version
  help [command]          Show this help

GLOBAL FLAGS:
  --config                Config file (default ~/.tempo/config.yaml)
  -v, --verbose           Debug logging to stderr

`)
}
