package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "A CLI time tracker with recurring schedules",
	Long: `tempo is a command-line time tracker. Log one-off work, run timers,
plan recurring weekly blocks, pause them for holidays and see where your time goes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(out(cmd), "tempo %s (commit %s, built %s)\n", version, commit, date)
	},
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tempo/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(monthCmd)
	rootCmd.AddCommand(week3Cmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(timesheetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetHelpCommand(helpCmd)
}
