package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage categories",
	Long:    `Categories group worktimes and series. They are also created on first use by 'tempo log' and 'tempo start'.`,
}

var categoryLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List categories",
	Args:    cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		cats, err := a.tracking.Categories(a.user.ID)
		if err != nil {
			return err
		}
		if asJSON(cmd) {
			return writeJSON(out(cmd), cats)
		}
		if len(cats) == 0 {
			fmt.Fprintln(out(cmd), "No categories yet")
			return nil
		}
		for _, c := range cats {
			line := fmt.Sprintf("#%-4d %s", c.ID, c.Name)
			if c.Color != "" {
				line += "  " + c.Color
			}
			fmt.Fprintln(out(cmd), line)
		}
		return nil
	}),
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")
		c, err := a.tracking.CreateCategory(a.user.ID, strings.Join(args, " "), color)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "✅ Created category #%d: %s\n", c.ID, c.Name)
		return nil
	}),
}

var categoryRmCmd = &cobra.Command{
	Use:     "rm <id|name>",
	Aliases: []string{"delete"},
	Short:   "Delete a category and its worktimes",
	Long:    `Delete a category together with its logged worktimes. Categories used by a series cannot be deleted.`,
	Args:    cobra.MinimumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		ref := strings.Join(args, " ")
		id, err := parseID("category", ref)
		if err != nil {
			cats, lerr := a.tracking.Categories(a.user.ID)
			if lerr != nil {
				return lerr
			}
			for _, c := range cats {
				if strings.EqualFold(c.Name, ref) {
					id, err = c.ID, nil
					break
				}
			}
			if err != nil {
				return fmt.Errorf("no category '%s'", ref)
			}
		}

		if err := a.tracking.DeleteCategory(a.user.ID, id); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "🗑️  Deleted category #%d\n", id)
		return nil
	}),
}

func init() {
	categoryLsCmd.Flags().Bool("json", false, "JSON output")
	categoryAddCmd.Flags().String("color", "", "Display color, e.g. #00B4A6")

	categoryCmd.AddCommand(categoryLsCmd)
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryRmCmd)
}
