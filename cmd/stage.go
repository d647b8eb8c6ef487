package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/sealdrop/internal/ui"
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

var stageAddAll bool

// StageCmd groups the commands that manage the staged selection.
var StageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Manage the files staged for the next batch",
	Long: `Files are staged relative to a browsing context directory. Only files
with the configured extension can be staged. Changing the context clears
the selection.

Examples:
  sealdrop stage cd exports/2024
  sealdrop stage add orders.csv 'q*.csv'
  sealdrop stage add --all
  sealdrop stage rm orders.csv
  sealdrop stage ls`,
}

func init() {
	stageAddCmd.Flags().BoolVarP(&stageAddAll, "all", "a", false, "stage every eligible file in the context")

	StageCmd.AddCommand(stageCdCmd)
	StageCmd.AddCommand(stageAddCmd)
	StageCmd.AddCommand(stageRmCmd)
	StageCmd.AddCommand(stageClearCmd)
	StageCmd.AddCommand(stageLsCmd)
}

// resetStageCommandState resets the stage commands' global state for testing.
func resetStageCommandState() {
	stageAddAll = false
}

// stageFailed prints err and decides whether the command fails.
func stageFailed(err error) error {
	fmt.Println(formatError(err))
	if isUnexpectedError(err) {
		return reported(err)
	}
	return nil
}

func printSelection(result *workflows.StageResult) {
	fmt.Println(ui.Arrow() + " Context: " + ui.Path.Sprint(result.Context))
	if len(result.Staged) == 0 {
		fmt.Println("  " + ui.Muted.Sprint("nothing staged"))
		return
	}
	for _, name := range result.Staged {
		fmt.Println("  " + ui.Check() + " " + name)
	}
}

var stageCdCmd = &cobra.Command{
	Use:   "cd <dir>",
	Short: "Change the browsing context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.StageChangeDir(context.Background(), args[0])
		if err != nil {
			return stageFailed(err)
		}
		if result.Cleared {
			fmt.Println(ui.Alert() + " Selection cleared")
		}
		fmt.Println(ui.Check() + " Context is now " + ui.Path.Sprint(result.Context))
		return nil
	},
}

var stageAddCmd = &cobra.Command{
	Use:   "add [files or globs...]",
	Short: "Stage eligible files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !stageAddAll && len(args) == 0 {
			return fmt.Errorf("provide files to stage or use --all")
		}
		result, err := workflows.StageAdd(context.Background(), workflows.StageAddOptions{
			Patterns: args,
			All:      stageAddAll,
		})
		if err != nil {
			return stageFailed(err)
		}
		fmt.Printf("%s Staged %d new file(s)\n", ui.Check(), result.Changed)
		printSelection(result)
		return nil
	},
}

var stageRmCmd = &cobra.Command{
	Use:   "rm <files...>",
	Short: "Remove files from the selection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.StageRemove(context.Background(), args)
		if err != nil {
			return stageFailed(err)
		}
		fmt.Printf("%s Removed %d file(s)\n", ui.Check(), result.Changed)
		printSelection(result)
		return nil
	},
}

var stageClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.StageClear(context.Background())
		if err != nil {
			return stageFailed(err)
		}
		fmt.Printf("%s Cleared %d file(s)\n", ui.Check(), result.Changed)
		return nil
	},
}

var stageLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show the selection and the eligible files around it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.StageList(context.Background())
		if err != nil {
			return stageFailed(err)
		}

		var b strings.Builder
		b.WriteString(ui.Arrow() + " Context: " + ui.Path.Sprint(result.Context) + "\n")
		b.WriteString("\nStaged:\n")
		if len(result.Staged) == 0 {
			b.WriteString("  " + ui.Muted.Sprint("nothing staged") + "\n")
		}
		for _, name := range result.Staged {
			b.WriteString("  " + ui.Check() + " " + name + "\n")
		}
		if len(result.Available) > 0 {
			b.WriteString("\nAvailable:\n")
			for _, name := range result.Available {
				b.WriteString("    " + name + "\n")
			}
		}
		if len(result.Directories) > 0 {
			b.WriteString("\nDirectories:\n")
			for _, name := range result.Directories {
				b.WriteString("    " + ui.Path.Sprint(name+"/") + "\n")
			}
		}
		fmt.Print(b.String())
		return nil
	},
}
