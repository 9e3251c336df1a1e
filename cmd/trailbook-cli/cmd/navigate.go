package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trailbook/internal/application/commands"
)

var gotoCmd = &cobra.Command{
	Use:   "goto <node>",
	Short: "Make a node current",
	Long: `Make a node current. The node can be given by its ID, a unique ID
prefix, or one of the keywords root and current.

Examples:
  trailbook-cli -e cell-1 goto 3f2a9c1b
  trailbook-cli -e cell-1 goto root`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewNavigateCommand(h, args[0]).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Move to the parent of the current node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewUndoCommand(h).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Move to the newest child of the current node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewRedoCommand(h).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var resetReload bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the history of an entity",
	Long: `Discard the history of an entity and start over from a blank root.
The baseline specification is kept.

With --reload the saved history is re-read instead, discarding nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewResetCommand(h, resetReload).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetReload, "reload", false, "re-read the saved history")
	rootCmd.AddCommand(gotoCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(resetCmd)
}
