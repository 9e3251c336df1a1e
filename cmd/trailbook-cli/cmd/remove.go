package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trailbook/internal/application/commands"
)

var removeCmd = &cobra.Command{
	Use:     "rm <entity-id>",
	Aliases: []string{"remove"},
	Short:   "Delete the history and baseline of an entity",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		r := GetRuntime()
		result, err := commands.NewRemoveEntityCommand(r.Store, r.Index, args[0]).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
