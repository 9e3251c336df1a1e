package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trailbook/internal/application"
	"trailbook/internal/application/commands"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List entities with a recorded history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		entities, err := commands.NewListEntitiesCommand(GetRuntime().Store).Execute(ctx)
		if err != nil {
			return err
		}

		for _, e := range entities {
			if e.HasBaseline {
				fmt.Println(e.ID)
			} else {
				fmt.Printf("%s (no baseline)\n", e.ID)
			}
		}
		return nil
	},
}

var logFull bool

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Display the history tree of an entity",
	Long: `Display the history tree of an entity. The current node is marked with *.

Examples:
  trailbook-cli -e cell-1 log
  trailbook-cli -e cell-1 log --full`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		res, err := commands.NewTreeCommand(h).Execute(ctx)
		if err != nil {
			return err
		}
		printTree(os.Stdout, res.Root, "", logFull)
		return nil
	},
}

func printTree(w io.Writer, node *application.TreeNode, indent string, full bool) {
	marker := " "
	if node.IsCurrent {
		marker = "*"
	}
	id := node.ID
	if !full {
		id = application.ShortID(id)
	}
	fmt.Fprintf(w, "%s%s %s %s (%s)\n", indent, marker, id, node.Label, node.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, child := range node.Children {
		printTree(w, child, indent+"  ", full)
	}
}

func init() {
	logCmd.Flags().BoolVar(&logFull, "full", false, "print full node IDs")
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(logCmd)
}
