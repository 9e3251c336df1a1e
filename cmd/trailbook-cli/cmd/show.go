package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"trailbook/internal/adapters/kernel"
	"trailbook/internal/application/commands"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show [node]",
	Short: "Show the state recorded at a node",
	Long: `Show the state recorded at a node: its message, its interactions and
the interaction that produced it. Defaults to the current node.

Examples:
  trailbook-cli -e cell-1 show
  trailbook-cli -e cell-1 show root --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		res, err := commands.NewShowCommand(h, optionalArg(args)).Execute(ctx)
		if err != nil {
			return err
		}
		doc := map[string]any{
			"id":         res.Node.ID,
			"parent":     res.Node.ParentID,
			"label":      res.Node.Label,
			"created_at": res.Node.CreatedAt,
			"current":    res.IsCurrent,
			"state":      res.State,
		}
		if res.Interaction != nil {
			doc["interaction"] = res.Interaction
		}
		return writeDocument(os.Stdout, doc, showFormat)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [node]",
	Short: "Print the pandas query of the brushes at a node",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		res, err := commands.NewQueryCommand(h, optionalArg(args)).Execute(ctx)
		if err != nil {
			return err
		}
		if res.Query == "" {
			return fmt.Errorf("no brush applied at %s", res.NodeID)
		}
		fmt.Println(res.Query)
		return nil
	},
}

var (
	extractPrelude bool
	extractTimeout time.Duration
	extractRecords bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <dataframe> [node]",
	Short: "Select the brushed rows of a dataframe with Python",
	Long: `Run pandas code selecting the rows of a dataframe that satisfy the
brushes recorded at a node, and print them as JSON records.

Examples:
  trailbook-cli -e cell-1 extract cars
  trailbook-cli -e cell-1 extract cars 3f2a9c1b --prelude --records`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
		defer cancel()

		executor := GetRuntime().Executor
		if !executor.IsAvailable() {
			return fmt.Errorf("python interpreter %q not found", GetRuntime().Config.Kernel.Python)
		}
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		nodeRef := ""
		if len(args) > 1 {
			nodeRef = args[1]
		}
		res, err := commands.NewExtractCommand(h, executor, args[0], nodeRef, extractPrelude).Execute(ctx)
		if err != nil {
			return err
		}
		out, err := res.Execution.Wait(ctx)
		if err != nil {
			return err
		}
		if out.ExitCode != 0 {
			return fmt.Errorf("extraction failed (exit %d): %s", out.ExitCode, out.Stderr)
		}
		if !extractRecords {
			fmt.Print(out.Stdout)
			return nil
		}
		records, err := kernel.ParseRecords(out.Stdout)
		if err != nil {
			return err
		}
		return writeDocument(os.Stdout, records, "json")
	},
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// writeDocument renders v as indented JSON or YAML. YAML keys follow the
// JSON field names.
func writeDocument(w io.Writer, v any, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (expected yaml or json)", format)
	}
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "yaml", "output format (yaml or json)")
	extractCmd.Flags().BoolVar(&extractPrelude, "prelude", false, "import the configured prelude module first")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "maximum run time")
	extractCmd.Flags().BoolVar(&extractRecords, "records", false, "pretty-print the selected records")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(extractCmd)
}
