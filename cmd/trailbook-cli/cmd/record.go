package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trailbook/internal/application/commands"
	"trailbook/internal/bootstrap"
	"trailbook/internal/domain"
)

var (
	initSpec  string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Store the baseline specification of an entity",
	Long: `Store the baseline specification of an entity. Every history node
is rendered by applying its interactions on top of the baseline.

Examples:
  trailbook-cli -e cell-1 init --spec chart.vl.json
  cat chart.vl.json | trailbook-cli -e cell-1 init --spec - --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		spec, err := bootstrap.ReadSpec(initSpec)
		if err != nil {
			return err
		}
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewInitCommand(h, spec, initForce).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var brushCmd = &cobra.Command{
	Use:   "brush <selection> <field=lo:hi>...",
	Short: "Record an interval selection",
	Long: `Record an interval selection on the active specification, as if the
user had brushed the chart.

Examples:
  trailbook-cli -e cell-1 brush brush horsepower=50:120
  trailbook-cli -e cell-1 brush brush x=0:10 y=-2.5:2.5`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ranges, err := parseRangeArgs(args[1:])
		if err != nil {
			return err
		}
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewBrushCommand(h, args[0], ranges).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Turn the current brushes into a filter transform",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := requireEntity(); err != nil {
			return err
		}
		binding, _, err := GetRuntime().Bind(ctx, entityID)
		if err != nil {
			return err
		}
		result, err := commands.NewFilterCommand(binding).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var noteCmd = &cobra.Command{
	Use:   "note <message>",
	Short: "Record a message as a new node",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewMessageCommand(h, strings.Join(args, " ")).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Recorded %s\n", result.NodeID)
		return nil
	},
}

// parseRangeArgs parses field=lo:hi arguments
func parseRangeArgs(args []string) (map[string]domain.Range, error) {
	ranges := make(map[string]domain.Range, len(args))
	for _, arg := range args {
		field, bounds, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid range %q (expected field=lo:hi)", arg)
		}
		loStr, hiStr, ok := strings.Cut(bounds, ":")
		if !ok {
			return nil, fmt.Errorf("invalid range %q (expected field=lo:hi)", arg)
		}
		lo, err := strconv.ParseFloat(loStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound in %q: %w", arg, err)
		}
		hi, err := strconv.ParseFloat(hiStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound in %q: %w", arg, err)
		}
		ranges[field] = domain.Range{lo, hi}
	}
	return ranges, nil
}

func init() {
	initCmd.Flags().StringVarP(&initSpec, "spec", "s", "", "specification file (- for stdin)")
	_ = initCmd.MarkFlagRequired("spec")
	initCmd.Flags().BoolVar(&initForce, "force", false, "replace an existing baseline")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(brushCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(noteCmd)
}
