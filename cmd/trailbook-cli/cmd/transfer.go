package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"trailbook/internal/adapters/sqlite"
	"trailbook/internal/application/commands"
	"trailbook/internal/bootstrap"
	"trailbook/internal/config"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history of an entity as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewExportCommand(h).Execute(ctx)
		if err != nil {
			return err
		}
		if exportOutput == "" || exportOutput == "-" {
			fmt.Println(result.Export)
			return nil
		}
		if err := os.WriteFile(exportOutput, []byte(result.Export), 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Printf("Exported %d nodes to %s\n", result.Nodes, exportOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the history of an entity with an export",
	Long: `Replace the history of an entity with an export. Use - to read the
export from standard input.

Examples:
  trailbook-cli -e cell-1 export -o cell-1.json
  trailbook-cli -e cell-2 import cell-1.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		h, err := openHistory(ctx)
		if err != nil {
			return err
		}
		result, err := commands.NewImportCommand(h, string(data)).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var (
	migrateFrom      string
	migrateFromPath  string
	migrateOverwrite bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy histories from another store into the SQLite database",
	Long: `Copy every history and baseline from another store into the
configured SQLite database. Entities already present are skipped unless
--overwrite is given.

Examples:
  trailbook-cli migrate --from filesystem --from-path ~/.local/share/trailbook/entities
  trailbook-cli migrate --from badger --overwrite`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		target, ok := GetRuntime().Store.(*sqlite.Store)
		if !ok {
			return fmt.Errorf("migrate requires the sqlite store driver, configured: %s", GetRuntime().Config.Store.Driver)
		}
		if migrateFrom == config.DriverSQLite {
			return fmt.Errorf("source and target are both sqlite")
		}

		src, err := bootstrap.OpenStore(config.StoreConfig{Driver: migrateFrom, Path: migrateFromPath}, GetRuntime().Logger)
		if err != nil {
			return err
		}
		defer src.Close()

		stats, err := target.Import(ctx, src, migrateOverwrite)
		if err != nil {
			return err
		}
		fmt.Printf("Migrated %d entities (%d keys, %d skipped) in %s\n",
			stats.Entities, stats.Keys, stats.Skipped, stats.Duration.Round(time.Millisecond))
		return nil
	},
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write the export to a file")
	migrateCmd.Flags().StringVar(&migrateFrom, "from", config.DriverFilesystem, "source store driver (filesystem, badger or memory)")
	migrateCmd.Flags().StringVar(&migrateFromPath, "from-path", "", "source store location (default: the driver's default)")
	migrateCmd.Flags().BoolVar(&migrateOverwrite, "overwrite", false, "replace histories already in the database")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
}
