package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trailbook/internal/application"
	"trailbook/internal/bootstrap"
	"trailbook/internal/config"
	"trailbook/internal/history"
	"trailbook/internal/logging"
)

var (
	configPath string
	entityID   string
	rt         *bootstrap.Runtime
)

var rootCmd = &cobra.Command{
	Use:   "trailbook-cli",
	Short: "CLI for browsing and replaying interaction histories",
	Long: `trailbook-cli records and navigates the interaction history of
interactive visualizations.

Every brush, filter and message becomes a node of a provenance tree. The
commands below list, navigate, export and query those trees, and turn the
brushes recorded at a node into pandas code.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		rt, err = bootstrap.New(cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if rt == nil {
			return nil
		}
		return rt.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&entityID, "entity", "e", os.Getenv(config.EnvPrefix+"ENTITY"), "entity whose history to use")
}

// GetRuntime returns the initialized runtime
func GetRuntime() *bootstrap.Runtime {
	return rt
}

// openHistory opens the history of the entity selected with --entity
func openHistory(ctx context.Context) (*history.Manager, error) {
	if err := requireEntity(); err != nil {
		return nil, err
	}
	return GetRuntime().Open(ctx, entityID)
}

func requireEntity() error {
	if err := application.ValidateRequired("entityID", entityID); err != nil {
		return fmt.Errorf("%w (use --entity)", err)
	}
	return nil
}
