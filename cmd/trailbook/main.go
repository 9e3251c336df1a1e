package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"trailbook/internal/adapters/editor"
	"trailbook/internal/adapters/tui"
	"trailbook/internal/bootstrap"
	"trailbook/internal/config"
	"trailbook/internal/logging"
	"trailbook/internal/ports"
)

func main() {
	configFlag := flag.String("config", "", "config file (default "+config.ConfigPath()+")")
	entityFlag := flag.String("entity", "", "open this entity directly")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// The terminal belongs to the TUI
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(bootstrap.DataDir(), "trailbook.log")
	}

	rt, err := bootstrap.New(cfg, logging.Must(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	open := func(ctx context.Context, entityID string) (ports.History, error) {
		return rt.Open(ctx, entityID)
	}

	var opts []tui.Option
	if *entityFlag != "" {
		opts = append(opts, tui.WithEntity(*entityFlag))
	}
	app := tui.NewApp(rt.Store, open, editor.NewOpener(), opts...)

	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		rt.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
