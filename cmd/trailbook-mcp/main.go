package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	mcpadapter "trailbook/internal/adapters/mcp"
	"trailbook/internal/adapters/metrics"
	"trailbook/internal/bootstrap"
	"trailbook/internal/config"
	"trailbook/internal/logging"
	"trailbook/internal/ports"
)

func main() {
	configFlag := flag.String("config", "", "config file (default "+config.ConfigPath()+")")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("trailbook-mcp: %v", err)
	}
	logger := logging.Must(cfg.Log)

	rt, err := bootstrap.New(cfg, logger)
	if err != nil {
		log.Fatalf("trailbook-mcp: %v", err)
	}
	defer rt.Close()

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.Handler(rt.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
		logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	mcpServer := server.NewMCPServer(
		"trailbook-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	open := func(ctx context.Context, entityID string) (ports.History, error) {
		return rt.Open(ctx, entityID)
	}
	mcpadapter.RegisterReadTools(mcpServer, rt.Store, open)
	mcpadapter.RegisterWriteTools(mcpServer, open)

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("stdio server stopped", zap.Error(err))
	}
}
