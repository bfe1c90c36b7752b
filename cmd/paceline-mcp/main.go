package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/paceline/internal/config"
	"github.com/meltforce/paceline/internal/export"
	"github.com/meltforce/paceline/internal/export/garmin"
	"github.com/meltforce/paceline/internal/export/wahoo"
	"github.com/meltforce/paceline/internal/mcp"
	"github.com/meltforce/paceline/internal/storage"
	"github.com/meltforce/paceline/internal/vault"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Logs go to stderr; stdout is the MCP transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tokenVault := vault.New(cfg.Providers, db, log)
	registry := export.NewRegistry(garmin.Builder{}, wahoo.Builder{})
	apiClient := export.NewClient(cfg.Providers)
	orch := export.NewOrchestrator(db, db, tokenVault, apiClient, registry, log)

	srv := mcp.New(db, orch, Version, log)

	if err := server.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
