package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/config"
	"github.com/meltforce/paceline/internal/export"
	"github.com/meltforce/paceline/internal/export/garmin"
	"github.com/meltforce/paceline/internal/export/wahoo"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/server"
	"github.com/meltforce/paceline/internal/storage"
	"github.com/meltforce/paceline/internal/vault"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	seedEmail := flag.String("seed", "", "seed an athlete (by email) with a sample session and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Paceline starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	if *seedEmail != "" {
		if err := seed(ctx, db, *seedEmail); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		log.Info("seeded sample data", "email", *seedEmail)
		return
	}

	// Export pipeline
	tokenVault := vault.New(cfg.Providers, db, log)
	states := vault.NewStateStore(vault.DefaultStateTTL)
	registry := export.NewRegistry(garmin.Builder{}, wahoo.Builder{})
	apiClient := export.NewClient(cfg.Providers)
	orch := export.NewOrchestrator(db, db, tokenVault, apiClient, registry, log)
	log.Info("exporters registered", "providers", registry.IDs())

	// Create server
	srv := server.New(db, orch, tokenVault, states, cfg.Providers, cfg.Auth.APIKey, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// seed gives a fresh install something to export: an athlete row and one
// endurance session with a realistic bike prescription.
func seed(ctx context.Context, db *storage.DB, email string) error {
	athleteID, err := db.GetOrCreateAthlete(ctx, email, "Sample Athlete")
	if err != nil {
		return fmt.Errorf("creating athlete: %w", err)
	}
	if a, err := db.GetAthlete(ctx, athleteID); err != nil {
		return fmt.Errorf("reading athlete back: %w", err)
	} else if a == nil {
		return fmt.Errorf("athlete %s vanished after insert", athleteID)
	}

	zone := 3
	session := &models.TrainingSession{
		ID:           uuid.New(),
		AthleteID:    athleteID,
		Type:         models.SessionEndurance,
		Title:        "Tempo intervals",
		ScheduledFor: time.Now().Add(24 * time.Hour),
		Prescription: &models.Prescription{
			Sport:     models.SportBike,
			Objective: "Steady tempo blocks",
			Blocks: []models.Block{
				{Step: &models.PrescriptionStep{
					Type:     models.StepWarmup,
					Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 600},
				}},
				{Repeat: &models.RepeatBlock{
					Count: 3,
					Steps: []models.PrescriptionStep{
						{
							Type:     models.StepWork,
							Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 480},
							Target:   &models.PrescriptionTarget{Kind: models.TargetPower, Zone: &zone},
						},
						{
							Type:     models.StepRecovery,
							Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 120},
						},
					},
				}},
				{Step: &models.PrescriptionStep{
					Type:     models.StepCooldown,
					Duration: models.PrescriptionDuration{Type: models.DurationTime, Value: 300},
				}},
			},
		},
		ExportStatus: models.ExportNotConnected,
	}
	if err := db.CreateSession(ctx, session); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}
