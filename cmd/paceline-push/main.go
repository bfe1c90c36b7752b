package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/push"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Paceline server URL")
	apiKey := flag.String("api-key", os.Getenv("PACELINE_AUTH_API_KEY"), "API key for the export endpoint")
	athlete := flag.String("athlete", "", "athlete UUID to sweep (required)")
	stateDir := flag.String("state-dir", defaultStateDir(), "directory for the local state database")
	force := flag.Bool("force", false, "re-export sessions even if the state db says they went out")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *athlete == "" || *apiKey == "" {
		fmt.Fprintf(os.Stderr, "Usage: paceline-push -athlete <uuid> -api-key <key> [-server url] [-state-dir dir] [-force]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	athleteID, err := uuid.Parse(*athlete)
	if err != nil {
		log.Error("invalid athlete UUID", "athlete", *athlete)
		os.Exit(1)
	}

	state, err := push.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := push.NewClient(*serverURL, *apiKey)

	sessions, err := client.ListSessions(athleteID)
	if err != nil {
		log.Error("failed to list sessions", "error", err)
		os.Exit(1)
	}

	var pushed, skipped, failed int
	for _, s := range sessions {
		if s.ExportStatus == models.ExportSent && !*force {
			skipped++
			continue
		}

		fingerprint := push.Fingerprint(s.Prescription)
		if !*force {
			done, err := state.IsExported(s.ID.String(), fingerprint)
			if err != nil {
				log.Error("state lookup failed", "session", s.ID, "error", err)
				os.Exit(1)
			}
			if done {
				skipped++
				continue
			}
		}

		result, err := client.Export(s.ID, athleteID)
		if err != nil {
			log.Warn("export failed", "session", s.ID, "title", s.Title, "error", err)
			failed++
			continue
		}

		provider := ""
		if result.Provider != nil {
			provider = *result.Provider
		}
		if result.Status == models.ExportSent {
			if err := state.MarkExported(s.ID.String(), fingerprint, provider); err != nil {
				log.Error("recording export failed", "session", s.ID, "error", err)
			}
			log.Info("exported", "session", s.ID, "title", s.Title, "provider", provider)
			pushed++
		} else {
			log.Warn("export not sent", "session", s.ID, "status", result.Status)
			failed++
		}
	}

	log.Info("sweep complete", "pushed", pushed, "skipped", skipped, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paceline"
	}
	return home + "/.paceline"
}
