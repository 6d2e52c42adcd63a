package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/caura/recon-engine/internal/api"
	"github.com/caura/recon-engine/internal/infrastructure/config"
	"github.com/caura/recon-engine/internal/infrastructure/logging"
	"github.com/caura/recon-engine/internal/infrastructure/storage"
)

func main() {
	configFile := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var cfg *config.Config
	if *configFile != "" {
		cfg = config.LoadOrEnvWithPath(*configFile)
	} else {
		cfg = config.LoadOrEnv()
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize storage",
			slog.String("path", cfg.Storage.DatabasePath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer store.Close()

	server := api.NewServer(cfg, store, logger)
	if err := server.Run(fmt.Sprintf(":%d", cfg.API.Port)); err != nil {
		logger.Error("API server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
