package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caura/recon-engine/internal/application/recon"
	"github.com/caura/recon-engine/internal/cli"
	"github.com/caura/recon-engine/internal/domain/matcher"
	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/domain/report"
	"github.com/caura/recon-engine/internal/gateway"
	"github.com/caura/recon-engine/internal/infrastructure/config"
	"github.com/caura/recon-engine/internal/infrastructure/logging"
	"github.com/caura/recon-engine/internal/infrastructure/storage"
)

func main() {
	flags := cli.ParseReconFlags()

	cfg := loadConfig(flags.ConfigFile)
	if flags.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLogger(cfg.Observability.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	clientMapPath := flags.ClientMap
	if clientMapPath == "" {
		clientMapPath = cfg.Paths.ClientMap
	}
	records, err := gateway.LoadClientMap(clientMapPath)
	if err != nil {
		logger.Error("Failed to load client map",
			slog.String("file", clientMapPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	index, err := registry.BuildIndex(records, &cfg.Matching)
	if err != nil {
		logger.Error("Failed to build registry index", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Registry loaded",
		slog.String("file", clientMapPath),
		slog.Int("clients", index.Size()),
	)

	transactions, err := loadTransactions(flags)
	if err != nil {
		logger.Error("Failed to load transactions",
			slog.String("file", flags.Transactions),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	engine, err := matcher.NewEngine(&cfg.Matching)
	if err != nil {
		logger.Error("Failed to build matching engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize run storage",
			slog.String("path", cfg.Storage.DatabasePath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer store.Close()

	cli.PrintHeader(flags.Platform)

	orchestrator := recon.NewOrchestrator(engine, index, &cfg.Matching, logger)
	rep := orchestrator.Run(context.Background(), transactions, flags.ToRunOptions())

	outputDir := flags.OutputDir
	if outputDir == "" {
		outputDir = cfg.Paths.OutputBase
	}
	reportPath, err := exportReport(rep, outputDir)
	if err != nil {
		logger.Error("Failed to export report", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Report written", slog.String("path", reportPath))

	if err := store.SaveRun(rep); err != nil {
		logger.Error("Failed to save run history",
			slog.String("run_id", rep.RunID),
			slog.String("error", err.Error()),
		)
	}

	cli.PrintReportSummary(rep)
	cli.PrintAllTimeStats(store)
}

func loadConfig(configFile string) *config.Config {
	if configFile != "" {
		return config.LoadOrEnvWithPath(configFile)
	}
	return config.LoadOrEnv()
}

func loadTransactions(flags cli.ReconFlags) ([]*matcher.Transaction, error) {
	if flags.Transactions == "" {
		return nil, fmt.Errorf("no transactions file given (use -transactions)")
	}
	switch flags.Format {
	case "csv":
		return gateway.LoadTransactionsCSV(flags.Transactions, flags.Platform)
	case "json":
		return gateway.LoadTransactionsJSON(flags.Transactions)
	default:
		return nil, fmt.Errorf("unknown format %q (want json or csv)", flags.Format)
	}
}

func exportReport(rep *report.ReconciliationReport, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, rep.RunID+".json")
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}
