// Package recon drives the matching engine over a batch of transactions.
package recon

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caura/recon-engine/internal/domain/matcher"
	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/domain/report"
	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// Options holds per-run parameters.
type Options struct {
	// Platform tags the run and its report (e.g. "stripe", "bank").
	Platform string

	// SourceIdentifier names where the transactions came from (file path,
	// API endpoint) for the report.
	SourceIdentifier string
}

// Orchestrator runs the reconciliation batch. Transactions are independent
// units of work, so they are fanned out across workers that share only the
// read-only engine and index. Each worker writes into its own result slot;
// the coordinator aggregates after all workers finish, so no counter is ever
// shared mutable state.
type Orchestrator struct {
	engine  *matcher.Engine
	index   *registry.Index
	cfg     *config.MatchingConfig
	workers int
	logger  *slog.Logger
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(engine *matcher.Engine, index *registry.Index, cfg *config.MatchingConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Orchestrator{
		engine:  engine,
		index:   index,
		cfg:     cfg,
		workers: workers,
		logger:  logger,
	}
}

// Run matches every transaction and returns the finalized report. A single
// transaction's failure (strategy error, invalid data, panic) is recorded as
// an error-unmatched result and never aborts the batch: N transactions in,
// N results out.
func (o *Orchestrator) Run(ctx context.Context, transactions []*matcher.Transaction, opts Options) *report.ReconciliationReport {
	runID := fmt.Sprintf("%s_%s", opts.Platform, uuid.New().String())
	started := time.Now()

	o.logger.Info("starting reconciliation run",
		"run_id", runID,
		"platform", opts.Platform,
		"transactions", len(transactions),
		"registry_size", o.index.Size(),
		"workers", o.workers,
	)

	results := make([]matcher.MatchResult, len(transactions))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.matchOne(ctx, transactions[i])
			}
		}()
	}

	for i := range transactions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(started)
	rep := report.FromMatchResults(runID, opts.Platform, opts.SourceIdentifier,
		results, o.cfg.ConfidenceThresholds, elapsed.Seconds())

	o.logger.Info("reconciliation run complete",
		"run_id", runID,
		"matched", rep.MatchedTransactions,
		"unmatched", rep.UnmatchedTransactions,
		"requires_review", rep.RequiresReview,
		"duration", elapsed,
	)

	return rep
}

// matchOne isolates a single transaction: strategy errors come back as error
// results from the engine, and a panic inside matching is converted to one
// here instead of taking down the run.
func (o *Orchestrator) matchOne(ctx context.Context, tx *matcher.Transaction) (result matcher.MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while matching transaction", "transaction_id", tx.ID, "panic", r)
			result = matcher.ErrorResult(tx.ID, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return matcher.ErrorResult(tx.ID, fmt.Errorf("run cancelled: %w", err))
	}

	result = o.engine.MatchTransaction(tx, o.index)
	if result.MatchMethod == matcher.MethodError {
		o.logger.Warn("transaction recorded as processing error",
			"transaction_id", tx.ID, "audit", result.AuditTrail)
	}
	return result
}
