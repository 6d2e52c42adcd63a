package matcher

import (
	"fmt"

	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// Engine composes the enabled strategies and the arbiter. One engine is
// built per run and shared read-only across workers.
type Engine struct {
	strategies []Strategy
	cfg        *config.MatchingConfig
}

// NewEngine validates the matching configuration and constructs the enabled
// strategies in their fixed invocation order: exact, fuzzy, pattern.
func NewEngine(cfg *config.MatchingConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var strategies []Strategy

	if cfg.StrategyEnabled(MethodExact) {
		s, err := NewExactStrategy(cfg)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	if cfg.StrategyEnabled(MethodFuzzy) {
		s, err := NewFuzzyStrategy(cfg)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	if cfg.StrategyEnabled(MethodPattern) {
		s, err := NewPatternStrategy(cfg)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}

	if len(strategies) == 0 {
		return nil, fmt.Errorf("%w: no strategies enabled", config.ErrInvalidConfiguration)
	}

	return &Engine{strategies: strategies, cfg: cfg}, nil
}

// MatchTransaction runs every enabled strategy against the transaction and
// arbitrates the combined candidate list. Failures are absorbed into an
// error-unmatched result; this method never aborts a batch.
func (e *Engine) MatchTransaction(tx *Transaction, ix *registry.Index) MatchResult {
	if err := tx.Validate(); err != nil {
		return ErrorResult(tx.ID, err)
	}

	var candidates []Candidate
	for _, s := range e.strategies {
		cands, err := s.Propose(tx, ix)
		if err != nil {
			return ErrorResult(tx.ID, fmt.Errorf("%s strategy: %w", s.Name(), err))
		}
		candidates = append(candidates, cands...)
	}

	return Decide(tx.ID, candidates, e.cfg)
}

// Strategies returns the names of the enabled strategies in invocation order.
func (e *Engine) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	return names
}

// ErrorResult records a per-transaction processing failure as an unmatched
// result flagged for review. The error never propagates past the transaction.
func ErrorResult(transactionID string, err error) MatchResult {
	return MatchResult{
		TransactionID:  transactionID,
		MatchMethod:    MethodError,
		AuditTrail:     []string{fmt.Sprintf("processing error: %v", err)},
		RequiresReview: true,
	}
}
