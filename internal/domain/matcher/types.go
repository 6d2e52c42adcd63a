// Package matcher implements the multi-strategy matching engine that links
// transactions to registry clients.
//
// Each strategy proposes candidates independently; scoring and arbitration
// combine them into one ranked, explained decision per transaction. Matching
// is a pure function of (transaction, registry index, configuration): the
// same inputs always produce a byte-identical result, audit trail included.
//
// Example usage:
//
//	engine, err := matcher.NewEngine(&cfg.Matching)
//	if err != nil {
//		// config.ErrInvalidConfiguration, fatal
//	}
//	result := engine.MatchTransaction(tx, index)
package matcher

import (
	"errors"
	"time"

	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/infrastructure/config"
	"github.com/shopspring/decimal"
)

// Match methods reported on a MatchResult.
const (
	MethodExact   = "exact"
	MethodFuzzy   = "fuzzy"
	MethodPattern = "pattern"
	MethodNoMatch = "no_match"
	MethodError   = "error"
)

// Transaction is one imported financial record. It is consumed read-only by
// the engine; importers own its creation.
type Transaction struct {
	ID          string            `json:"transaction_id"`
	Date        time.Time         `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Reference   string            `json:"reference,omitempty"`
	Platform    string            `json:"platform"`
	Metadata    map[string]string `json:"platform_metadata,omitempty"`
}

// Validate reports whether the transaction is processable at all. Failures
// here become error-unmatched results, never run aborts.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return errors.New("transaction has no id")
	}
	if t.Date.IsZero() {
		return errors.New("transaction has a missing or malformed date")
	}
	return nil
}

// Candidate is a proposed (transaction, client) pairing from one strategy.
// Candidates are ephemeral; they live for a single matching pass.
type Candidate struct {
	ClientID string
	Strategy string
	RawScore float64

	// Rationale lines are human-readable and become part of the audit trail.
	Rationale []string

	// Ambiguous marks a hit on an identifier shared by several clients.
	// Ambiguous candidates never win auto-acceptance on their own.
	Ambiguous bool
}

// Strategy proposes zero or more candidates for one transaction. Strategies
// are independent and order-insensitive; construction validates configuration
// and fails fast on bad patterns or out-of-range thresholds.
type Strategy interface {
	Name() string
	Propose(tx *Transaction, ix *registry.Index) ([]Candidate, error)
}

// MatchResult is the terminal, immutable decision for one transaction.
// Rematching produces a new MatchResult, never a revision.
type MatchResult struct {
	TransactionID   string   `json:"transaction_id"`
	ClientID        string   `json:"client_id,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	MatchMethod     string   `json:"match_method"`
	AuditTrail      []string `json:"audit_trail"`
	IsMatched       bool     `json:"is_matched"`
	RequiresReview  bool     `json:"requires_review"`
}

// ConfidenceLevel buckets the confidence score against the configured
// thresholds for reporting.
func (r *MatchResult) ConfidenceLevel(t config.Thresholds) string {
	switch {
	case r.ConfidenceScore >= t.High:
		return "high"
	case r.ConfidenceScore >= t.Medium:
		return "medium"
	default:
		return "low"
	}
}
