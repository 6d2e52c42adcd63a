package matcher

import (
	"fmt"
	"strings"

	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// Decide combines all candidates for one transaction into a single ranked
// decision. It is a pure function: identical (candidates, cfg) always yield a
// byte-identical MatchResult, audit trail included.
//
// Strategies corroborate, they do not sum: a client's score is the maximum
// raw score among its candidates, plus a fixed bonus when two or more
// independent strategies agree on it without relying on ambiguous identifier
// hits alone. Ties at the top across distinct clients never auto-match.
func Decide(transactionID string, candidates []Candidate, cfg *config.MatchingConfig) MatchResult {
	if len(candidates) == 0 {
		return MatchResult{
			TransactionID: transactionID,
			MatchMethod:   MethodNoMatch,
			AuditTrail:    []string{"no candidates produced"},
		}
	}

	trail := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		trail = append(trail, c.Rationale...)
	}

	groups := groupCandidates(candidates)

	// Score each group: max raw score, then the corroboration bonus when at
	// least two distinct strategies contributed non-ambiguous candidates.
	for _, g := range groups {
		g.score = g.maxRaw
		if len(g.unambiguousStrategies) >= 2 {
			g.score += cfg.CorroborationBonus
			if g.score > 1.0 {
				g.score = 1.0
			}
		}
	}

	winner := groups[0]
	tied := []string{winner.clientID}
	for _, g := range groups[1:] {
		switch {
		case g.score > winner.score:
			winner = g
			tied = []string{g.clientID}
		case g.score == winner.score:
			tied = append(tied, g.clientID)
		}
	}

	thresholds := cfg.ConfidenceThresholds

	if len(tied) > 1 {
		trail = append(trail, fmt.Sprintf(
			"arbitration: tie between clients %s at score %.4f; no automatic match; requires review",
			strings.Join(tied, ", "), winner.score))
		return MatchResult{
			TransactionID:   transactionID,
			ConfidenceScore: winner.score,
			MatchMethod:     MethodNoMatch,
			AuditTrail:      trail,
			RequiresReview:  true,
		}
	}

	matched, review := classify(winner.score, thresholds)

	// A winner carried only by ambiguous identifier hits is never
	// auto-accepted, whatever its band.
	if len(winner.unambiguousStrategies) == 0 && matched {
		review = true
	}

	result := MatchResult{
		TransactionID:   transactionID,
		ConfidenceScore: winner.score,
		MatchMethod:     winner.method,
		IsMatched:       matched,
		RequiresReview:  review,
	}
	if matched {
		result.ClientID = winner.clientID
	}

	trail = append(trail, fmt.Sprintf(
		"arbitration: client %s scored %.4f via %s; classification=%s",
		winner.clientID, winner.score, winner.method, classification(matched, review)))
	result.AuditTrail = trail

	return result
}

type group struct {
	clientID string
	maxRaw   float64
	score    float64

	// method is the strategy of the first candidate reaching maxRaw, so the
	// reported match method follows strategy-invocation order.
	method string

	unambiguousStrategies map[string]struct{}
}

// groupCandidates groups by client ID, preserving first-appearance order.
func groupCandidates(candidates []Candidate) []*group {
	byClient := make(map[string]*group)
	var ordered []*group

	for _, c := range candidates {
		g, ok := byClient[c.ClientID]
		if !ok {
			g = &group{
				clientID:              c.ClientID,
				maxRaw:                c.RawScore,
				method:                c.Strategy,
				unambiguousStrategies: make(map[string]struct{}),
			}
			byClient[c.ClientID] = g
			ordered = append(ordered, g)
		} else if c.RawScore > g.maxRaw {
			g.maxRaw = c.RawScore
			g.method = c.Strategy
		}
		if !c.Ambiguous {
			g.unambiguousStrategies[c.Strategy] = struct{}{}
		}
	}

	return ordered
}

// classify applies the threshold bands; every band includes its lower edge.
func classify(score float64, t config.Thresholds) (matched, review bool) {
	switch {
	case score >= t.High:
		return true, false
	case score >= t.Medium:
		return true, true
	case score >= t.Low:
		return false, true
	default:
		return false, false
	}
}

func classification(matched, review bool) string {
	switch {
	case matched && !review:
		return "matched"
	case matched && review:
		return "matched_review"
	case review:
		return "unmatched_review"
	default:
		return "unmatched"
	}
}
