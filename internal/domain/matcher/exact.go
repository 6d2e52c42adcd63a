package matcher

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// ExactStrategy extracts identifier-shaped substrings from the transaction's
// reference, description, and metadata, and resolves them via the index's
// exact maps. A hit on an identifier owned by several clients yields one
// ambiguous candidate per owner; the strategy never picks a winner among them.
type ExactStrategy struct {
	patterns []idPattern
	weights  map[string]float64
}

type idPattern struct {
	idType string
	re     *regexp.Regexp
}

// NewExactStrategy compiles the configured identifier patterns, failing fast
// on malformed configuration.
func NewExactStrategy(cfg *config.MatchingConfig) (*ExactStrategy, error) {
	patterns := make([]idPattern, 0, len(cfg.IdentifierPatterns))
	for _, idType := range cfg.IdentifierTypes() {
		re, err := regexp.Compile(cfg.IdentifierPatterns[idType])
		if err != nil {
			return nil, fmt.Errorf("%w: identifier_patterns.%s: %v", config.ErrInvalidConfiguration, idType, err)
		}
		weight, ok := cfg.ExactWeights[idType]
		if !ok {
			return nil, fmt.Errorf("%w: missing exact weight for identifier type %q", config.ErrInvalidConfiguration, idType)
		}
		if weight < 0.0 || weight > 1.0 {
			return nil, fmt.Errorf("%w: exact_weights.%s must be in [0,1]: %v", config.ErrInvalidConfiguration, idType, weight)
		}
		patterns = append(patterns, idPattern{idType: idType, re: re})
	}
	return &ExactStrategy{patterns: patterns, weights: cfg.ExactWeights}, nil
}

// Name implements Strategy.
func (s *ExactStrategy) Name() string { return MethodExact }

// Propose implements Strategy.
func (s *ExactStrategy) Propose(tx *Transaction, ix *registry.Index) ([]Candidate, error) {
	fields := searchFields(tx)

	var out []Candidate
	seen := make(map[string]bool)

	for _, p := range s.patterns {
		for _, f := range fields {
			for _, raw := range p.re.FindAllString(f.text, -1) {
				key := p.idType + "\x00" + registry.NormalizeIdentifier(p.idType, raw)
				if seen[key] {
					continue
				}
				seen[key] = true

				clients, ok := ix.Lookup(p.idType, raw)
				if !ok || len(clients) == 0 {
					continue
				}

				weight := s.weights[p.idType]
				if len(clients) == 1 {
					out = append(out, Candidate{
						ClientID: clients[0],
						Strategy: s.Name(),
						RawScore: weight,
						Rationale: []string{fmt.Sprintf(
							"exact: %s %q in %s matched client %s", p.idType, raw, f.name, clients[0])},
					})
					continue
				}

				// Ambiguous identifier: surface every owner, flagged.
				for _, clientID := range clients {
					out = append(out, Candidate{
						ClientID: clientID,
						Strategy: s.Name(),
						RawScore: weight,
						Rationale: []string{fmt.Sprintf(
							"exact: %s %q in %s is ambiguous across %d clients (includes %s)",
							p.idType, raw, f.name, len(clients), clientID)},
						Ambiguous: true,
					})
				}
			}
		}
	}

	return out, nil
}

type field struct {
	name string
	text string
}

// searchFields returns the transaction's text fields in a fixed order so
// extraction, and therefore the audit trail, is deterministic.
func searchFields(tx *Transaction) []field {
	fields := make([]field, 0, 2+len(tx.Metadata))
	if tx.Reference != "" {
		fields = append(fields, field{name: "reference", text: tx.Reference})
	}
	if tx.Description != "" {
		fields = append(fields, field{name: "description", text: tx.Description})
	}
	keys := make([]string, 0, len(tx.Metadata))
	for k := range tx.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := tx.Metadata[k]; v != "" {
			fields = append(fields, field{name: "metadata." + k, text: v})
		}
	}
	return fields
}
