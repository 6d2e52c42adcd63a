package matcher

import (
	"fmt"
	"regexp"

	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// PatternStrategy applies configured extraction regexes to the reference and
// description, then resolves the extracted token. Tokens that resolve through
// the exact identifier maps score at the top of the configured band; tokens
// that only resolve by normalized display-name equality score at the bottom.
type PatternStrategy struct {
	patterns []extractionPattern
	bandMin  float64
	bandMax  float64
}

type extractionPattern struct {
	name string
	re   *regexp.Regexp
}

// NewPatternStrategy compiles the configured extraction patterns, failing
// fast on malformed configuration.
func NewPatternStrategy(cfg *config.MatchingConfig) (*PatternStrategy, error) {
	p := cfg.Pattern
	if p.BandMin < 0.0 || p.BandMax > 1.0 || p.BandMin > p.BandMax {
		return nil, fmt.Errorf("%w: pattern_matching band must satisfy 0 <= band_min <= band_max <= 1", config.ErrInvalidConfiguration)
	}

	patterns := make([]extractionPattern, 0, len(p.Patterns))
	for _, np := range p.Patterns {
		re, err := regexp.Compile(np.Regex)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern_matching.patterns.%s: %v", config.ErrInvalidConfiguration, np.Name, err)
		}
		patterns = append(patterns, extractionPattern{name: np.Name, re: re})
	}

	return &PatternStrategy{
		patterns: patterns,
		bandMin:  p.BandMin,
		bandMax:  p.BandMax,
	}, nil
}

// Name implements Strategy.
func (s *PatternStrategy) Name() string { return MethodPattern }

// Propose implements Strategy.
func (s *PatternStrategy) Propose(tx *Transaction, ix *registry.Index) ([]Candidate, error) {
	var out []Candidate
	seen := make(map[string]bool)

	for _, p := range s.patterns {
		for _, f := range searchFields(tx) {
			for _, m := range p.re.FindAllStringSubmatch(f.text, -1) {
				token := m[0]
				if len(m) > 1 && m[1] != "" {
					token = m[1]
				}
				if token == "" || seen[token] {
					continue
				}
				seen[token] = true

				out = append(out, s.resolve(p.name, f.name, token, ix)...)
			}
		}
	}

	return out, nil
}

// resolve maps an extracted token to candidates, preferring the exact
// identifier maps over textual name equality.
func (s *PatternStrategy) resolve(patternName, fieldName, token string, ix *registry.Index) []Candidate {
	if idType, clients, ok := ix.LookupToken(token); ok {
		if len(clients) == 1 {
			return []Candidate{{
				ClientID: clients[0],
				Strategy: s.Name(),
				RawScore: s.bandMax,
				Rationale: []string{fmt.Sprintf(
					"pattern: %s extracted %q from %s; resolved via %s map to client %s",
					patternName, token, fieldName, idType, clients[0])},
			}}
		}

		cands := make([]Candidate, 0, len(clients))
		for _, clientID := range clients {
			cands = append(cands, Candidate{
				ClientID: clientID,
				Strategy: s.Name(),
				RawScore: s.bandMax,
				Rationale: []string{fmt.Sprintf(
					"pattern: %s extracted %q from %s; %s map is ambiguous across %d clients (includes %s)",
					patternName, token, fieldName, idType, len(clients), clientID)},
				Ambiguous: true,
			})
		}
		return cands
	}

	// Textual-only fallback: token equals a normalized display name.
	clients := ix.LookupName(token)
	cands := make([]Candidate, 0, len(clients))
	for _, clientID := range clients {
		cands = append(cands, Candidate{
			ClientID: clientID,
			Strategy: s.Name(),
			RawScore: s.bandMin,
			Rationale: []string{fmt.Sprintf(
				"pattern: %s extracted %q from %s; matched display name of client %s",
				patternName, token, fieldName, clientID)},
			Ambiguous: len(clients) > 1,
		})
	}
	return cands
}
