package matcher

import (
	"fmt"
	"strings"

	"github.com/caura/recon-engine/internal/domain/registry"
	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// FuzzyStrategy scores registry display names against the transaction's
// name-bearing text using normalized edit-distance similarity, then maps the
// raw similarity into the configured score band by linear scaling between
// the name threshold and 1.0. When the client's address also appears in the
// text above the address threshold, the candidate takes whichever scaled
// score is higher; address agreement can raise a score, never lower it.
type FuzzyStrategy struct {
	cfg config.FuzzyConfig
}

// NewFuzzyStrategy validates thresholds and band, failing fast on bad config.
func NewFuzzyStrategy(cfg *config.MatchingConfig) (*FuzzyStrategy, error) {
	f := cfg.Fuzzy
	for key, v := range map[string]float64{
		"name_threshold":    f.NameThreshold,
		"address_threshold": f.AddressThreshold,
		"band_min":          f.BandMin,
		"band_max":          f.BandMax,
	} {
		if v < 0.0 || v > 1.0 {
			return nil, fmt.Errorf("%w: fuzzy_matching.%s must be in [0,1]: %v", config.ErrInvalidConfiguration, key, v)
		}
	}
	if f.BandMin > f.BandMax {
		return nil, fmt.Errorf("%w: fuzzy_matching band_min must not exceed band_max", config.ErrInvalidConfiguration)
	}
	if f.NameThreshold >= 1.0 {
		return nil, fmt.Errorf("%w: fuzzy_matching.name_threshold must be below 1.0", config.ErrInvalidConfiguration)
	}
	return &FuzzyStrategy{cfg: f}, nil
}

// Name implements Strategy.
func (s *FuzzyStrategy) Name() string { return MethodFuzzy }

// Propose implements Strategy.
func (s *FuzzyStrategy) Propose(tx *Transaction, ix *registry.Index) ([]Candidate, error) {
	text := nameBearingText(tx)
	if text == "" {
		return nil, nil
	}
	normText := registry.NormalizeName(text)
	addrText := registry.NormalizeAddress(text)

	var out []Candidate
	proposed := make(map[string]bool)

	for _, entry := range ix.NameCandidates(text) {
		if proposed[entry.ClientID] {
			continue
		}

		nameSim := windowSimilarity(entry.Normalized, normText)
		if nameSim < s.cfg.NameThreshold {
			continue
		}
		proposed[entry.ClientID] = true

		score := s.scale(nameSim)
		rationale := []string{fmt.Sprintf(
			"fuzzy: name %q similar to %q (similarity %.4f, scaled %.4f)",
			entry.Display, text, nameSim, score)}

		if addr, ok := ix.AddressOf(entry.ClientID); ok {
			if addrSim := windowSimilarity(addr, addrText); addrSim >= s.cfg.AddressThreshold {
				if addrScore := s.scaleAddress(addrSim); addrScore > score {
					score = addrScore
				}
				rationale = append(rationale, fmt.Sprintf(
					"fuzzy: address %q corroborates client %s (similarity %.4f)",
					addr, entry.ClientID, addrSim))
			}
		}

		out = append(out, Candidate{
			ClientID:  entry.ClientID,
			Strategy:  s.Name(),
			RawScore:  score,
			Rationale: rationale,
		})
	}

	return out, nil
}

// scale maps a raw name similarity in [threshold, 1] linearly onto the band.
func (s *FuzzyStrategy) scale(sim float64) float64 {
	span := 1.0 - s.cfg.NameThreshold
	ratio := (sim - s.cfg.NameThreshold) / span
	return s.cfg.BandMin + ratio*(s.cfg.BandMax-s.cfg.BandMin)
}

func (s *FuzzyStrategy) scaleAddress(sim float64) float64 {
	span := 1.0 - s.cfg.AddressThreshold
	if span <= 0 {
		return s.cfg.BandMax
	}
	ratio := (sim - s.cfg.AddressThreshold) / span
	return s.cfg.BandMin + ratio*(s.cfg.BandMax-s.cfg.BandMin)
}

// nameBearingText joins the transaction fields that can carry a person's
// name: the description plus any metadata value whose key mentions "name".
func nameBearingText(tx *Transaction) string {
	parts := make([]string, 0, 2)
	if tx.Description != "" {
		parts = append(parts, tx.Description)
	}
	for _, f := range searchFields(tx) {
		if strings.HasPrefix(f.name, "metadata.") && strings.Contains(f.name, "name") {
			parts = append(parts, f.text)
		}
	}
	return strings.Join(parts, " ")
}

// windowSimilarity compares needle against every needle-sized word window of
// text and returns the best similarity. This mirrors a partial-ratio match:
// "jon smith" inside "payment from jon smith" scores against "jon smith",
// not the whole sentence.
func windowSimilarity(needle, text string) float64 {
	if needle == "" || text == "" {
		return 0.0
	}
	needleWords := strings.Split(needle, " ")
	textWords := strings.Split(text, " ")
	if len(textWords) <= len(needleWords) {
		return registry.Similarity(needle, text)
	}

	best := 0.0
	for i := 0; i+len(needleWords) <= len(textWords); i++ {
		window := strings.Join(textWords[i:i+len(needleWords)], " ")
		if sim := registry.Similarity(needle, window); sim > best {
			best = sim
		}
	}
	return best
}
