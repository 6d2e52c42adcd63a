package registry

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/caura/recon-engine/internal/infrastructure/config"
)

// Index is the derived, in-memory lookup structure over a loaded registry.
// It is built once, never mutated afterwards, and safe to share across
// concurrent readers.
type Index struct {
	// exact maps identifier type -> normalized value -> sorted client IDs.
	// An identifier legitimately shared by several clients keeps every
	// owner; callers see the ambiguity instead of an arbitrary winner.
	exact map[string]map[string][]string

	names     *similarityIndex
	addresses *similarityIndex

	nameExact    map[string][]string
	displayNames map[string]string
	addrByClient map[string]string

	size int
}

// BuildIndex validates and indexes the given records. It fails with
// ErrInvalidRegistry on a duplicate client ID or on a required identifier
// field that does not match its configured validation pattern.
func BuildIndex(records []ClientRecord, cfg *config.MatchingConfig) (*Index, error) {
	patterns := make(map[string]*regexp.Regexp, len(cfg.IdentifierPatterns))
	for name, expr := range cfg.IdentifierPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", config.ErrInvalidConfiguration, name, err)
		}
		patterns[name] = re
	}

	required := make(map[string]bool, len(cfg.RequiredIdentifiers))
	for _, name := range cfg.RequiredIdentifiers {
		required[name] = true
	}

	ix := &Index{
		exact:        make(map[string]map[string][]string),
		names:        newSimilarityIndex(),
		addresses:    newSimilarityIndex(),
		nameExact:    make(map[string][]string),
		displayNames: make(map[string]string),
		addrByClient: make(map[string]string),
	}

	seen := make(map[string]bool, len(records))
	for row, rec := range records {
		if rec.ClientID == "" {
			return nil, fmt.Errorf("%w: row %d: missing client_id", ErrInvalidRegistry, row)
		}
		if seen[rec.ClientID] {
			return nil, fmt.Errorf("%w: row %d: duplicate client_id %q", ErrInvalidRegistry, row, rec.ClientID)
		}
		seen[rec.ClientID] = true

		for idType, raw := range rec.Identifiers {
			if raw == "" {
				continue
			}
			normalized := NormalizeIdentifier(idType, raw)
			re, known := patterns[idType]
			if known && re.FindString(normalized) != normalized {
				if required[idType] {
					return nil, fmt.Errorf("%w: row %d (client %s): malformed %s identifier %q",
						ErrInvalidRegistry, row, rec.ClientID, idType, raw)
				}
				// Optional identifier types with off-pattern values are
				// skipped rather than indexed as garbage keys.
				continue
			}
			ix.addExact(idType, normalized, rec.ClientID)
		}

		if name := NormalizeName(rec.DisplayName); name != "" {
			ix.names.add(rec.ClientID, rec.DisplayName, name)
			ix.nameExact[name] = append(ix.nameExact[name], rec.ClientID)
			ix.displayNames[rec.ClientID] = rec.DisplayName
		}
		if addr := NormalizeAddress(rec.Address); addr != "" {
			ix.addresses.add(rec.ClientID, rec.Address, addr)
			ix.addrByClient[rec.ClientID] = addr
		}

		ix.size++
	}

	for name := range ix.nameExact {
		sort.Strings(ix.nameExact[name])
	}

	return ix, nil
}

func (ix *Index) addExact(idType, normalized, clientID string) {
	byValue, ok := ix.exact[idType]
	if !ok {
		byValue = make(map[string][]string)
		ix.exact[idType] = byValue
	}
	ids := byValue[normalized]
	pos := sort.SearchStrings(ids, clientID)
	if pos < len(ids) && ids[pos] == clientID {
		return
	}
	ids = append(ids, "")
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = clientID
	byValue[normalized] = ids
}

// Lookup resolves a raw identifier value of the given type to all client IDs
// carrying it. Two or more returned IDs mean an ambiguous identifier.
func (ix *Index) Lookup(idType, value string) ([]string, bool) {
	byValue, ok := ix.exact[idType]
	if !ok {
		return nil, false
	}
	ids, ok := byValue[NormalizeIdentifier(idType, value)]
	return ids, ok
}

// LookupToken resolves a token against every indexed identifier type in
// stable (sorted) type order, returning the first type that knows it. This
// covers registry identifier types that have no extraction pattern of their
// own, such as platform-specific customer IDs.
func (ix *Index) LookupToken(token string) (idType string, clients []string, ok bool) {
	types := make([]string, 0, len(ix.exact))
	for t := range ix.exact {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		if ids, found := ix.Lookup(t, token); found && len(ids) > 0 {
			return t, ids, true
		}
	}
	return "", nil, false
}

// LookupName resolves an exact (normalized) display name.
func (ix *Index) LookupName(name string) []string {
	return ix.nameExact[NormalizeName(name)]
}

// SimilarNames returns all display names within similarity >= threshold of
// the query, using the trigram buckets to avoid a full registry scan.
func (ix *Index) SimilarNames(query string, threshold float64) []SimilarMatch {
	return ix.names.similar(NormalizeName(query), threshold)
}

// NameCandidates returns the display-name entries sharing at least one
// trigram with the given free text.
func (ix *Index) NameCandidates(text string) []Entry {
	return ix.names.candidates(NormalizeName(text))
}

// DisplayNameOf returns the canonical display name for a client ID.
func (ix *Index) DisplayNameOf(clientID string) (string, bool) {
	name, ok := ix.displayNames[clientID]
	return name, ok
}

// AddressOf returns the normalized address for a client ID, if any.
func (ix *Index) AddressOf(clientID string) (string, bool) {
	addr, ok := ix.addrByClient[clientID]
	return addr, ok
}

// Size returns the number of indexed client records.
func (ix *Index) Size() int {
	return ix.size
}
