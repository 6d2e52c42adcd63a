package registry

import (
	"sort"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Entry is one indexed display string (name or address) with its owner.
type Entry struct {
	ClientID   string
	Display    string
	Normalized string
}

// SimilarMatch is an Entry paired with its similarity to a query.
type SimilarMatch struct {
	Entry
	Similarity float64
}

// similarityIndex buckets normalized strings by trigram so similarity queries
// only score entries that share at least one trigram with the query, instead
// of rescanning the whole registry. Recall above sensible thresholds is
// preserved: two strings within edit distance of a high threshold always
// share trigrams.
type similarityIndex struct {
	entries []Entry
	buckets map[string][]int
}

func newSimilarityIndex() *similarityIndex {
	return &similarityIndex{buckets: make(map[string][]int)}
}

func (si *similarityIndex) add(clientID, display, normalized string) {
	if normalized == "" {
		return
	}
	idx := len(si.entries)
	si.entries = append(si.entries, Entry{ClientID: clientID, Display: display, Normalized: normalized})

	seen := make(map[string]struct{})
	for _, g := range trigrams(normalized) {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		si.buckets[g] = append(si.buckets[g], idx)
	}
}

// candidates returns, in insertion order, every entry sharing at least one
// trigram with text.
func (si *similarityIndex) candidates(text string) []Entry {
	hit := make(map[int]struct{})
	for _, g := range trigrams(text) {
		for _, idx := range si.buckets[g] {
			hit[idx] = struct{}{}
		}
	}
	idxs := make([]int, 0, len(hit))
	for idx := range hit {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	out := make([]Entry, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, si.entries[idx])
	}
	return out
}

// similar returns every entry whose whole-string similarity to the query is
// at least threshold, ordered by descending similarity then client ID.
func (si *similarityIndex) similar(query string, threshold float64) []SimilarMatch {
	var out []SimilarMatch
	for _, e := range si.candidates(query) {
		sim := Similarity(query, e.Normalized)
		if sim >= threshold {
			out = append(out, SimilarMatch{Entry: e, Similarity: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out
}

// Similarity is the normalized edit-distance similarity of two strings:
// 1 - distance/maxLen, in [0,1]. Both inputs are expected pre-normalized.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return 1.0 - float64(dist)/float64(maxLen)
}

// trigrams slides a 3-rune window over s. Strings shorter than 3 runes fall
// into a single bucket holding the whole string.
func trigrams(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) < 3 {
		return []string{string(runes)}
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}
