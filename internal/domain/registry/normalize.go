package registry

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`[,.\-_/]`)
	nonDigitRe   = regexp.MustCompile(`\D`)
)

// streetTypes expands common street-type abbreviations so that
// "12 Smith St" and "12 Smith Street" normalize identically.
var streetTypes = map[string]string{
	"st":  "street",
	"rd":  "road",
	"ave": "avenue",
	"dr":  "drive",
	"pl":  "place",
	"cr":  "crescent",
	"ct":  "court",
	"ln":  "lane",
	"wy":  "way",
}

// unitIndicators fold unit/apartment spellings to a single token.
var unitIndicators = map[string]string{
	"unit":      "u",
	"apt":       "u",
	"apartment": "u",
	"flat":      "u",
}

// NormalizeIdentifier canonicalizes a raw identifier value for exact lookup.
// Emails are lowercased as-is, phones are reduced to digits with the +61
// country prefix folded to a leading zero, and everything else is uppercased
// with separators stripped.
func NormalizeIdentifier(idType, value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if idType == "email" {
		return strings.ToLower(v)
	}
	if idType == "phone" {
		digits := nonDigitRe.ReplaceAllString(v, "")
		if strings.HasPrefix(digits, "61") && len(digits) == 11 {
			digits = "0" + digits[2:]
		}
		return digits
	}
	v = strings.ToUpper(v)
	v = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(v)
	return v
}

// NormalizeName lowercases and collapses whitespace and punctuation.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = punctRe.ReplaceAllString(n, " ")
	n = whitespaceRe.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// NormalizeAddress applies name normalization plus street-type expansion and
// unit-indicator folding.
func NormalizeAddress(address string) string {
	n := NormalizeName(address)
	if n == "" {
		return ""
	}
	words := strings.Split(n, " ")
	for i, w := range words {
		if full, ok := streetTypes[w]; ok {
			words[i] = full
			continue
		}
		if folded, ok := unitIndicators[w]; ok {
			words[i] = folded
		}
	}
	return strings.Join(words, " ")
}
