// Package registry holds the read-only client registry and the lookup
// structures built over it.
//
// The registry is loaded once per run. BuildIndex derives exact-lookup maps
// keyed by normalized identifiers plus a trigram similarity index over display
// names and addresses. The index is immutable after construction and safe for
// concurrent reads; a changed registry means a rebuild, never a mutation.
package registry

import "errors"

// ErrInvalidRegistry marks fatal registry problems found at index-build time.
// The wrapped message names the offending client row and field.
var ErrInvalidRegistry = errors.New("invalid registry")

// ClientRecord is one immutable registry entry.
type ClientRecord struct {
	// ClientID is the stable registry identifier (caura ID).
	ClientID string `json:"client_id"`

	// Identifiers maps identifier type (acn, slk, phone, dex, client_id)
	// to the raw value known for this client.
	Identifiers map[string]string `json:"identifiers"`

	// DisplayName is the canonical name used for fuzzy matching.
	DisplayName string `json:"display_name"`

	// Address is optional; empty means no address matching for this client.
	Address string `json:"address,omitempty"`
}
