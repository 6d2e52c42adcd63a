// Package gateway holds the thin I/O glue around the matching engine:
// loading the client-map snapshot and transaction files. Parsing here stays
// deliberately shallow; the engine only ever sees already-deserialized
// records.
package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/caura/recon-engine/internal/domain/registry"
)

// clientEntry is the registry snapshot's per-client JSON shape.
type clientEntry struct {
	CauraID      string `json:"caura_id"`
	PersonalInfo struct {
		GivenName  string   `json:"given_name"`
		FamilyName string   `json:"family_name"`
		Emails     []string `json:"emails"`
		Phone      string   `json:"phone"`
	} `json:"personal_info"`
	Identifiers struct {
		ACN string `json:"acn"`
		SLK string `json:"slk"`
		DEX string `json:"dex_id"`
	} `json:"identifiers"`
	PlatformIdentifiers []struct {
		Platform    string            `json:"platform"`
		Identifiers map[string]string `json:"identifiers"`
	} `json:"platform_identifiers"`
	Location struct {
		Address1 string `json:"address_1"`
		Address2 string `json:"address_2"`
		Suburb   string `json:"suburb"`
		Postcode string `json:"postcode"`
	} `json:"location"`
}

// LoadClientMap reads a client registry snapshot. Both historical shapes are
// accepted: the current {"metadata": ..., "clients": [...]} document and the
// old flat {"CL00001": {...}} map.
func LoadClientMap(path string) ([]registry.ClientRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client map %s: %w", path, err)
	}

	// A present-but-empty clients array is a valid, empty registry; only a
	// document without the key at all falls through to the legacy shape.
	var doc struct {
		Clients *[]clientEntry `json:"clients"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Clients != nil {
		return toRecords(*doc.Clients), nil
	}

	// Old format: top-level map keyed by client ID.
	var legacy map[string]clientEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("invalid client registry format in %s: %w", path, err)
	}

	ids := make([]string, 0, len(legacy))
	for id := range legacy {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]clientEntry, 0, len(ids))
	for _, id := range ids {
		entry := legacy[id]
		if entry.CauraID == "" {
			entry.CauraID = id
		}
		entries = append(entries, entry)
	}
	return toRecords(entries), nil
}

func toRecords(entries []clientEntry) []registry.ClientRecord {
	records := make([]registry.ClientRecord, 0, len(entries))
	for _, e := range entries {
		identifiers := map[string]string{
			"client_id": e.CauraID,
		}
		if e.Identifiers.ACN != "" {
			identifiers["acn"] = e.Identifiers.ACN
		}
		if e.Identifiers.SLK != "" {
			identifiers["slk"] = e.Identifiers.SLK
		}
		if e.Identifiers.DEX != "" {
			identifiers["dex"] = e.Identifiers.DEX
		}
		for _, email := range e.PersonalInfo.Emails {
			if strings.TrimSpace(email) != "" {
				identifiers["email"] = email
				break
			}
		}
		if e.PersonalInfo.Phone != "" {
			identifiers["phone"] = e.PersonalInfo.Phone
		}
		for _, p := range e.PlatformIdentifiers {
			if id := p.Identifiers["client_id"]; id != "" && p.Platform != "" {
				identifiers[p.Platform+"_id"] = id
			}
		}

		records = append(records, registry.ClientRecord{
			ClientID:    e.CauraID,
			Identifiers: identifiers,
			DisplayName: strings.TrimSpace(e.PersonalInfo.GivenName + " " + e.PersonalInfo.FamilyName),
			Address:     buildAddress(e),
		})
	}
	return records
}

func buildAddress(e clientEntry) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{e.Location.Address1, e.Location.Address2, e.Location.Suburb, e.Location.Postcode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}
