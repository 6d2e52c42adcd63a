package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadClientMap_CurrentFormat(t *testing.T) {
	path := writeFile(t, "clients.json", `{
		"metadata": {"exported_at": "2026-08-01"},
		"clients": [
			{
				"caura_id": "CL00001",
				"personal_info": {"given_name": "John", "family_name": "Smith", "phone": "0412 345 678", "emails": ["", "John.Smith@example.com", "js.alt@example.com"]},
				"identifiers": {"acn": "ACN12345678", "slk": "SMITH123456781", "dex_id": "DEX-123456"},
				"platform_identifiers": [
					{"platform": "stripe", "identifiers": {"client_id": "cus_123"}}
				],
				"location": {"address_1": "12 Smith St", "suburb": "Melton", "postcode": "3337"}
			},
			{
				"caura_id": "CL00002",
				"personal_info": {"given_name": "Jane", "family_name": "Doe"},
				"identifiers": {"acn": "ACN87654321"},
				"location": {}
			}
		]
	}`)

	records, err := LoadClientMap(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "CL00001", first.ClientID)
	assert.Equal(t, "John Smith", first.DisplayName)
	assert.Equal(t, "12 Smith St Melton 3337", first.Address)
	assert.Equal(t, "CL00001", first.Identifiers["client_id"])
	assert.Equal(t, "ACN12345678", first.Identifiers["acn"])
	assert.Equal(t, "SMITH123456781", first.Identifiers["slk"])
	assert.Equal(t, "DEX-123456", first.Identifiers["dex"])
	assert.Equal(t, "0412 345 678", first.Identifiers["phone"])
	assert.Equal(t, "cus_123", first.Identifiers["stripe_id"])
	// The first non-empty address in personal_info.emails wins.
	assert.Equal(t, "John.Smith@example.com", first.Identifiers["email"])

	second := records[1]
	assert.Equal(t, "Jane Doe", second.DisplayName)
	assert.Empty(t, second.Address)
	_, hasPhone := second.Identifiers["phone"]
	assert.False(t, hasPhone)
	_, hasEmail := second.Identifiers["email"]
	assert.False(t, hasEmail)
}

func TestLoadClientMap_EmptyClientsArray(t *testing.T) {
	path := writeFile(t, "empty.json", `{
		"metadata": {"exported_at": "2026-08-01"},
		"clients": []
	}`)

	records, err := LoadClientMap(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadClientMap_LegacyFlatMap(t *testing.T) {
	path := writeFile(t, "legacy.json", `{
		"CL00002": {
			"personal_info": {"given_name": "Jane", "family_name": "Doe"},
			"identifiers": {"acn": "ACN87654321"}
		},
		"CL00001": {
			"caura_id": "CL00001",
			"personal_info": {"given_name": "John", "family_name": "Smith"},
			"identifiers": {"acn": "ACN12345678"}
		}
	}`)

	records, err := LoadClientMap(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Keys are sorted, and a missing caura_id falls back to the map key.
	assert.Equal(t, "CL00001", records[0].ClientID)
	assert.Equal(t, "CL00002", records[1].ClientID)
	assert.Equal(t, "Jane Doe", records[1].DisplayName)
}

func TestLoadClientMap_InvalidJSON(t *testing.T) {
	path := writeFile(t, "bad.json", `[not json`)

	_, err := LoadClientMap(path)
	require.Error(t, err)
}

func TestLoadClientMap_MissingFile(t *testing.T) {
	_, err := LoadClientMap(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
