package gateway

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caura/recon-engine/internal/domain/matcher"
)

// transactionEntry is the JSON wire shape for an imported transaction.
type transactionEntry struct {
	ID          string            `json:"transaction_id"`
	Date        string            `json:"date"`
	Amount      string            `json:"amount"`
	Description string            `json:"description"`
	Reference   string            `json:"reference"`
	Platform    string            `json:"platform"`
	Metadata    map[string]string `json:"platform_metadata"`
}

// LoadTransactionsJSON reads a JSON array of transactions. A row with an
// unparseable date or amount is kept with the bad field zeroed so the engine
// records it as an error result instead of the whole batch failing.
func LoadTransactionsJSON(path string) ([]*matcher.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions file %s: %w", path, err)
	}

	var entries []transactionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid transactions JSON in %s: %w", path, err)
	}

	transactions := make([]*matcher.Transaction, 0, len(entries))
	for _, e := range entries {
		transactions = append(transactions, toTransaction(e))
	}
	return transactions, nil
}

// LoadTransactionsCSV reads the generic bank-statement CSV shape:
// transaction_id, date, amount, description, reference.
func LoadTransactionsCSV(path, platform string) ([]*matcher.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	var transactions []*matcher.Transaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		if len(record) < 5 {
			return nil, fmt.Errorf("short row in %s: %d columns", path, len(record))
		}

		transactions = append(transactions, toTransaction(transactionEntry{
			ID:          record[0],
			Date:        record[1],
			Amount:      record[2],
			Description: record[3],
			Reference:   record[4],
			Platform:    platform,
		}))
	}
	return transactions, nil
}

func toTransaction(e transactionEntry) *matcher.Transaction {
	tx := &matcher.Transaction{
		ID:          e.ID,
		Description: e.Description,
		Reference:   e.Reference,
		Platform:    e.Platform,
		Metadata:    e.Metadata,
	}

	if date, err := parseDate(e.Date); err == nil {
		tx.Date = date
	}
	if amount, err := decimal.NewFromString(e.Amount); err == nil {
		tx.Amount = amount
	}

	return tx
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
