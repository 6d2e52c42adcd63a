package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/caura/recon-engine/internal/domain/matcher"
	"github.com/caura/recon-engine/internal/domain/registry"
)

// ReconcileRequest carries a registry snapshot and a transaction batch to
// reconcile in one call.
type ReconcileRequest struct {
	Platform         string                  `json:"platform" binding:"required"`
	SourceIdentifier string                  `json:"source_identifier"`
	Clients          []registry.ClientRecord `json:"clients" binding:"required"`
	Transactions     []TransactionRequest    `json:"transactions" binding:"required"`
}

// TransactionRequest is one transaction in a reconcile request.
type TransactionRequest struct {
	ID          string            `json:"transaction_id" binding:"required"`
	Date        string            `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Reference   string            `json:"reference"`
	Metadata    map[string]string `json:"metadata"`
}

// ToTransaction converts the wire shape to a domain transaction. An
// unparseable date is left zero so the engine records an error result for
// that transaction instead of failing the batch.
func (t TransactionRequest) ToTransaction(platform string) *matcher.Transaction {
	tx := &matcher.Transaction{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Reference:   t.Reference,
		Platform:    platform,
		Metadata:    t.Metadata,
	}
	if parsed, ok := parseDate(t.Date); ok {
		tx.Date = parsed
	}
	return tx
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
