package storage

import "github.com/caura/recon-engine/internal/domain/report"

// Repository abstracts run-history persistence so handlers and commands can
// be tested against a mock.
type Repository interface {
	SaveRun(rep *report.ReconciliationReport) error
	GetRun(runID string) (*RunRecord, error)
	ListRuns(limit int) ([]*RunRecord, error)
	GetStats() (*Stats, error)
	Close() error
}
