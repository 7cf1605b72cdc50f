// Package store persists processed crime reports. Two backends are
// provided: embedded SQLite (default) and Postgres.
package store

import (
	"context"

	"github.com/toladimeji/crimewatch/internal/model"
)

// ReportFilter specifies criteria for listing reports.
type ReportFilter struct {
	// MinTrustScore excludes reports at or below this score (strict >).
	MinTrustScore float64 `json:"min_trust_score,omitempty"`
	// Limit caps the number of returned reports; 0 means no cap.
	Limit int `json:"limit,omitempty"`
}

// Store defines the persistence interface for processed reports. The
// table is insert-only; reports are never mutated after creation.
type Store interface {
	// CreateReport persists the final pipeline state as a CrimeReport,
	// assigning its ID, timestamp, and display category.
	CreateReport(ctx context.Context, state model.AlertState) (*model.CrimeReport, error)

	// ListReports returns matching reports, newest first.
	ListReports(ctx context.Context, filter ReportFilter) ([]model.CrimeReport, error)

	// CountByCategory tallies reports above the trust threshold per
	// display category.
	CountByCategory(ctx context.Context, minTrustScore float64) (map[string]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
