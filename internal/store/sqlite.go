package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/toladimeji/crimewatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS crime_reports (
	id              TEXT PRIMARY KEY,
	original_text   TEXT NOT NULL,
	predicted_label TEXT NOT NULL,
	confidence      REAL NOT NULL DEFAULT 0,
	trust_score     REAL NOT NULL DEFAULT 0,
	latitude        REAL NOT NULL,
	longitude       REAL NOT NULL,
	category        TEXT,
	timestamp       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_crime_reports_trust_score ON crime_reports(trust_score);
CREATE INDEX IF NOT EXISTS idx_crime_reports_timestamp ON crime_reports(timestamp);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateReport(ctx context.Context, state model.AlertState) (*model.CrimeReport, error) {
	report := newReport(state)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crime_reports (id, original_text, predicted_label, confidence, trust_score, latitude, longitude, category, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.OriginalText, report.PredictedLabel, report.Confidence,
		report.TrustScore, report.Latitude, report.Longitude, report.Category, report.Timestamp,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert report")
	}
	return report, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.CrimeReport, error) {
	query := `SELECT id, original_text, predicted_label, confidence, trust_score, latitude, longitude, category, timestamp
		FROM crime_reports WHERE trust_score > ? ORDER BY timestamp DESC`
	args := []any{filter.MinTrustScore}

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.CrimeReport
	for rows.Next() {
		var r model.CrimeReport
		var category sql.NullString
		if err := rows.Scan(&r.ID, &r.OriginalText, &r.PredictedLabel, &r.Confidence,
			&r.TrustScore, &r.Latitude, &r.Longitude, &category, &r.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		r.Category = category.String
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) CountByCategory(ctx context.Context, minTrustScore float64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(category, 'Unknown'), COUNT(*) FROM crime_reports WHERE trust_score > ? GROUP BY category`,
		minTrustScore,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by category")
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category count")
		}
		stats[category] = count
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: count by category iterate")
}

// newReport converts a final pipeline state into its persisted form,
// assigning identity, timestamp, and display category.
func newReport(state model.AlertState) *model.CrimeReport {
	return &model.CrimeReport{
		ID:             uuid.New().String(),
		OriginalText:   state.ReportText,
		PredictedLabel: state.AlertType,
		Confidence:     state.Confidence,
		TrustScore:     state.TrustScore,
		Latitude:       state.Location.Latitude,
		Longitude:      state.Location.Longitude,
		Category:       model.Categorize(state.AlertType),
		Timestamp:      time.Now().UTC(),
	}
}
