package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/toladimeji/crimewatch/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection.
// The insert dominates; reads back the dashboard.
var preparedStatements = map[string]string{
	"insert_report": `INSERT INTO crime_reports (id, original_text, predicted_label, confidence, trust_score, latitude, longitude, category, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"list_reports":      `SELECT id, original_text, predicted_label, confidence, trust_score, latitude, longitude, category, timestamp FROM crime_reports WHERE trust_score > $1 ORDER BY timestamp DESC`,
	"count_by_category": `SELECT COALESCE(category, 'Unknown'), COUNT(*) FROM crime_reports WHERE trust_score > $1 GROUP BY category`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS crime_reports (
	id              TEXT PRIMARY KEY,
	original_text   TEXT NOT NULL,
	predicted_label TEXT NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL DEFAULT 0,
	trust_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	latitude        DOUBLE PRECISION NOT NULL,
	longitude       DOUBLE PRECISION NOT NULL,
	category        TEXT,
	timestamp       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_crime_reports_trust_score ON crime_reports(trust_score);
CREATE INDEX IF NOT EXISTS idx_crime_reports_timestamp ON crime_reports(timestamp);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, state model.AlertState) (*model.CrimeReport, error) {
	report := newReport(state)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO crime_reports (id, original_text, predicted_label, confidence, trust_score, latitude, longitude, category, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		report.ID, report.OriginalText, report.PredictedLabel, report.Confidence,
		report.TrustScore, report.Latitude, report.Longitude, report.Category, report.Timestamp,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert report")
	}
	return report, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.CrimeReport, error) {
	query := `SELECT id, original_text, predicted_label, confidence, trust_score, latitude, longitude, category, timestamp
		FROM crime_reports WHERE trust_score > $1 ORDER BY timestamp DESC`
	args := []any{filter.MinTrustScore}

	if filter.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []model.CrimeReport
	for rows.Next() {
		var r model.CrimeReport
		var category sql.NullString
		if err := rows.Scan(&r.ID, &r.OriginalText, &r.PredictedLabel, &r.Confidence,
			&r.TrustScore, &r.Latitude, &r.Longitude, &category, &r.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		r.Category = category.String
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) CountByCategory(ctx context.Context, minTrustScore float64) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(category, 'Unknown'), COUNT(*) FROM crime_reports WHERE trust_score > $1 GROUP BY category`,
		minTrustScore,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by category")
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan category count")
		}
		stats[category] = count
	}
	return stats, eris.Wrap(rows.Err(), "postgres: count by category iterate")
}
