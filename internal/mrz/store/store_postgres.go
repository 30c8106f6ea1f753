package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"mrzgate/internal/mrz/models"
	"mrzgate/pkg/platform/sentinel"
	"mrzgate/pkg/requestcontext"
)

const reportColumns = `id, fingerprint, document_kind, fully_valid, invalid_fields, corrected_mrz,
	format_error, request_id, created_at, expires_at`

// PostgresReportStore persists reports in PostgreSQL.
type PostgresReportStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed report store.
func NewPostgres(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

func (s *PostgresReportStore) Save(ctx context.Context, report *models.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mrz_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		report.ID,
		report.Fingerprint,
		string(report.DocumentKind),
		report.FullyValid,
		pq.Array(report.InvalidFields),
		pq.Array(report.CorrectedMRZ),
		report.Error,
		report.RequestID,
		report.CreatedAt,
		report.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *PostgresReportStore) FindByID(ctx context.Context, id models.ReportID) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM mrz_reports
		WHERE id = $1 AND expires_at > $2`,
		id, requestcontext.Now(ctx),
	)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return report, nil
}

func (s *PostgresReportStore) FindByFingerprint(ctx context.Context, fingerprint string) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM mrz_reports
		WHERE fingerprint = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`,
		fingerprint, requestcontext.Now(ctx),
	)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find report by fingerprint: %w", err)
	}
	return report, nil
}

// DeleteExpired removes reports past their retention.
func (s *PostgresReportStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mrz_reports WHERE expires_at <= $1`, requestcontext.Now(ctx))
	if err != nil {
		return 0, fmt.Errorf("delete expired reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired reports: %w", err)
	}
	return int(n), nil
}

func scanReport(row *sql.Row) (*models.Report, error) {
	var (
		r    models.Report
		kind string
	)
	err := row.Scan(
		&r.ID,
		&r.Fingerprint,
		&kind,
		&r.FullyValid,
		pq.Array(&r.InvalidFields),
		pq.Array(&r.CorrectedMRZ),
		&r.Error,
		&r.RequestID,
		&r.CreatedAt,
		&r.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	r.DocumentKind = models.DocumentKind(kind)
	if r.InvalidFields == nil {
		r.InvalidFields = []string{}
	}
	if r.CorrectedMRZ == nil {
		r.CorrectedMRZ = []string{}
	}
	return &r, nil
}
