package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"takurating/internal/database"
	"takurating/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type SchoolRepository struct {
	q      database.DBTX
	db     *sql.DB
	logger zerolog.Logger
}

func NewSchoolRepository(sqlDB *sql.DB, logger zerolog.Logger) *SchoolRepository {
	return &SchoolRepository{
		q:      sqlDB,
		db:     sqlDB,
		logger: logger,
	}
}

const (
	upsertSchoolHead = `INSERT INTO schools (id, name, code, created_at) VALUES`
	upsertSchoolTail = `
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    code = excluded.code`
)

func prepareSchool(school *domain.School) error {
	if err := ensureID(&school.ID); err != nil {
		return err
	}
	if school.CreatedAt.IsZero() {
		school.CreatedAt = time.Now().UTC()
	}
	return nil
}

func schoolArgs(s domain.School) []any {
	return []any{s.ID, s.Name, s.Code, s.CreatedAt.UTC()}
}

func (r *SchoolRepository) Upsert(ctx context.Context, school *domain.School) error {
	if err := prepareSchool(school); err != nil {
		return err
	}
	if err := execBatch(ctx, r.q, upsertSchoolHead, upsertSchoolTail, [][]any{schoolArgs(*school)}); err != nil {
		return fmt.Errorf("failed to upsert school %s: %w", school.Code, err)
	}
	return nil
}

// UpsertBatch writes the schools in multi-row statements. It joins the
// repository's transaction when there is one.
func (r *SchoolRepository) UpsertBatch(ctx context.Context, schools []domain.School) error {
	if len(schools) == 0 {
		return nil
	}
	for i := range schools {
		if err := prepareSchool(&schools[i]); err != nil {
			return err
		}
	}

	rows := make([][]any, 0, len(schools))
	for _, sc := range dedupeByID(schools, func(s domain.School) string { return s.ID }) {
		rows = append(rows, schoolArgs(sc))
	}

	return runInTx(ctx, r.db, r.q, func(q database.DBTX) error {
		if err := execBatch(ctx, q, upsertSchoolHead, upsertSchoolTail, rows); err != nil {
			return fmt.Errorf("failed to upsert schools: %w", err)
		}
		r.logger.Debug().Int("count", len(rows)).Msg("schools upserted")
		return nil
	})
}

func (r *SchoolRepository) Get(ctx context.Context, id string) (*domain.School, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, name, code, created_at FROM schools WHERE id = $1`, id)

	var s domain.School
	if err := row.Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSchoolNotFound, id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *SchoolRepository) List(ctx context.Context) ([]domain.School, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, code, created_at FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []domain.School{}
	for rows.Next() {
		var s domain.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.CreatedAt); err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

func (r *SchoolRepository) WithTx(tx *sql.Tx) *SchoolRepository {
	return &SchoolRepository{q: tx, db: r.db, logger: r.logger}
}
