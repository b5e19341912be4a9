package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the subset of *pgxpool.Pool used by PgRecordRepository.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgRecordRepository is the PostgreSQL implementation of RecordRepository.
// Rows are stored in field order as a text array, mirroring a spreadsheet row.
type PgRecordRepository struct {
	pool execer
}

// NewPgRecordRepository creates a PgRecordRepository backed by the given pool.
func NewPgRecordRepository(pool execer) *PgRecordRepository {
	return &PgRecordRepository{pool: pool}
}

// Ensure PgRecordRepository implements RecordRepository at compile time.
var _ RecordRepository = (*PgRecordRepository)(nil)

// Append inserts one inquiry_records row.
func (r *PgRecordRepository) Append(ctx context.Context, row []string) error {
	if len(row) == 0 {
		return ErrEmptyRecord
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO inquiry_records (fields) VALUES ($1)`,
		row,
	)
	return err
}
