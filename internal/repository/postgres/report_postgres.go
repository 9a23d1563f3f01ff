package postgres

import (
	"context"
	"database/sql"

	"motodash/internal/model"
	"motodash/internal/repository"
)

// ReportExportPostgres is the PostgreSQL implementation of
// repository.ReportExportRepository.
type ReportExportPostgres struct {
	db *sql.DB
}

func NewReportExportPostgres(db *sql.DB) *ReportExportPostgres {
	return &ReportExportPostgres{db: db}
}

var _ repository.ReportExportRepository = (*ReportExportPostgres)(nil)

const reportExportColumns = `id, kind, filename, storage_path, size, content_type, range_from, range_to, created_by, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReportExport(s scanner) (*model.ReportExport, error) {
	var e model.ReportExport
	if err := s.Scan(
		&e.ID,
		&e.Kind,
		&e.Filename,
		&e.StoragePath,
		&e.Size,
		&e.ContentType,
		&e.RangeFrom,
		&e.RangeTo,
		&e.CreatedBy,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ReportExportPostgres) Create(ctx context.Context, e *model.ReportExport) (*model.ReportExport, error) {
	const q = `
		INSERT INTO report_exports (` + reportExportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + reportExportColumns
	row := r.db.QueryRowContext(ctx, q,
		e.ID,
		e.Kind,
		e.Filename,
		e.StoragePath,
		e.Size,
		e.ContentType,
		e.RangeFrom,
		e.RangeTo,
		e.CreatedBy,
		e.CreatedAt,
	)
	return scanReportExport(row)
}

func (r *ReportExportPostgres) FindByID(ctx context.Context, id string) (*model.ReportExport, error) {
	const q = `SELECT ` + reportExportColumns + ` FROM report_exports WHERE id = $1`
	return scanReportExport(r.db.QueryRowContext(ctx, q, id))
}

// List filters by kind and creator when set and pages with LIMIT/OFFSET.
func (r *ReportExportPostgres) List(ctx context.Context, f repository.ReportExportFilter, pq repository.PageQuery) (*repository.PageResult[model.ReportExport], error) {
	const where = ` WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR created_by = $2)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_exports`+where, f.Kind, f.CreatedBy).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + reportExportColumns + ` FROM report_exports` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, qList, f.Kind, f.CreatedBy, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ReportExport, 0)
	for rows.Next() {
		e, err := scanReportExport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.ReportExport]{Items: items, Total: total}, nil
}

func (r *ReportExportPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM report_exports WHERE id = $1`, id)
	return err
}
