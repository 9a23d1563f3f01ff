package repository

import (
	"context"

	"motodash/internal/model"
)

// ReportExportFilter narrows a listing. Empty fields match everything.
type ReportExportFilter struct {
	Kind      string
	CreatedBy string
}

// ReportExportRepository stores the index of generated report files.
// The files themselves live in object storage.
type ReportExportRepository interface {
	// Create inserts an export row and returns it as stored.
	Create(ctx context.Context, e *model.ReportExport) (*model.ReportExport, error)

	// FindByID returns sql.ErrNoRows when the export does not exist.
	FindByID(ctx context.Context, id string) (*model.ReportExport, error)

	// List returns the newest exports first.
	List(ctx context.Context, f ReportExportFilter, pq PageQuery) (*PageResult[model.ReportExport], error)

	// Delete removes a row. Deleting a missing row is not an error.
	Delete(ctx context.Context, id string) error
}
