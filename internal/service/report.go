package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"motodash/internal/model"
	"motodash/internal/repository"
	"motodash/internal/storage"
)

const (
	reportPrefix      = "reports"
	reportContentType = "text/csv"
	dateLayout        = "2006-01-02"
)

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("report export not found")
	ErrUnknownKind  = errors.New("unknown report kind")
	ErrInvalidRange = errors.New("report range end must be after its start")
)

// Table is a rendered report before it is written as CSV.
type Table struct {
	Header []string
	Rows   [][]string
}

// RowSource produces the rows of a report kind for [from, to).
type RowSource interface {
	Rows(ctx context.Context, token, kind string, from, to time.Time) (*Table, error)
}

// ExportRequest describes one export. From and To are midnights in the
// dashboard timezone; To is exclusive.
type ExportRequest struct {
	Kind      string
	From      time.Time
	To        time.Time
	Token     string
	CreatedBy string
}

// ReportListResult is a page of exports.
type ReportListResult struct {
	Items []model.ReportExport `json:"data"`
	Total int                  `json:"total"`
}

// ReportService generates CSV exports and manages the stored files.
type ReportService interface {
	// Create renders the report, uploads it and indexes it. The uploaded
	// object is removed again when indexing fails.
	Create(ctx context.Context, req ExportRequest) (*model.ReportExport, error)
	List(ctx context.Context, kind string, limit, offset int) (*ReportListResult, error)
	// Get returns the export with a presigned download URL.
	Get(ctx context.Context, id string) (*model.ReportExport, error)
	// Open streams the stored CSV. The caller closes the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, *model.ReportExport, error)
	// Delete removes the object first and the row after it.
	Delete(ctx context.Context, id string) error
}

type reportService struct {
	rows          RowSource
	store         storage.Storage
	repo          repository.ReportExportRepository
	presignExpiry time.Duration
	log           *logrus.Logger
	now           func() time.Time
}

func NewReportService(rows RowSource, store storage.Storage, repo repository.ReportExportRepository, presignExpiry time.Duration, log *logrus.Logger) ReportService {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &reportService{
		rows:          rows,
		store:         store,
		repo:          repo,
		presignExpiry: presignExpiry,
		log:           log,
		now:           time.Now,
	}
}

func (s *reportService) Create(ctx context.Context, req ExportRequest) (*model.ReportExport, error) {
	if !slices.Contains(model.ReportKinds, req.Kind) {
		return nil, ErrUnknownKind
	}
	if !req.To.After(req.From) {
		return nil, ErrInvalidRange
	}

	table, err := s.rows.Rows(ctx, req.Token, req.Kind, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("load %s rows: %w", req.Kind, err)
	}
	body, err := renderCSV(table)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	id := uuid.New().String()
	key := reportPrefix + "/" + id + ".csv"
	lastDay := req.To.AddDate(0, 0, -1)
	filename := fmt.Sprintf("%s_%s_%s.csv", req.Kind, req.From.Format(dateLayout), lastDay.Format(dateLayout))

	info, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: reportContentType,
		Metadata:    map[string]string{"report-kind": req.Kind, "filename": filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	stored, err := s.repo.Create(ctx, &model.ReportExport{
		ID:          id,
		Kind:        req.Kind,
		Filename:    filename,
		StoragePath: info.Key,
		Size:        info.Size,
		ContentType: reportContentType,
		RangeFrom:   calendarDay(req.From),
		RangeTo:     calendarDay(lastDay),
		CreatedBy:   req.CreatedBy,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.WithFields(logrus.Fields{
				"component":    "reports",
				"storage_path": key,
				"error":        delErr.Error(),
			}).Error("rollback of uploaded report failed")
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"component": "reports",
		"event":     "report_exported",
		"kind":      req.Kind,
		"rows":      len(table.Rows),
		"size":      info.Size,
	}).Info("report exported")
	return stored, nil
}

func (s *reportService) List(ctx context.Context, kind string, limit, offset int) (*ReportListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	if kind != "" && !slices.Contains(model.ReportKinds, kind) {
		return nil, ErrUnknownKind
	}
	res, err := s.repo.List(ctx, repository.ReportExportFilter{Kind: kind}, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ReportListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *reportService) find(ctx context.Context, id string) (*model.ReportExport, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *reportService) Get(ctx context.Context, id string) (*model.ReportExport, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := s.store.PresignGet(ctx, e.StoragePath, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	e.DownloadURL = u
	return e, nil
}

func (s *reportService) Open(ctx context.Context, id string) (io.ReadCloser, *model.ReportExport, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, e.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage object: %w", err)
	}
	return rc, e, nil
}

func (s *reportService) Delete(ctx context.Context, id string) error {
	e, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	// Keep the row when the object survives so the file stays reachable.
	if err := s.store.Delete(ctx, e.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

// calendarDay keeps the wall-clock date of t for DATE columns.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func renderCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
