package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"motodash/internal/logging"
	"motodash/internal/model"
	"motodash/internal/repository"
	repoMocks "motodash/internal/repository/mocks"
	"motodash/internal/storage"
	storeMocks "motodash/internal/storage/mocks"
)

var (
	octFirst = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	novFirst = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	bogota       = time.FixedZone("COT", -5*60*60)
	octFirstCOT  = time.Date(2026, 10, 1, 0, 0, 0, 0, bogota)
	octSecondCOT = time.Date(2026, 10, 2, 0, 0, 0, 0, bogota)
)

type mockRowSource struct {
	mock.Mock
}

func (m *mockRowSource) Rows(ctx context.Context, token, kind string, from, to time.Time) (*Table, error) {
	args := m.Called(ctx, token, kind, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Table), args.Error(1)
}

func newReportService(rows RowSource, st storage.Storage, repo repository.ReportExportRepository) *reportService {
	svc := NewReportService(rows, st, repo, time.Minute, logging.New(&bytes.Buffer{}, time.UTC)).(*reportService)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestReportService_Create(t *testing.T) {
	ctx := context.Background()
	table := &Table{
		Header: []string{"id", "amount"},
		Rows:   [][]string{{"i1", "100.00"}, {"i2", "50.50"}},
	}

	tests := []struct {
		name       string
		req        ExportRequest
		setupMocks func(mRows *mockRowSource, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			req:  ExportRequest{Kind: model.ReportInstallments, From: octFirst, To: novFirst, Token: "tok", CreatedBy: "o1"},
			setupMocks: func(mRows *mockRowSource, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRows.On("Rows", ctx, "tok", model.ReportInstallments, octFirst, novFirst).Return(table, nil)
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "reports/") && strings.HasSuffix(key, ".csv")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "text/csv" && opt.Size == int64(len("id,amount\ni1,100.00\ni2,50.50\n"))
				})).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
					return storage.ObjectInfo{Key: key, Size: opt.Size}
				}, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(e *model.ReportExport) bool {
					return e.Kind == model.ReportInstallments &&
						e.Filename == "installments_2026-10-01_2026-10-31.csv" &&
						e.StoragePath == "reports/"+e.ID+".csv" &&
						e.RangeTo.Equal(time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)) &&
						e.CreatedBy == "o1"
				})).Return(func(ctx context.Context, e *model.ReportExport) *model.ReportExport { return e }, nil)
			},
		},
		{
			name: "local range keeps calendar days",
			req:  ExportRequest{Kind: model.ReportClosings, From: octFirstCOT, To: octSecondCOT, Token: "tok"},
			setupMocks: func(mRows *mockRowSource, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRows.On("Rows", ctx, "tok", model.ReportClosings, octFirstCOT, octSecondCOT).Return(table, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key, Size: opt.Size}
					}, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(e *model.ReportExport) bool {
					return e.Filename == "closings_2026-10-01_2026-10-01.csv" &&
						e.RangeFrom.Equal(octFirst) &&
						e.RangeTo.Equal(octFirst)
				})).Return(func(ctx context.Context, e *model.ReportExport) *model.ReportExport { return e }, nil)
			},
		},
		{
			name:       "unknown kind",
			req:        ExportRequest{Kind: "payroll", From: octFirst, To: novFirst},
			setupMocks: func(*mockRowSource, *storeMocks.MockStorage, *repoMocks.MockReportExportRepository) {},
			wantErr:    ErrUnknownKind,
		},
		{
			name:       "empty range",
			req:        ExportRequest{Kind: model.ReportLoans, From: octFirst, To: octFirst},
			setupMocks: func(*mockRowSource, *storeMocks.MockStorage, *repoMocks.MockReportExportRepository) {},
			wantErr:    ErrInvalidRange,
		},
		{
			name: "row source error",
			req:  ExportRequest{Kind: model.ReportLoans, From: octFirst, To: novFirst, Token: "tok"},
			setupMocks: func(mRows *mockRowSource, _ *storeMocks.MockStorage, _ *repoMocks.MockReportExportRepository) {
				mRows.On("Rows", ctx, "tok", model.ReportLoans, octFirst, novFirst).Return(nil, errors.New("api down"))
			},
			wantErrMsg: "load loans rows: api down",
		},
		{
			name: "storage error",
			req:  ExportRequest{Kind: model.ReportLoans, From: octFirst, To: novFirst, Token: "tok"},
			setupMocks: func(mRows *mockRowSource, mStore *storeMocks.MockStorage, _ *repoMocks.MockReportExportRepository) {
				mRows.On("Rows", ctx, "tok", model.ReportLoans, octFirst, novFirst).Return(table, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "repository error with successful rollback",
			req:  ExportRequest{Kind: model.ReportLoans, From: octFirst, To: novFirst, Token: "tok"},
			setupMocks: func(mRows *mockRowSource, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRows.On("Rows", ctx, "tok", model.ReportLoans, octFirst, novFirst).Return(table, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "reports/") })).Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "repository error with failed rollback",
			req:  ExportRequest{Kind: model.ReportLoans, From: octFirst, To: novFirst, Token: "tok"},
			setupMocks: func(mRows *mockRowSource, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRows.On("Rows", ctx, "tok", model.ReportLoans, octFirst, novFirst).Return(table, nil)
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRows := new(mockRowSource)
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockReportExportRepository)
			tt.setupMocks(mRows, mStore, mRepo)

			exp, err := newReportService(mRows, mStore, mRepo).Create(ctx, tt.req)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, "text/csv", exp.ContentType)
				assert.Equal(t, "id,amount\ni1,100.00\ni2,50.50\n", string(mStore.Body))
			}
			mRows.AssertExpectations(t)
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReportService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and filter", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportExportRepository)
		mRepo.On("List", ctx, repository.ReportExportFilter{Kind: model.ReportExpenses}, repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.ReportExport]{Items: []model.ReportExport{{ID: "e1"}}, Total: 4}, nil)

		res, err := newReportService(nil, nil, mRepo).List(ctx, model.ReportExpenses, 0, -5)

		require.NoError(t, err)
		assert.Equal(t, 4, res.Total)
		assert.Len(t, res.Items, 1)
		mRepo.AssertExpectations(t)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := newReportService(nil, nil, new(repoMocks.MockReportExportRepository)).List(ctx, "payroll", 10, 0)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportExportRepository)
		mRepo.On("List", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))

		_, err := newReportService(nil, nil, mRepo).List(ctx, "", 10, 0)
		assert.Error(t, err)
	})
}

func TestReportService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository)
		wantErr    error
		wantURL    string
	}{
		{
			name: "happy path",
			id:   "e1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRepo.On("FindByID", ctx, "e1").Return(&model.ReportExport{ID: "e1", StoragePath: "reports/e1.csv"}, nil)
				mStore.On("PresignGet", ctx, "reports/e1.csv", time.Minute).Return("https://minio/reports/e1.csv?sig", nil)
			},
			wantURL: "https://minio/reports/e1.csv?sig",
		},
		{
			name:       "validation - empty id",
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockReportExportRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing",
			setupMocks: func(_ *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockReportExportRepository)
			tt.setupMocks(mStore, mRepo)

			exp, err := newReportService(nil, mStore, mRepo).Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, exp.DownloadURL)
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReportService_Open(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockReportExportRepository)
	mRepo.On("FindByID", ctx, "e1").Return(&model.ReportExport{ID: "e1", StoragePath: "reports/e1.csv", Filename: "loans.csv"}, nil)
	mStore.On("Get", ctx, "reports/e1.csv").Return(io.NopCloser(strings.NewReader("a,b\n")), storage.ObjectInfo{Size: 4}, nil)

	rc, exp, err := newReportService(nil, mStore, mRepo).Open(ctx, "e1")

	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "a,b\n", string(body))
	assert.Equal(t, "loans.csv", exp.Filename)
}

func TestReportService_Delete(t *testing.T) {
	ctx := context.Background()
	found := &model.ReportExport{ID: "e1", StoragePath: "reports/e1.csv"}

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRepo.On("FindByID", ctx, "e1").Return(found, nil)
				mStore.On("Delete", ctx, "reports/e1.csv").Return(nil)
				mRepo.On("Delete", ctx, "e1").Return(nil)
			},
		},
		{
			name: "not found",
			setupMocks: func(_ *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRepo.On("FindByID", ctx, "e1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "storage error keeps the row",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockReportExportRepository) {
				mRepo.On("FindByID", ctx, "e1").Return(found, nil)
				mStore.On("Delete", ctx, "reports/e1.csv").Return(errors.New("storage fail"))
			},
			wantErrMsg: "delete storage: storage fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockReportExportRepository)
			tt.setupMocks(mStore, mRepo)

			err := newReportService(nil, mStore, mRepo).Delete(ctx, "e1")
			if err != nil {
				mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
			default:
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}
