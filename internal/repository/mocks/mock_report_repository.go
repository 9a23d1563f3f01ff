package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"motodash/internal/model"
	"motodash/internal/repository"
)

type MockReportExportRepository struct {
	mock.Mock
}

func (m *MockReportExportRepository) Create(ctx context.Context, e *model.ReportExport) (*model.ReportExport, error) {
	args := m.Called(ctx, e)
	if f, ok := args.Get(0).(func(context.Context, *model.ReportExport) *model.ReportExport); ok {
		return f(ctx, e), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReportExport), args.Error(1)
}

func (m *MockReportExportRepository) FindByID(ctx context.Context, id string) (*model.ReportExport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReportExport), args.Error(1)
}

func (m *MockReportExportRepository) List(ctx context.Context, f repository.ReportExportFilter, pq repository.PageQuery) (*repository.PageResult[model.ReportExport], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ReportExport]), args.Error(1)
}

func (m *MockReportExportRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
