package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"motodash/internal/model"
	"motodash/internal/service"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Create(ctx context.Context, req service.ExportRequest) (*model.ReportExport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReportExport), args.Error(1)
}

func (m *MockReportService) List(ctx context.Context, kind string, limit, offset int) (*service.ReportListResult, error) {
	args := m.Called(ctx, kind, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportListResult), args.Error(1)
}

func (m *MockReportService) Get(ctx context.Context, id string) (*model.ReportExport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReportExport), args.Error(1)
}

func (m *MockReportService) Open(ctx context.Context, id string) (io.ReadCloser, *model.ReportExport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.ReportExport), args.Error(2)
}

func (m *MockReportService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
