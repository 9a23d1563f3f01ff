package closing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"motodash/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pending() []model.Installment {
	return []model.Installment{
		{ID: "i1", Amount: d("100"), PaymentMethod: model.PaymentCash},
		{ID: "i2", Amount: d("100"), PaymentMethod: model.PaymentCash},
		{ID: "i3", Amount: d("100"), PaymentMethod: model.PaymentCash},
		{ID: "i4", Amount: d("250.50"), PaymentMethod: model.PaymentTransfer},
		{ID: "i5", Amount: d("49.50"), PaymentMethod: model.PaymentCard},
	}
}

func TestReconcile_Balanced(t *testing.T) {
	s, err := Reconcile(pending(), []string{"i1", "i2", "i3"}, Tender{Cash: d("300")})

	require.NoError(t, err)
	assert.Equal(t, 3, s.Count)
	assert.True(t, s.Expected.Equal(d("300")))
	assert.True(t, s.Tendered.Equal(d("300")))
	assert.True(t, s.Delta.IsZero())
	assert.True(t, s.Balanced)
}

func TestReconcile_Delta(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		tender   Tender
		delta    string
	}{
		{"shortfall", []string{"i1", "i4"}, Tender{Cash: d("90"), Transfers: d("250.50")}, "-10"},
		{"surplus", []string{"i5"}, Tender{Cards: d("50")}, "0.5"},
		{"mixed buckets", []string{"i1", "i4", "i5"}, Tender{Cash: d("100"), Transfers: d("250.50"), Cards: d("49.50")}, "0"},
		{"duplicates count once", []string{"i1", "i1", "i2"}, Tender{Cash: d("200")}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Reconcile(pending(), tt.selected, tt.tender)
			require.NoError(t, err)
			assert.True(t, s.Delta.Equal(d(tt.delta)), "delta %s", s.Delta)
			assert.Equal(t, s.Delta.IsZero(), s.Balanced)
		})
	}
}

func TestReconcile_MethodBreakdown(t *testing.T) {
	s, err := Reconcile(pending(), []string{"i1", "i4", "i5"}, Tender{Cash: d("120"), Transfers: d("250.50"), Cards: d("40")})

	require.NoError(t, err)
	assert.True(t, s.ByMethod[model.PaymentCash].Equal(d("100")))
	assert.True(t, s.ByMethod[model.PaymentTransfer].Equal(d("250.50")))
	assert.True(t, s.MethodDelta[model.PaymentCash].Equal(d("20")))
	assert.True(t, s.MethodDelta[model.PaymentTransfer].IsZero())
	assert.True(t, s.MethodDelta[model.PaymentCard].Equal(d("-9.50")))
	assert.True(t, s.Delta.Equal(d("10.50")))
}

func TestReconcile_Errors(t *testing.T) {
	_, err := Reconcile(pending(), nil, Tender{})
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = Reconcile(pending(), []string{"i1"}, Tender{Cash: d("-1")})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Reconcile(pending(), []string{"i1", "gone", "other"}, Tender{Cash: d("100")})
	assert.ErrorIs(t, err, ErrUnknownInstallment)
	var ue *UnknownError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []string{"gone", "other"}, ue.IDs)
}

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) PendingInstallments(ctx context.Context, token string) ([]model.Installment, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Installment), args.Error(1)
}

func (m *mockAPI) CreateClosing(ctx context.Context, token string, in model.ClosingRequest) (*model.Closing, error) {
	args := m.Called(ctx, token, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Closing), args.Error(1)
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	api.On("PendingInstallments", ctx, "tok").Return(pending(), nil).Once()
	api.On("CreateClosing", ctx, "tok", mock.MatchedBy(func(in model.ClosingRequest) bool {
		return assert.ObjectsAreEqual([]string{"i1", "i2", "i3"}, in.InstallmentIDs) &&
			in.CashInRegister.Equal(d("300")) && in.Notes == "turno tarde"
	})).Return(&model.Closing{ID: "c1"}, nil).Once()

	svc := NewService(api)
	c, sum, err := svc.Submit(ctx, "tok", Request{
		InstallmentIDs: []string{"i1", "i2", "i2", "i3"},
		Tender:         Tender{Cash: d("300")},
		Notes:          "turno tarde",
	})

	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	assert.True(t, sum.Balanced)
	api.AssertExpectations(t)
}

func TestService_SubmitRejectsBeforePosting(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	api.On("PendingInstallments", ctx, "tok").Return(pending(), nil).Once()

	svc := NewService(api)
	_, _, err := svc.Submit(ctx, "tok", Request{InstallmentIDs: []string{"nope"}})

	assert.ErrorIs(t, err, ErrUnknownInstallment)
	api.AssertNotCalled(t, "CreateClosing", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_PreviewAPIError(t *testing.T) {
	ctx := context.Background()
	api := new(mockAPI)
	api.On("PendingInstallments", ctx, "tok").Return(nil, errors.New("boom")).Once()

	_, err := NewService(api).Preview(ctx, "tok", Request{InstallmentIDs: []string{"i1"}})

	assert.ErrorContains(t, err, "load pending installments: boom")
}
