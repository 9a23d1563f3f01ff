package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motodash/internal/apiclient"
	"motodash/internal/model"
)

func TestAPIRowSource_Installments(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/installments", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(apiclient.Page[model.Installment]{
			Items: []model.Installment{
				{ID: "i1", LoanID: "l1", Amount: decimal.NewFromInt(100), PaymentMethod: model.PaymentCash, PaymentDate: time.Date(2026, 10, 3, 15, 0, 0, 0, time.UTC)},
				{ID: "i2", LoanID: "l1", Amount: decimal.NewFromInt(100), PaymentMethod: model.PaymentCash, PaymentDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
			},
			Total: 2,
		})
	}))
	defer srv.Close()

	src := NewAPIRowSource(apiclient.NewWithHTTPClient(srv.URL, srv.Client()), nil)
	table, err := src.Rows(context.Background(), "tok", model.ReportInstallments, octFirst, novFirst)

	require.NoError(t, err)
	assert.Contains(t, gotQuery, "startDate=2026-10-01")
	assert.Contains(t, gotQuery, "endDate=2026-10-31")
	assert.Equal(t, []string{"id", "loan_id", "amount", "payment_method", "payment_date", "late", "notes"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"i1", "l1", "100.00", "CASH", "2026-10-03", "false", ""}, table.Rows[0])
}

func TestAPIRowSource_LocalDays(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(apiclient.Page[model.Installment]{
			Items: []model.Installment{
				// 21:00 on the 18th in Bogota.
				{ID: "late-evening", Amount: decimal.NewFromInt(50), PaymentDate: time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)},
				// 23:00 on the 17th in Bogota.
				{ID: "day-before", Amount: decimal.NewFromInt(50), PaymentDate: time.Date(2026, 10, 18, 4, 0, 0, 0, time.UTC)},
				// 00:30 on the 19th in Bogota.
				{ID: "day-after", Amount: decimal.NewFromInt(50), PaymentDate: time.Date(2026, 10, 19, 5, 30, 0, 0, time.UTC)},
			},
			Total: 3,
		})
	}))
	defer srv.Close()

	from := time.Date(2026, 10, 18, 0, 0, 0, 0, bogota)
	src := NewAPIRowSource(apiclient.NewWithHTTPClient(srv.URL, srv.Client()), bogota)
	table, err := src.Rows(context.Background(), "tok", model.ReportInstallments, from, from.AddDate(0, 0, 1))

	require.NoError(t, err)
	assert.Contains(t, gotQuery, "startDate=2026-10-18")
	assert.Contains(t, gotQuery, "endDate=2026-10-18")
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "late-evening", table.Rows[0][0])
	assert.Equal(t, "2026-10-18", table.Rows[0][4])
}

func TestAPIRowSource_UnknownKind(t *testing.T) {
	src := NewAPIRowSource(apiclient.NewWithHTTPClient("http://127.0.0.1:0", http.DefaultClient), time.UTC)
	_, err := src.Rows(context.Background(), "tok", "payroll", octFirst, novFirst)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTables(t *testing.T) {
	loans := LoanTable([]model.Loan{{
		ContractNumber:   "C-001",
		User:             &model.User{Name: "Ana"},
		Vehicle:          &model.Vehicle{Plate: "ABC12D"},
		TotalAmount:      decimal.NewFromInt(5000000),
		DownPayment:      decimal.NewFromInt(500000),
		InstallmentCount: 52,
		PaidInstallments: 3,
		DebtRemaining:    decimal.NewFromInt(4200000),
		Status:           "ACTIVE",
		StartDate:        octFirst,
	}}, time.UTC)
	assert.Equal(t, []string{"C-001", "Ana", "ABC12D", "5000000.00", "500000.00", "52", "3", "4200000.00", "ACTIVE", "2026-10-01"}, loans.Rows[0])

	closings := ClosingTable([]model.Closing{{
		ID:                "c1",
		CashInRegister:    decimal.NewFromInt(300),
		CashFromTransfers: decimal.NewFromInt(50),
		CashFromCards:     decimal.Zero,
		InstallmentIDs:    []string{"i1", "i2"},
		CreatedAt:         octFirst,
	}}, time.UTC)
	assert.Equal(t, "350.00", closings.Rows[0][5])
	assert.Equal(t, "2", closings.Rows[0][6])

	assert.Empty(t, ExpenseTable(nil, time.UTC).Rows)
	assert.Len(t, CashFlowTable([]model.CashFlowTransaction{{ID: "t1"}}, time.UTC).Rows[0], 7)
}
