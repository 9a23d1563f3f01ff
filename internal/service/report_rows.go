package service

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"motodash/internal/apiclient"
	"motodash/internal/model"
)

const reportPageSize = 200

// APIRowSource reads report rows from the lending API collections. Dates
// are bucketed into days of loc.
type APIRowSource struct {
	api *apiclient.Client
	loc *time.Location
}

func NewAPIRowSource(api *apiclient.Client, loc *time.Location) *APIRowSource {
	if loc == nil {
		loc = time.UTC
	}
	return &APIRowSource{api: api, loc: loc}
}

var _ RowSource = (*APIRowSource)(nil)

func (s *APIRowSource) Rows(ctx context.Context, token, kind string, from, to time.Time) (*Table, error) {
	q := apiclient.ListQuery{Filters: map[string]string{
		"startDate": from.In(s.loc).Format(dateLayout),
		"endDate":   to.In(s.loc).AddDate(0, 0, -1).Format(dateLayout),
	}}
	switch kind {
	case model.ReportLoans:
		items, err := s.api.Loans.All(ctx, token, q, reportPageSize)
		if err != nil {
			return nil, err
		}
		return LoanTable(inRange(items, from, to, func(l model.Loan) time.Time { return l.StartDate }), s.loc), nil
	case model.ReportInstallments:
		items, err := s.api.Installments.All(ctx, token, q, reportPageSize)
		if err != nil {
			return nil, err
		}
		return InstallmentTable(inRange(items, from, to, func(i model.Installment) time.Time { return i.PaymentDate }), s.loc), nil
	case model.ReportClosings:
		items, err := s.api.Closings.All(ctx, token, q, reportPageSize)
		if err != nil {
			return nil, err
		}
		return ClosingTable(inRange(items, from, to, func(c model.Closing) time.Time { return c.CreatedAt }), s.loc), nil
	case model.ReportExpenses:
		items, err := s.api.Expenses.All(ctx, token, q, reportPageSize)
		if err != nil {
			return nil, err
		}
		return ExpenseTable(inRange(items, from, to, func(e model.Expense) time.Time { return e.Date }), s.loc), nil
	case model.ReportCashFlow:
		items, err := s.api.CashFlowTransactions.All(ctx, token, q, reportPageSize)
		if err != nil {
			return nil, err
		}
		return CashFlowTable(inRange(items, from, to, func(t model.CashFlowTransaction) time.Time { return t.Date }), s.loc), nil
	default:
		return nil, ErrUnknownKind
	}
}

// inRange keeps items dated in [from, to), compared as instants. The API
// filters too, but not every collection honours startDate/endDate.
func inRange[T any](items []T, from, to time.Time, at func(T) time.Time) []T {
	out := items[:0]
	for _, it := range items {
		d := at(it)
		if !d.Before(from) && d.Before(to) {
			out = append(out, it)
		}
	}
	return out
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func day(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

func LoanTable(items []model.Loan, loc *time.Location) *Table {
	t := &Table{Header: []string{"contract", "borrower", "plate", "total", "down_payment", "installments", "paid_installments", "debt_remaining", "status", "start_date"}}
	for _, l := range items {
		var borrower, plate string
		if l.User != nil {
			borrower = l.User.Name
		}
		if l.Vehicle != nil {
			plate = l.Vehicle.Plate
		}
		t.Rows = append(t.Rows, []string{
			l.ContractNumber, borrower, plate,
			money(l.TotalAmount), money(l.DownPayment),
			strconv.Itoa(l.InstallmentCount), strconv.Itoa(l.PaidInstallments),
			money(l.DebtRemaining), l.Status, day(l.StartDate, loc),
		})
	}
	return t
}

func InstallmentTable(items []model.Installment, loc *time.Location) *Table {
	t := &Table{Header: []string{"id", "loan_id", "amount", "payment_method", "payment_date", "late", "notes"}}
	for _, i := range items {
		t.Rows = append(t.Rows, []string{
			i.ID, i.LoanID, money(i.Amount), i.PaymentMethod, day(i.PaymentDate, loc), strconv.FormatBool(i.IsLate), i.Notes,
		})
	}
	return t
}

func ClosingTable(items []model.Closing, loc *time.Location) *Table {
	t := &Table{Header: []string{"id", "date", "cash", "transfers", "cards", "total", "installments", "notes"}}
	for _, c := range items {
		total := c.CashInRegister.Add(c.CashFromTransfers).Add(c.CashFromCards)
		t.Rows = append(t.Rows, []string{
			c.ID, day(c.CreatedAt, loc),
			money(c.CashInRegister), money(c.CashFromTransfers), money(c.CashFromCards), money(total),
			strconv.Itoa(len(c.InstallmentIDs)), c.Notes,
		})
	}
	return t
}

func ExpenseTable(items []model.Expense, loc *time.Location) *Table {
	t := &Table{Header: []string{"id", "date", "category", "description", "payment_method", "provider_id", "amount"}}
	for _, e := range items {
		t.Rows = append(t.Rows, []string{
			e.ID, day(e.Date, loc), e.Category, e.Description, e.PaymentMethod, e.ProviderID, money(e.Amount),
		})
	}
	return t
}

func CashFlowTable(items []model.CashFlowTransaction, loc *time.Location) *Table {
	t := &Table{Header: []string{"id", "date", "account_id", "type", "category", "description", "amount"}}
	for _, tx := range items {
		t.Rows = append(t.Rows, []string{
			tx.ID, day(tx.Date, loc), tx.AccountID, tx.Type, tx.Category, tx.Description, money(tx.Amount),
		})
	}
	return t
}
