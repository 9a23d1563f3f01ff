package model

import "github.com/shopspring/decimal"

// DashboardSummary is the widget data computed by the lending API.
type DashboardSummary struct {
	ActiveLoans         int             `json:"activeLoans"`
	OverdueInstallments int             `json:"overdueInstallments"`
	CollectedToday      decimal.Decimal `json:"collectedToday"`
	ExpensesThisMonth   decimal.Decimal `json:"expensesThisMonth"`
	TotalDebt           decimal.Decimal `json:"totalDebt"`
}
