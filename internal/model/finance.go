package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is an outgoing payment recorded by staff.
type Expense struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	PaymentMethod string          `json:"paymentMethod"`
	ProviderID    string          `json:"providerId,omitempty"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Provider is a supplier referenced by expenses.
type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Closing is a daily cash-register reconciliation record.
type Closing struct {
	ID                string          `json:"id"`
	CashInRegister    decimal.Decimal `json:"cashInRegister"`
	CashFromTransfers decimal.Decimal `json:"cashFromTransfers"`
	CashFromCards     decimal.Decimal `json:"cashFromCards"`
	Notes             string          `json:"notes,omitempty"`
	InstallmentIDs    []string        `json:"installmentIds,omitempty"`
	CreatedBy         string          `json:"createdById,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// ClosingRequest is the single POST that records a closing.
type ClosingRequest struct {
	CashInRegister    decimal.Decimal `json:"cashInRegister"`
	CashFromTransfers decimal.Decimal `json:"cashFromTransfers"`
	CashFromCards     decimal.Decimal `json:"cashFromCards"`
	Notes             string          `json:"notes,omitempty"`
	InstallmentIDs    []string        `json:"installmentIds"`
}
