package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashFlowAccount is a ledger account (register, bank, wallet).
type CashFlowAccount struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"accountType"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CashFlowTransaction is an income or expense movement on an account.
type CashFlowTransaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
}

// CashFlowTransfer moves money between two accounts.
type CashFlowTransfer struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	Date          time.Time       `json:"date"`
}

// CashFlowRule auto-categorizes movements.
type CashFlowRule struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Match     string `json:"match"`
	Category  string `json:"category"`
	AccountID string `json:"accountId,omitempty"`
	Active    bool   `json:"active"`
}
