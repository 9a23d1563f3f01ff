package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle is a financed motorcycle.
type Vehicle struct {
	ID        string          `json:"id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Plate     string          `json:"plate"`
	Year      int             `json:"year"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Loan is a financed motorcycle lease with scheduled installments.
type Loan struct {
	ID                string          `json:"id"`
	ContractNumber    string          `json:"contractNumber"`
	UserID            string          `json:"userId"`
	VehicleID         string          `json:"vehicleId"`
	User              *User           `json:"user,omitempty"`
	Vehicle           *Vehicle        `json:"vehicle,omitempty"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	DownPayment       decimal.Decimal `json:"downPayment"`
	InstallmentCount  int             `json:"installments"`
	PaidInstallments  int             `json:"paidInstallments"`
	InstallmentAmount decimal.Decimal `json:"installmentPaymentAmmount"`
	DebtRemaining     decimal.Decimal `json:"debtRemaining"`
	Frequency         string          `json:"paymentFrequency"`
	Status            string          `json:"status"`
	StartDate         time.Time       `json:"startDate"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// Installment is a single scheduled or recorded payment against a loan.
type Installment struct {
	ID            string          `json:"id"`
	LoanID        string          `json:"loanId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentDate   time.Time       `json:"paymentDate"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	IsLate        bool            `json:"isLate"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `json:"createdById,omitempty"`
}
