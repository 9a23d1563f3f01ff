package validation

import (
	"time"

	"github.com/shopspring/decimal"

	"motodash/internal/model"
)

// DateLayout is the date format accepted by every form.
const DateLayout = "2006-01-02"

// Payloader turns a validated form into the body sent to the lending API.
type Payloader interface {
	Payload() any
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (f LoginForm) Payload() any {
	return model.LoginRequest{Email: f.Email, Password: f.Password}
}

// OwnerForm creates a staff account. Password must be at least 8
// characters and confirmPassword must repeat it.
type OwnerForm struct {
	Name            string `json:"name" validate:"required,notblank,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	StoreID         string `json:"storeId,omitempty"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (f OwnerForm) Payload() any {
	return map[string]any{
		"name":     f.Name,
		"email":    f.Email,
		"role":     f.Role,
		"storeId":  f.StoreID,
		"password": f.Password,
	}
}

// OwnerUpdateForm edits a staff account. The password is only changed when
// provided.
type OwnerUpdateForm struct {
	Name            string `json:"name" validate:"required,notblank,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	StoreID         string `json:"storeId,omitempty"`
	IsActive        *bool  `json:"isActive,omitempty"`
	Password        string `json:"password,omitempty" validate:"omitempty,min=8"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"eqfield=Password"`
}

func (f OwnerUpdateForm) Payload() any {
	p := map[string]any{
		"name":    f.Name,
		"email":   f.Email,
		"role":    f.Role,
		"storeId": f.StoreID,
	}
	if f.IsActive != nil {
		p["isActive"] = *f.IsActive
	}
	if f.Password != "" {
		p["password"] = f.Password
	}
	return p
}

type ChangePasswordForm struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (f ChangePasswordForm) Payload() any {
	return map[string]string{"currentPassword": f.CurrentPassword, "newPassword": f.Password}
}

type UserForm struct {
	Name       string `json:"name" validate:"required,notblank,max=120"`
	Identifier string `json:"identification" validate:"required,notblank,max=30"`
	Phone      string `json:"phone" validate:"required,e164|numeric"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Address    string `json:"address,omitempty" validate:"max=200"`
	City       string `json:"city,omitempty" validate:"max=80"`
}

func (f UserForm) Payload() any { return f }

type VehicleForm struct {
	Brand  string          `json:"brand" validate:"required,notblank"`
	Model  string          `json:"model" validate:"required,notblank"`
	Plate  string          `json:"plate" validate:"required,alphanum,min=5,max=7"`
	Year   int             `json:"year" validate:"required,gte=1950,lte=2100"`
	Color  string          `json:"color,omitempty" validate:"max=40"`
	Price  decimal.Decimal `json:"price" validate:"gt=0"`
	Status string          `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE FINANCED SOLD"`
}

func (f VehicleForm) Payload() any { return f }

type LoanForm struct {
	UserID           string          `json:"userId" validate:"required"`
	VehicleID        string          `json:"vehicleId" validate:"required"`
	TotalAmount      decimal.Decimal `json:"totalAmount" validate:"gt=0"`
	DownPayment      decimal.Decimal `json:"downPayment" validate:"gte=0"`
	InstallmentCount int             `json:"installments" validate:"required,gt=0,lte=520"`
	Frequency        string          `json:"paymentFrequency" validate:"required,oneof=DAILY WEEKLY BIWEEKLY MONTHLY"`
	InterestRate     decimal.Decimal `json:"interestRate" validate:"gte=0,lte=100"`
	StartDate        string          `json:"startDate" validate:"required,datetime=2006-01-02"`
}

func (f LoanForm) Payload() any { return f }

// InstallmentForm records a payment against a loan.
type InstallmentForm struct {
	LoanID        string          `json:"loanId" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,oneof=CASH TRANSFER CARD"`
	PaymentDate   string          `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	IsLate        bool            `json:"isLate"`
	Notes         string          `json:"notes,omitempty" validate:"max=500"`
}

func (f InstallmentForm) Payload() any { return f }

type ExpenseForm struct {
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Category      string          `json:"category" validate:"required,notblank"`
	Description   string          `json:"description,omitempty" validate:"max=500"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,oneof=CASH TRANSFER CARD"`
	ProviderID    string          `json:"providerId,omitempty"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
}

func (f ExpenseForm) Payload() any { return f }

type ProviderForm struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
}

func (f ProviderForm) Payload() any { return f }

// ClosingForm is the cash-register closing submitted by a cashier.
type ClosingForm struct {
	InstallmentIDs []string        `json:"installmentIds" validate:"required,min=1,dive,required"`
	CashInRegister decimal.Decimal `json:"cashInRegister" validate:"gte=0"`
	Transfers      decimal.Decimal `json:"cashFromTransfers" validate:"gte=0"`
	Cards          decimal.Decimal `json:"cashFromCards" validate:"gte=0"`
	Notes          string          `json:"notes,omitempty" validate:"max=500"`
}

type CashFlowAccountForm struct {
	Name     string          `json:"name" validate:"required,notblank"`
	Type     string          `json:"accountType" validate:"required,oneof=CASH BANK WALLET"`
	Balance  decimal.Decimal `json:"balance" validate:"gte=0"`
	Currency string          `json:"currency" validate:"required,len=3,uppercase"`
}

func (f CashFlowAccountForm) Payload() any { return f }

type CashFlowTransactionForm struct {
	AccountID   string          `json:"accountId" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Category    string          `json:"category" validate:"required,notblank"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
}

func (f CashFlowTransactionForm) Payload() any { return f }

type CashFlowTransferForm struct {
	FromAccountID string          `json:"fromAccountId" validate:"required"`
	ToAccountID   string          `json:"toAccountId" validate:"required,nefield=FromAccountID"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Description   string          `json:"description,omitempty" validate:"max=500"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
}

func (f CashFlowTransferForm) Payload() any { return f }

type CashFlowRuleForm struct {
	Name      string `json:"name" validate:"required,notblank"`
	Match     string `json:"match" validate:"required,notblank"`
	Category  string `json:"category" validate:"required,notblank"`
	AccountID string `json:"accountId,omitempty"`
	Active    bool   `json:"active"`
}

func (f CashFlowRuleForm) Payload() any { return f }

type PermissionsForm struct {
	Permissions model.PermissionMap `json:"permissions" validate:"required"`
}

type ReportExportForm struct {
	Kind string `json:"kind" validate:"required,reportkind"`
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// Range parses the validated bounds as midnights in loc. To is inclusive:
// the returned end is the start of the following day.
func (f ReportExportForm) Range(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	from, _ := time.ParseInLocation(DateLayout, f.From, loc)
	to, _ := time.ParseInLocation(DateLayout, f.To, loc)
	return from, to.AddDate(0, 0, 1)
}
