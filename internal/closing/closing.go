// Package closing reconciles a cash-register closing: the amounts of the
// selected installments against the cash, transfer and card buckets counted
// by the cashier.
package closing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"motodash/internal/model"
)

var (
	ErrNoSelection        = errors.New("at least one installment must be selected")
	ErrUnknownInstallment = errors.New("installment is not pending closing")
	ErrNegativeAmount     = errors.New("tendered amounts must not be negative")
)

// Tender is what the cashier counted, per bucket.
type Tender struct {
	Cash      decimal.Decimal `json:"cashInRegister"`
	Transfers decimal.Decimal `json:"cashFromTransfers"`
	Cards     decimal.Decimal `json:"cashFromCards"`
}

// Total is the sum of the three buckets.
func (t Tender) Total() decimal.Decimal {
	return t.Cash.Add(t.Transfers).Add(t.Cards)
}

func (t Tender) validate() error {
	if t.Cash.IsNegative() || t.Transfers.IsNegative() || t.Cards.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// Summary is the result of a reconciliation.
//
// Delta is Tendered minus Expected. A positive delta means surplus in the
// register, a negative one a shortfall.
type Summary struct {
	Installments []model.Installment        `json:"installments"`
	Count        int                        `json:"count"`
	Expected     decimal.Decimal            `json:"expected"`
	ByMethod     map[string]decimal.Decimal `json:"byMethod"`
	Tender       Tender                     `json:"tender"`
	Tendered     decimal.Decimal            `json:"tendered"`
	Delta        decimal.Decimal            `json:"delta"`
	Balanced     bool                       `json:"balanced"`
	MethodDelta  map[string]decimal.Decimal `json:"methodDelta"`
}

// UnknownError lists the selected IDs that are not pending.
type UnknownError struct {
	IDs []string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUnknownInstallment.Error(), e.IDs)
}

func (e *UnknownError) Unwrap() error { return ErrUnknownInstallment }

// Reconcile computes the closing summary for the selected installments.
// Selected IDs must all be present in pending; duplicates count once.
func Reconcile(pending []model.Installment, selected []string, t Tender) (*Summary, error) {
	if len(selected) == 0 {
		return nil, ErrNoSelection
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	byID := make(map[string]model.Installment, len(pending))
	for _, in := range pending {
		byID[in.ID] = in
	}

	s := &Summary{
		Installments: make([]model.Installment, 0, len(selected)),
		Expected:     decimal.Zero,
		ByMethod: map[string]decimal.Decimal{
			model.PaymentCash:     decimal.Zero,
			model.PaymentTransfer: decimal.Zero,
			model.PaymentCard:     decimal.Zero,
		},
		Tender: t,
	}

	seen := make(map[string]struct{}, len(selected))
	var unknown []string
	for _, id := range selected {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		in, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		s.Installments = append(s.Installments, in)
		s.Expected = s.Expected.Add(in.Amount)
		method := in.PaymentMethod
		if method == "" {
			method = model.PaymentCash
		}
		s.ByMethod[method] = s.ByMethod[method].Add(in.Amount)
	}
	if len(unknown) > 0 {
		return nil, &UnknownError{IDs: unknown}
	}

	s.Count = len(s.Installments)
	s.Tendered = t.Total()
	s.Delta = s.Tendered.Sub(s.Expected)
	s.Balanced = s.Delta.IsZero()
	s.MethodDelta = map[string]decimal.Decimal{
		model.PaymentCash:     t.Cash.Sub(s.ByMethod[model.PaymentCash]),
		model.PaymentTransfer: t.Transfers.Sub(s.ByMethod[model.PaymentTransfer]),
		model.PaymentCard:     t.Cards.Sub(s.ByMethod[model.PaymentCard]),
	}
	return s, nil
}
