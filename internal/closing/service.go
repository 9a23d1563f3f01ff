package closing

import (
	"context"
	"fmt"

	"motodash/internal/model"
)

// API is the part of the lending API a closing needs.
type API interface {
	PendingInstallments(ctx context.Context, token string) ([]model.Installment, error)
	CreateClosing(ctx context.Context, token string, in model.ClosingRequest) (*model.Closing, error)
}

// Request is a closing as entered by the cashier.
type Request struct {
	InstallmentIDs []string
	Tender         Tender
	Notes          string
}

// Service previews and submits closings against the lending API.
type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// Pending lists the installments that can still be closed.
func (s *Service) Pending(ctx context.Context, token string) ([]model.Installment, error) {
	return s.api.PendingInstallments(ctx, token)
}

// Preview reconciles req against the current pending installments without
// recording anything.
func (s *Service) Preview(ctx context.Context, token string, req Request) (*Summary, error) {
	pending, err := s.api.PendingInstallments(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load pending installments: %w", err)
	}
	return Reconcile(pending, req.InstallmentIDs, req.Tender)
}

// Submit reconciles req and records the closing in one POST.
func (s *Service) Submit(ctx context.Context, token string, req Request) (*model.Closing, *Summary, error) {
	sum, err := s.Preview(ctx, token, req)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(sum.Installments))
	for _, in := range sum.Installments {
		ids = append(ids, in.ID)
	}
	c, err := s.api.CreateClosing(ctx, token, model.ClosingRequest{
		CashInRegister:    req.Tender.Cash,
		CashFromTransfers: req.Tender.Transfers,
		CashFromCards:     req.Tender.Cards,
		Notes:             req.Notes,
		InstallmentIDs:    ids,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create closing: %w", err)
	}
	return c, sum, nil
}
