package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"motodash/internal/model"
	"motodash/internal/permission"
	"motodash/internal/whatsapp"
)

// Dashboard widget names.
const (
	WidgetSummary        = "summary"
	WidgetPendingClosing = "pending_closing"
	WidgetWhatsApp       = "whatsapp"
)

// DashboardAPI is the part of the lending API the dashboard reads.
type DashboardAPI interface {
	DashboardSummary(ctx context.Context, token string) (*model.DashboardSummary, error)
	PendingInstallments(ctx context.Context, token string) ([]model.Installment, error)
}

// WhatsAppState exposes the synced WhatsApp status.
type WhatsAppState interface {
	Snapshot() whatsapp.Status
}

// PendingClosing summarizes the installments waiting for a closing.
type PendingClosing struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Dashboard is the landing page payload. Widgets the session may not see
// are left out.
type Dashboard struct {
	Widgets        []string                `json:"widgets"`
	Summary        *model.DashboardSummary `json:"summary,omitempty"`
	PendingClosing *PendingClosing         `json:"pendingClosing,omitempty"`
	WhatsApp       *whatsapp.Status        `json:"whatsapp,omitempty"`
}

type DashboardService struct {
	api DashboardAPI
	wa  WhatsAppState
}

// NewDashboardService builds the service. wa may be nil when the WhatsApp
// socket is disabled.
func NewDashboardService(api DashboardAPI, wa WhatsAppState) *DashboardService {
	return &DashboardService{api: api, wa: wa}
}

// Widgets lists the widgets perms may see, in display order.
func (s *DashboardService) Widgets(perms *permission.Set) []string {
	out := make([]string, 0, 3)
	if perms.Has(permission.Dashboard, permission.View) {
		out = append(out, WidgetSummary)
	}
	if perms.HasAny(permission.P(permission.Closings, permission.View), permission.P(permission.Closings, permission.Create)) {
		out = append(out, WidgetPendingClosing)
	}
	if s.wa != nil && perms.Has(permission.WhatsApp, permission.View) {
		out = append(out, WidgetWhatsApp)
	}
	return out
}

// Load fetches the visible widgets concurrently. The first failing call
// cancels the others.
func (s *DashboardService) Load(ctx context.Context, token string, perms *permission.Set) (*Dashboard, error) {
	d := &Dashboard{Widgets: s.Widgets(perms)}
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range d.Widgets {
		switch w {
		case WidgetSummary:
			g.Go(func() error {
				sum, err := s.api.DashboardSummary(gctx, token)
				if err != nil {
					return fmt.Errorf("load summary: %w", err)
				}
				d.Summary = sum
				return nil
			})
		case WidgetPendingClosing:
			g.Go(func() error {
				items, err := s.api.PendingInstallments(gctx, token)
				if err != nil {
					return fmt.Errorf("load pending installments: %w", err)
				}
				pc := &PendingClosing{Count: len(items), Amount: decimal.Zero}
				for _, in := range items {
					pc.Amount = pc.Amount.Add(in.Amount)
				}
				d.PendingClosing = pc
				return nil
			})
		case WidgetWhatsApp:
			st := s.wa.Snapshot()
			d.WhatsApp = &st
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
