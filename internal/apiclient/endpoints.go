package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"motodash/internal/model"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, in model.LoginRequest) (*model.LoginResponse, error) {
	var out model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", "", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the owner the token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*model.Owner, error) {
	var out model.Owner
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/profile", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword updates the password of the token's owner.
func (c *Client) ChangePassword(ctx context.Context, token string, in any) error {
	return c.do(ctx, http.MethodPatch, "/api/v1/auth/password", token, nil, in, nil)
}

// LoanInstallments lists the installments recorded against a loan.
func (c *Client) LoanInstallments(ctx context.Context, token, loanID string) ([]model.Installment, error) {
	out := make([]model.Installment, 0)
	path := "/api/v1/loans/" + url.PathEscape(loanID) + "/installments"
	if err := c.do(ctx, http.MethodGet, path, token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingInstallments lists installments not yet included in any closing.
func (c *Client) PendingInstallments(ctx context.Context, token string) ([]model.Installment, error) {
	out := make([]model.Installment, 0)
	if err := c.do(ctx, http.MethodGet, "/api/v1/closing/pending-installments", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClosing records a cash-register closing.
func (c *Client) CreateClosing(ctx context.Context, token string, in model.ClosingRequest) (*model.Closing, error) {
	return c.Closings.Create(ctx, token, in)
}

// MyPermissions returns the granted matrix of the token's owner.
func (c *Client) MyPermissions(ctx context.Context, token string) (model.PermissionMap, error) {
	out := make(model.PermissionMap)
	if err := c.do(ctx, http.MethodGet, "/api/v1/permissions/me", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OwnerPermissions returns the granted matrix of another owner.
func (c *Client) OwnerPermissions(ctx context.Context, token, ownerID string) (model.PermissionMap, error) {
	out := make(model.PermissionMap)
	path := "/api/v1/permissions/owners/" + url.PathEscape(ownerID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOwnerPermissions replaces the granted matrix of an owner.
func (c *Client) UpdateOwnerPermissions(ctx context.Context, token, ownerID string, perms model.PermissionMap) (model.PermissionMap, error) {
	out := make(model.PermissionMap)
	path := "/api/v1/permissions/owners/" + url.PathEscape(ownerID)
	body := map[string]any{"permissions": perms}
	if err := c.do(ctx, http.MethodPut, path, token, nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WhatsAppStatus returns the current WhatsApp session state.
func (c *Client) WhatsAppStatus(ctx context.Context, token string) (*model.WhatsAppStatus, error) {
	var out model.WhatsAppStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/whatsapp/status", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WhatsAppLogout closes the WhatsApp session on the API side.
func (c *Client) WhatsAppLogout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/whatsapp/logout", token, nil, nil, nil)
}

// WhatsAppRestart asks the API to start a fresh WhatsApp session.
func (c *Client) WhatsAppRestart(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/whatsapp/restart", token, nil, nil, nil)
}

// DashboardSummary returns the widget figures computed by the API.
func (c *Client) DashboardSummary(ctx context.Context, token string) (*model.DashboardSummary, error) {
	var out model.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/reports/summary", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
