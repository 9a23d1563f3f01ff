package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"motodash/internal/model"
	"motodash/internal/whatsapp"
)

// WhatsAppAPI is the REST side of the WhatsApp integration.
type WhatsAppAPI interface {
	WhatsAppStatus(ctx context.Context, token string) (*model.WhatsAppStatus, error)
	WhatsAppLogout(ctx context.Context, token string) error
	WhatsAppRestart(ctx context.Context, token string) error
}

// WhatsAppSync is the socket-fed state.
type WhatsAppSync interface {
	Snapshot() whatsapp.Status
	Initialized() bool
	Reconcile(st model.WhatsAppStatus)
	Logs() []whatsapp.LogEntry
	RequestQR() error
	Restart() error
}

// WhatsAppHandlers serves the integration page. Sync may be nil when the
// socket is disabled; status then comes from REST alone.
type WhatsAppHandlers struct {
	API  WhatsAppAPI
	Sync WhatsAppSync
}

// Status returns the synced state. ?refresh=true, or a state nothing has
// been applied to yet, reloads it from REST first.
func (h WhatsAppHandlers) Status() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.Sync != nil && h.Sync.Initialized() && !c.QueryBool("refresh") {
			return c.JSON(h.Sync.Snapshot())
		}
		st, err := h.API.WhatsAppStatus(c.UserContext(), token(c))
		if err != nil {
			return err
		}
		if h.Sync == nil {
			return c.JSON(whatsapp.FromREST(*st))
		}
		h.Sync.Reconcile(*st)
		return c.JSON(h.Sync.Snapshot())
	}
}

// RequestQR emits request_qr on the socket.
func (h WhatsAppHandlers) RequestQR() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.Sync == nil {
			return whatsapp.ErrNotConnected
		}
		if err := h.Sync.RequestQR(); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusAccepted)
	}
}

// Logout unlinks the WhatsApp session and marks the state disconnected.
func (h WhatsAppHandlers) Logout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.API.WhatsAppLogout(c.UserContext(), token(c)); err != nil {
			return err
		}
		if h.Sync != nil {
			h.Sync.Reconcile(model.WhatsAppStatus{})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Restart restarts the API-side client and reopens the socket if it gave up.
func (h WhatsAppHandlers) Restart() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.API.WhatsAppRestart(c.UserContext(), token(c)); err != nil {
			return err
		}
		if h.Sync != nil {
			if err := h.Sync.Restart(); err != nil {
				return err
			}
		}
		return c.SendStatus(fiber.StatusAccepted)
	}
}

func (h WhatsAppHandlers) Logs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logs := []whatsapp.LogEntry{}
		if h.Sync != nil {
			logs = h.Sync.Logs()
		}
		return c.JSON(fiber.Map{"data": logs, "total": len(logs)})
	}
}
