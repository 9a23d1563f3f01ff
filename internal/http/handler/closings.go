package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"motodash/internal/closing"
	"motodash/internal/model"
	"motodash/internal/validation"
)

// ClosingService reconciles and submits cash-register closings.
type ClosingService interface {
	Pending(ctx context.Context, token string) ([]model.Installment, error)
	Preview(ctx context.Context, token string, req closing.Request) (*closing.Summary, error)
	Submit(ctx context.Context, token string, req closing.Request) (*model.Closing, *closing.Summary, error)
}

func closingRequest(c *fiber.Ctx) (closing.Request, error) {
	var form validation.ClosingForm
	if err := bindForm(c, &form); err != nil {
		return closing.Request{}, err
	}
	return closing.Request{
		InstallmentIDs: form.InstallmentIDs,
		Tender: closing.Tender{
			Cash:      form.CashInRegister,
			Transfers: form.Transfers,
			Cards:     form.Cards,
		},
		Notes: form.Notes,
	}, nil
}

// PendingInstallments lists the installments not yet covered by a closing.
func PendingInstallments(svc ClosingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Pending(c.UserContext(), token(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}

// PreviewClosing reconciles a selection without submitting it.
func PreviewClosing(svc ClosingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := closingRequest(c)
		if err != nil {
			return err
		}
		sum, err := svc.Preview(c.UserContext(), token(c), req)
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}

// SubmitClosing reconciles and records a closing. An unbalanced closing is
// still recorded; the summary carries the delta.
func SubmitClosing(svc ClosingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := closingRequest(c)
		if err != nil {
			return err
		}
		created, sum, err := svc.Submit(c.UserContext(), token(c), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"closing": created, "summary": sum})
	}
}
