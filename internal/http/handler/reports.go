package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"motodash/internal/http/middleware"
	"motodash/internal/service"
	"motodash/internal/validation"
)

// CreateReport renders and stores a CSV export. Form dates are days in loc.
func CreateReport(svc service.ReportService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.ReportExportForm
		if err := bindForm(c, &form); err != nil {
			return err
		}
		from, to := form.Range(loc)
		sess := middleware.SessionFrom(c)
		exp, err := svc.Create(c.UserContext(), service.ExportRequest{
			Kind:      form.Kind,
			From:      from,
			To:        to,
			Token:     sess.Token,
			CreatedBy: sess.Owner.ID,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(exp)
	}
}

const maxReportLimit = 100

// ListReports pages exports with limit & offset, optionally by kind.
func ListReports(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		if limit > maxReportLimit {
			limit = maxReportLimit
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		res, err := svc.List(c.UserContext(), c.Query("kind"), limit, offset)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// GetReport returns the export with a presigned download URL.
func GetReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !validID(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		exp, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(exp)
	}
}

// DownloadReport streams the stored CSV through the dashboard.
func DownloadReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !validID(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		body, exp, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, exp.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exp.Filename))
		return c.SendStream(body, int(exp.Size))
	}
}

func DeleteReport(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !validID(id) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ReportsDisabled answers every report route when no database or object
// store is configured.
func ReportsDisabled() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return writeError(c, fiber.StatusServiceUnavailable, "REPORTS_DISABLED", "report exports are not configured")
	}
}
