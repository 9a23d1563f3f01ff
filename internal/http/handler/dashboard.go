package handler

import (
	"github.com/gofiber/fiber/v2"

	"motodash/internal/http/middleware"
	"motodash/internal/service"
)

func Dashboard(svc *service.DashboardService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)
		d, err := svc.Load(c.UserContext(), sess.Token, sess.Permissions)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}
