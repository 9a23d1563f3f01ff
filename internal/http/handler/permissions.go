package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"motodash/internal/http/middleware"
	"motodash/internal/model"
	"motodash/internal/validation"
)

// PermissionsAPI reads and writes owner permission maps.
type PermissionsAPI interface {
	OwnerPermissions(ctx context.Context, token, ownerID string) (model.PermissionMap, error)
	UpdateOwnerPermissions(ctx context.Context, token, ownerID string, perms model.PermissionMap) (model.PermissionMap, error)
}

// MyPermissions returns the effective map of the session. Admin sessions
// get every known permission.
func MyPermissions() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)
		return c.JSON(fiber.Map{
			"role":        sess.Permissions.Role(),
			"permissions": sess.Permissions.Granted(),
		})
	}
}

func OwnerPermissions(api PermissionsAPI) fiber.Handler {
	return func(c *fiber.Ctx) error {
		perms, err := api.OwnerPermissions(c.UserContext(), token(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"permissions": perms})
	}
}

// UpdateOwnerPermissions replaces an owner's map and drops their cached
// sessions so the change applies on their next request.
func UpdateOwnerPermissions(api PermissionsAPI, sessions Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.PermissionsForm
		if err := bindForm(c, &form); err != nil {
			return err
		}
		id := c.Params("id")
		perms, err := api.UpdateOwnerPermissions(c.UserContext(), token(c), id, form.Permissions)
		if err != nil {
			return err
		}
		sessions.InvalidateOwner(id)
		return c.JSON(fiber.Map{"permissions": perms})
	}
}
