package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"motodash/internal/apiclient"
	"motodash/internal/http/middleware"
	"motodash/internal/permission"
	"motodash/internal/validation"
)

// bindForm parses the JSON body into form and validates it.
func bindForm[F any](c *fiber.Ctx, form *F) error {
	if err := c.BodyParser(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validation.Struct(form)
}

func token(c *fiber.Ctx) string {
	if sess := middleware.SessionFrom(c); sess != nil {
		return sess.Token
	}
	return ""
}

var reservedQuery = map[string]bool{"search": true, "page": true, "limit": true}

// listQuery reads search, page and limit; every other query parameter is
// forwarded as a filter.
func listQuery(c *fiber.Ctx) (apiclient.ListQuery, error) {
	q := apiclient.ListQuery{Search: c.Query("search"), Filters: map[string]string{}}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"limit", &q.Limit}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, fiber.NewError(fiber.StatusBadRequest, "invalid "+p.name)
		}
		*p.dst = n
	}
	for k, v := range c.Queries() {
		if !reservedQuery[k] {
			q.Filters[k] = v
		}
	}
	return q, nil
}

// ListResource proxies a paginated list.
func ListResource[T any](res apiclient.Resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := listQuery(c)
		if err != nil {
			return err
		}
		page, err := res.List(c.UserContext(), token(c), q)
		if err != nil {
			return err
		}
		return c.JSON(page)
	}
}

func GetResource[T any](res apiclient.Resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := res.Get(c.UserContext(), token(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// CreateResource validates form F and posts its payload.
func CreateResource[T any, F validation.Payloader](res apiclient.Resource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form F
		if err := bindForm(c, &form); err != nil {
			return err
		}
		item, err := res.Create(c.UserContext(), token(c), form.Payload())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// UpdateResource validates form F and replaces the item. onChange, when set,
// runs after a successful write with the item ID.
func UpdateResource[T any, F validation.Payloader](res apiclient.Resource[T], onChange func(id string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form F
		if err := bindForm(c, &form); err != nil {
			return err
		}
		id := c.Params("id")
		item, err := res.Update(c.UserContext(), token(c), id, form.Payload())
		if err != nil {
			return err
		}
		if onChange != nil {
			onChange(id)
		}
		return c.JSON(item)
	}
}

func DeleteResource[T any](res apiclient.Resource[T], onChange func(id string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := res.Delete(c.UserContext(), token(c), id); err != nil {
			return err
		}
		if onChange != nil {
			onChange(id)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// registerResource mounts CRUD for one collection, gated by perm. C is the
// create form and U the update form.
func registerResource[T any, C, U validation.Payloader](r fiber.Router, path string, res apiclient.Resource[T], perm permission.Resource, onChange func(id string)) {
	g := r.Group(path)
	g.Get("/", middleware.Require(permission.P(perm, permission.View)), ListResource(res))
	g.Get("/:id", middleware.Require(permission.P(perm, permission.View)), GetResource(res))
	g.Post("/", middleware.Require(permission.P(perm, permission.Create)), CreateResource[T, C](res))
	g.Put("/:id", middleware.Require(permission.P(perm, permission.Edit)), UpdateResource[T, U](res, onChange))
	g.Delete("/:id", middleware.Require(permission.P(perm, permission.Delete)), DeleteResource(res, onChange))
}

// LoanInstallments lists the schedule of one loan.
func LoanInstallments(api *apiclient.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := api.LoanInstallments(c.UserContext(), token(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}
