package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"motodash/internal/apiclient"
	"motodash/internal/permission"
	"motodash/internal/session"
)

// SessionLocalKey stores the resolved *session.Session in fiber locals.
const SessionLocalKey = "session"

// SessionLoader resolves a token into a session.
type SessionLoader interface {
	Load(ctx context.Context, token string) (*session.Session, error)
}

// TokenFrom reads the session token from the cookie, falling back to an
// Authorization: Bearer header.
func TokenFrom(c *fiber.Ctx, cookieName string) string {
	if tok := c.Cookies(cookieName); tok != "" {
		return tok
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// Session rejects requests without a valid token with 401 and stores the
// session for downstream handlers.
func Session(store SessionLoader, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := TokenFrom(c, cookieName)
		if tok == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		sess, err := store.Load(c.UserContext(), tok)
		if err != nil {
			if errors.Is(err, apiclient.ErrUnauthorized) {
				return fiber.NewError(fiber.StatusUnauthorized, "session expired")
			}
			return err
		}
		c.Locals(SessionLocalKey, sess)
		return c.Next()
	}
}

// SessionFrom returns the session stored by Session, or nil.
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(SessionLocalKey).(*session.Session)
	return sess
}

// Require lets the request through when the session holds at least one of
// perms and answers 403 otherwise.
func Require(perms ...permission.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !sess.Permissions.HasAny(perms...) {
			return fiber.NewError(fiber.StatusForbidden, "missing permission")
		}
		return c.Next()
	}
}
