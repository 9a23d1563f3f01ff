package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"motodash/internal/config"
	"motodash/internal/http/middleware"
	"motodash/internal/model"
	"motodash/internal/session"
	"motodash/internal/validation"
)

// Authenticator is the part of the lending API used for sign-in.
type Authenticator interface {
	Login(ctx context.Context, in model.LoginRequest) (*model.LoginResponse, error)
	ChangePassword(ctx context.Context, token string, in any) error
}

// Sessions resolves and forgets session tokens.
type Sessions interface {
	middleware.SessionLoader
	Invalidate(token string)
	InvalidateOwner(ownerID string)
}

// meResponse is the signed-in owner with the permission map the UI uses to
// hide what the session cannot do.
type meResponse struct {
	Owner       model.Owner         `json:"owner"`
	Role        string              `json:"role"`
	Permissions model.PermissionMap `json:"permissions"`
	ExpiresAt   time.Time           `json:"expiresAt"`
}

func me(sess *session.Session) meResponse {
	return meResponse{
		Owner:       sess.Owner,
		Role:        sess.Permissions.Role(),
		Permissions: sess.Permissions.Granted(),
		ExpiresAt:   sess.ExpiresAt,
	}
}

// Login exchanges credentials for a token, stores it in an HttpOnly cookie
// and returns the resolved session.
func Login(auth Authenticator, sessions Sessions, cookie config.SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.LoginForm
		if err := bindForm(c, &form); err != nil {
			return err
		}
		res, err := auth.Login(c.UserContext(), model.LoginRequest{Email: form.Email, Password: form.Password})
		if err != nil {
			return err
		}
		sess, err := sessions.Load(c.UserContext(), res.Token)
		if err != nil {
			return err
		}
		c.Cookie(&fiber.Cookie{
			Name:     cookie.CookieName,
			Value:    res.Token,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			HTTPOnly: true,
			Secure:   cookie.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(me(sess))
	}
}

// Logout forgets the session and clears the cookie. It succeeds without a
// session too.
func Logout(sessions Sessions, cookie config.SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := middleware.TokenFrom(c, cookie.CookieName); tok != "" {
			sessions.Invalidate(tok)
		}
		c.Cookie(&fiber.Cookie{
			Name:     cookie.CookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   cookie.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(me(middleware.SessionFrom(c)))
	}
}

func ChangePassword(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.ChangePasswordForm
		if err := bindForm(c, &form); err != nil {
			return err
		}
		if err := auth.ChangePassword(c.UserContext(), token(c), form.Payload()); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
