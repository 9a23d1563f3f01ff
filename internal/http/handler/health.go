package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Check is one dependency probed by HealthCheck.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// DBCheck probes the report index database.
func DBCheck(db *sql.DB) Check {
	return Check{Name: "database", Ping: db.PingContext}
}

// HealthCheck answers 200 when db and every extra check respond within two
// seconds, 503 otherwise. db may be nil when reports are disabled.
func HealthCheck(db *sql.DB, extra ...Check) fiber.Handler {
	checks := extra
	if db != nil {
		checks = append([]Check{DBCheck(db)}, extra...)
	}
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		healthy := true
		for _, chk := range checks {
			if err := chk.Ping(ctx); err != nil {
				results[chk.Name] = "unavailable"
				healthy = false
				continue
			}
			results[chk.Name] = "ok"
		}
		if !healthy {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "healthy", "checks": results})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
