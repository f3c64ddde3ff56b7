package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": apiVersion,
		})
	}
}

// ReadyHandler checks DB, NATS, and cache connectivity. The remote GIS
// platform is not probed; readiness covers local dependencies only, so
// a GIS outage degrades solves without knocking the pod out of rotation.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		ready := true

		dbState := "not configured"
		if deps.DB != nil {
			dbState = "ok"
			if err := deps.DB.Pool.Ping(ctx); err != nil {
				dbState = "error: " + err.Error()
			}
		}
		checks["database"] = dbState
		if dbState != "ok" {
			// Solves and listings all need Postgres.
			ready = false
		}

		if deps.NATS == nil {
			checks["nats"] = "not configured"
		} else if deps.NATS.IsConnected() {
			checks["nats"] = "ok"
		} else {
			checks["nats"] = "disconnected"
			ready = false
		}

		if deps.Cache == nil {
			// Cache is optional; misses fall through to Postgres.
			checks["cache"] = "not configured"
		} else if err := deps.Cache.Ping(ctx); err != nil {
			checks["cache"] = "error: " + err.Error()
			ready = false
		} else {
			checks["cache"] = "ok"
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
