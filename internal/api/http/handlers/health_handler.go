package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/moddy-app/moddysystems/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes. Both postgres
// pools are optional at runtime, so a missing pool reports "disabled"
// rather than failing readiness.
type HealthHandler struct {
	serviceName string
	version     string
	moddy       *persistence.Postgres
	systems     *persistence.Postgres
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, moddy, systems *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, moddy: moddy, systems: systems, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	checkPool := func(name string, pg *persistence.Postgres) {
		if pg == nil || pg.PoolHandle() == nil {
			depStatus[name] = "disabled"
			return
		}
		if err := pg.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
			return
		}
		depStatus[name] = "ok"
	}
	checkPool("moddy_postgres", h.moddy)
	checkPool("systems_postgres", h.systems)

	if err := h.redis.Ping(ctx); err != nil {
		depStatus["redis"] = err.Error()
		ready = false
	} else {
		depStatus["redis"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
