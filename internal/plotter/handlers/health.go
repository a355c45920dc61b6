package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe проверяет готовность через check. Без check всегда готово.
func ReadinessProbe(check func(ctx context.Context) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		if check != nil {
			if err := check(c.Context()); err != nil {
				log.Printf("[HEALTH] not ready: %v", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  "unavailable",
					"details": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
