package server

import (
	"errors"

	"docuwise-client/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// metricsMiddleware counts companion API requests by method and final status.
func metricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		m.RecordHTTP(c.Method(), status)
		return err
	}
}

func healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "service": "docuwise-client"})
}
