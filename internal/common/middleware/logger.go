package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger возвращает middleware, пишущий одну строку на запрос
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[HTTP] ${time} ${status} ${latency} ${method} ${path} (${bytesReceived}B in, ${bytesSent}B out)\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
