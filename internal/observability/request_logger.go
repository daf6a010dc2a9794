package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-service/internal/reqctx"
)

// RequestLogger logs every request with its correlation id and, once
// authentication has run, the caller's public id. The scope is read after
// the handler chain returns, so the identity attached mid-request shows up
// in the access log.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		fields := append(reqctx.Fields(c.UserContext()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
		logger.Info("request completed", fields...)
		metrics.RecordRequest(c.Route().Path, c.Method(), status, elapsed)
		return err
	}
}
