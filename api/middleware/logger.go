package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yourusername/build-fetch-go/pkg/logger"
)

// Logger logs one line per request. Event stream upgrades and probes log at
// debug; 5xx responses also go to the error category.
func Logger(log *zap.Logger, multiLogger *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := log.Check(levelFor(c.FullPath(), status), "HTTP request"); ce != nil {
			ce.Write(fields...)
		}
		if status >= 500 {
			multiLogger.LogAppError("HTTP error response", fields...)
		}
	}
}

func levelFor(route string, status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	case route == "/health" || route == "/ready" || route == "/metrics" || route == "/api/v1/events":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
