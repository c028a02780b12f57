package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roomdesk/service-booking/internal/pkg/errs"
)

// LoggerMiddleware writes one access log line per request. Errors attached
// with c.Error are logged with their stack.
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("raw_path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if p := GetPrincipal(c); p != nil {
			fields = append(fields, zap.String("principal", *p))
		}
		for _, e := range c.Errors {
			fields = append(fields, zap.Error(e.Err), zap.Strings("stack", errs.ExtractStackLines(e.Err, 12)))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}
		if ce := log.Check(level, "http request"); ce != nil {
			ce.Write(fields...)
		}
	}
}
