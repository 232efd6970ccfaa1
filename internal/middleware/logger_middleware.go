package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/pkg/response"
)

// RequestLogger пишет в zap по строке на запрос и перехватывает паники
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("[HTTP] Паника при обработке запроса",
					zap.Any("panic", rec), zap.String("path", c.Request.URL.Path), zap.Stack("stack"))
				response.Abort(c, http.StatusInternalServerError, "internal server error")
			}

			status := c.Writer.Status()
			fields := []zap.Field{
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.ClientIP()),
			}
			switch {
			case status >= 500:
				logger.Error("[HTTP] Запрос", fields...)
			case status >= 400:
				logger.Warn("[HTTP] Запрос", fields...)
			default:
				logger.Info("[HTTP] Запрос", fields...)
			}
		}()
		c.Next()
	}
}
