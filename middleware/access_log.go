package middleware

import (
	"time"

	"PPClient/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLog 请求结束后记录一行日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[control] request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("cost", time.Since(start)))
	}
}
