package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const masked = "****"

var sensitiveKeys = map[string]bool{
	"password": true, "pwd": true, "token": true, "authorization": true,
	"secret": true, "client_secret": true, "access_token": true,
}

func maskQuery(q url.Values) map[string][]string {
	out := make(map[string][]string, len(q))
	for k, v := range q {
		if sensitiveKeys[strings.ToLower(k)] {
			v = []string{masked}
		}
		out[k] = v
	}
	return out
}

// AccessLog 每个请求一行；handler 用 c.Error 上报过错误时记 error 级别
func AccessLog(l *zap.Logger) gin.HandlerFunc {
	l = l.Named("access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", route),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", max(0, c.Writer.Size())),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("ua", c.Request.UserAgent()),
			zap.Any("query", maskQuery(c.Request.URL.Query())),
		}
		if uid := c.GetString("userId"); uid != "" {
			fields = append(fields, zap.String("uid", uid))
		}
		if len(c.Errors) > 0 {
			l.Error("HTTP", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		l.Info("HTTP", fields...)
	}
}
