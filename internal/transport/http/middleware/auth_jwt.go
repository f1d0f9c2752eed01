package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"note-board/internal/core/auth"
	resp "note-board/internal/transport/http/response"
)

// AuthJWT 校验 Bearer access token；requireRole 非空时要求持有该角色。
// 通过后写入 userId / roles / claims
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && !claims.HasRole(requireRole) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set("userId", claims.UID)
		c.Set("roles", claims.Roles)
		c.Set("claims", claims)
		c.Next()
	}
}
