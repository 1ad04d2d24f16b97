package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"car-classifieds/internal/core/auth"
	resp "car-classifieds/internal/transport/http/response"
)

const KeyUserID = "userId"

// Identity 可选身份：没有 token 视为匿名；token 无效直接 401。
// 这里只识别调用者（用于广告 owner），不做权限控制。
func Identity(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if ah == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "malformed authorization header"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		c.Set("claims", claims)
		c.Set(KeyUserID, claims.UID)
		c.Next()
	}
}
