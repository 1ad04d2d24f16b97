package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// KeyCode 本次请求输出的业务码；HTTP 状态恒为 200，指标和访问日志看这个
const KeyCode = "resp.code"

func JSON(c *gin.Context, r Resp) {
	c.Set(KeyCode, r.Code)
	c.JSON(http.StatusOK, r)
}

func Abort(c *gin.Context, r Resp) {
	c.Set(KeyCode, r.Code)
	c.AbortWithStatusJSON(http.StatusOK, r)
}

// CodeOf 未经信封输出（/health、/metrics）时返回 -1
func CodeOf(c *gin.Context) int {
	if v, ok := c.Get(KeyCode); ok {
		if code, ok := v.(int); ok {
			return code
		}
	}
	return -1
}
