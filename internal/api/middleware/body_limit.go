package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"berkeleyfind/backend/pkg/response"
)

// BodyTooLargeMessage 413 响应的固定消息
const BodyTooLargeMessage = "Request body too large."

// BodyLimit 全局请求体大小限制中间件
// 头像以 data URL 内联提交，上限需覆盖编码后的图片体积。
// 声明长度超限时直接拒绝；分块传输超限时读取返回 *http.MaxBytesError，由 Handler 映射为 413。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, BodyTooLargeMessage)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
