package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID 前端与反向代理之间传递追踪 ID 的请求/响应头
const HeaderRequestID = "X-Request-ID"

// CtxRequestID 追踪 ID 在 gin.Context 中的键
const CtxRequestID = "request_id"

const requestIDMaxLen = 64

// RequestID 为每个请求分配追踪 ID
//
// 上游已带 X-Request-ID 且内容可安全写入日志时沿用，否则重新生成。
// 结果写回响应头，前端上报错误时附带该值即可定位服务端日志。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(CtxRequestID, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

// RequestIDFrom 读取当前请求的追踪 ID，未经过 RequestID 中间件时为空串
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(CtxRequestID)
}

// validRequestID 只接受字母、数字及 - _ . : 组成的短串
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > requestIDMaxLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		ch := rid[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.', ch == ':':
		default:
			return false
		}
	}
	return true
}
