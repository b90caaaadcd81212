package middleware

import (
	"github.com/gin-gonic/gin"
)

// apiSecurityHeaders 接口只返回 JSON 与 Excel 下载，不需要加载任何页面资源；
// 响应含个人资料，禁止中间缓存
var apiSecurityHeaders = [...][2]string{
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
}

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders 为所有响应附加安全头；经 HTTPS 到达时另加 HSTS
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range apiSecurityHeaders {
			h.Set(kv[0], kv[1])
		}
		// 部署在 TLS 终止的反向代理之后时以 X-Forwarded-Proto 判断
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", hstsValue)
		}
		c.Next()
	}
}
