package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BerkeleyFind 前端只发 GET/POST；导出接口依赖 Content-Disposition 取文件名
const (
	corsAllowMethods  = "GET, POST, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, " + HeaderRequestID
	corsExposeHeaders = "Content-Disposition, " + HeaderRequestID
	corsMaxAge        = "86400"
)

// CORS 只对配置中的前端站点开放跨域，Cookie 与 Authorization 均随请求携带
//
// 预检请求一律以 204 结束；来源不在白名单时不写任何 CORS 头，由浏览器拦截。
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		// 响应随 Origin 变化，缓存层需区分
		c.Writer.Header().Add("Vary", "Origin")

		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
