package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"berkeleyfind/backend/internal/api/middleware"
	"berkeleyfind/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, middleware.NotAuthorizedMessage)
		return "", false
	}
	return s, true
}

// OptionalUserID 可选认证路由上的 user_id，未登录时为空
func OptionalUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

// TokenInfo 当前请求 Token 的 jti 与过期时间
func TokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenID)
	exp := c.GetTime(middleware.CtxTokenExp)
	return jti, exp
}

// bindJSON 绑定并校验请求体；失败时写入 400（或 413）并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, middleware.BodyTooLargeMessage)
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "Invalid request.", err.Error())
		return false
	}
	return true
}
