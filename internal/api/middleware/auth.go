package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"berkeleyfind/backend/pkg/jwt"
	"berkeleyfind/backend/pkg/redis"
	"berkeleyfind/backend/pkg/response"
)

// 注入 gin.Context 的键
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxTokenID  = "token_jti"
	CtxTokenExp = "token_exp"
)

// NotAuthorizedMessage 所有 401 响应使用的固定消息
const NotAuthorizedMessage = "Not authorized"

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token；
// rdb 非 nil 时拒绝已登出（加入黑名单）的 Token
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, jwtMgr, rdb, logger)
		if !ok {
			response.Unauthorized(c, NotAuthorizedMessage)
			c.Abort()
			return
		}
		injectClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuth Token 有效时注入用户信息，否则按匿名请求放行
// 用于页面守卫：未登录时由业务层给出登录重定向
func OptionalJWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := authenticate(c, jwtMgr, rdb, logger); ok {
			injectClaims(c, claims)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*jwt.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		return nil, false
	}

	// Redis 不可用时降级放行，Token 仍受过期时间约束
	if rdb != nil && claims.ID != "" {
		revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, false
		}
	}
	return claims, true
}

func injectClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxTokenID, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(CtxTokenExp, claims.ExpiresAt.Time)
	} else {
		c.Set(CtxTokenExp, time.Time{})
	}
}

// RoleResolver 按 user_id 读取当前角色
type RoleResolver interface {
	CurrentRole(ctx context.Context, userID string) (string, error)
}

// RoleAuth 角色权限中间件
// 角色以数据库当前值为准，不信任 Token 中的 role 声明，降级后立即失去权限
func RoleAuth(roles RoleResolver, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		if userID == "" {
			response.Unauthorized(c, NotAuthorizedMessage)
			c.Abort()
			return
		}

		userRole, err := roles.CurrentRole(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.Unauthorized(c, NotAuthorizedMessage)
			} else {
				response.InternalError(c, "Error in checking user role.")
			}
			c.Abort()
			return
		}
		c.Set(CtxRole, userRole)

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "Forbidden")
		c.Abort()
	}
}
