package dto

import "berkeleyfind/backend/internal/model"

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse 登录 / 注册成功响应
type TokenResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int          `json:"expiresIn"` // 秒
	User        UserResponse `json:"user"`
	// RedirectTarget 登录后应进入的页面（由当前引导状态决定）
	RedirectTarget string `json:"redirectTarget"`
}

// UserResponse 用户信息（脱敏）
type UserResponse struct {
	ID         string           `json:"id"`
	Email      string           `json:"email"`
	Role       string           `json:"role"`
	UserStatus model.UserStatus `json:"userStatus"`
	FirstName  string           `json:"firstName"`
	LastName   string           `json:"lastName"`
}
