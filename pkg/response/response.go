package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应信封，与前端 ActionResponse 约定一致
// HTTP 状态码与 Status 字段始终相同
type Response struct {
	Status       int         `json:"status"`
	ResponseData interface{} `json:"responseData"`
}

// ErrorData 错误响应体
type ErrorData struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: http.StatusOK, ResponseData: data})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: http.StatusCreated, ResponseData: data})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Status:       httpStatus,
		ResponseData: ErrorData{Error: message},
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, message, details string) {
	c.JSON(httpStatus, Response{
		Status:       httpStatus,
		ResponseData: ErrorData{Error: message, Details: details},
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict 409
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError 500，消息固定，不暴露内部细节
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
