package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"berkeleyfind/backend/internal/dto"
	"berkeleyfind/backend/internal/service"
	"berkeleyfind/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler 管理员 HTTP 处理器
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ChangeRole 修改用户角色
// POST /api/v1/admin/roles
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.adminSvc.ChangeRole(c.Request.Context(), &req, callerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserSelfRoleChange):
			response.BadRequest(c, "You cannot change your own role.")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, msgUserNotFound)
		default:
			response.InternalError(c, "Error in changing user role.")
		}
		return
	}
	response.OK(c, result)
}

// ExportUsers 导出用户花名册
// GET /api/v1/admin/users/export
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	buf, filename, err := h.adminSvc.ExportUsers(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Error in exporting users.")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
