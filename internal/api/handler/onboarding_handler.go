package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"berkeleyfind/backend/internal/service"
	"berkeleyfind/backend/pkg/response"
)

// OnboardingHandler 引导页面守卫
type OnboardingHandler struct {
	svc service.OnboardingService
}

// NewOnboardingHandler 创建 OnboardingHandler
func NewOnboardingHandler(svc service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{svc: svc}
}

// ResolvePage 判断当前用户能否进入指定页面
// GET /api/v1/onboarding/pages/:page
//
// 未登录时同样返回 200，redirectTarget 指向登录页
func (h *OnboardingHandler) ResolvePage(c *gin.Context) {
	page := c.Param("page")

	result, err := h.svc.ResolvePage(c.Request.Context(), OptionalUserID(c), page)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPage) {
			response.BadRequest(c, "Unknown page.")
			return
		}
		response.InternalError(c, msgFetchFailed)
		return
	}
	response.OK(c, result)
}
