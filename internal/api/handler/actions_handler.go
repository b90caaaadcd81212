package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"berkeleyfind/backend/internal/api/middleware"
	"berkeleyfind/backend/internal/dto"
	"berkeleyfind/backend/internal/service"
	pkgerrors "berkeleyfind/backend/pkg/errors"
	"berkeleyfind/backend/pkg/response"
)

// 对外的固定错误消息，不暴露内部细节
const (
	msgUserNotFound        = "User not found."
	msgFetchFailed         = "Error in fetching old user."
	msgBasicInfoFailed     = "Error in modifying user basic info."
	msgCourseListFailed    = "Error in modifying user course list"
	msgStudyPrefFailed     = "Error in modifying user study preferences"
	msgStudyTimesFailed    = "Error in modifying user study times"
	msgStatusConflict      = "User status changed by another request."
	msgInvalidStudyTime    = "Study times must start before they end."
	msgDuplicateStudyTime  = "Study times contain a duplicate slot."
	msgInvalidICS          = "Could not read the calendar file."
	msgEmptyICS            = "No weekly events found in the calendar file."
	msgICSTooLarge         = "Calendar file must be 5MB or smaller."
	msgEmailTaken          = "Email is already registered."
	msgMissingCalendarFile = "Please upload an .ics file."
)

// ActionsHandler 资料修改 Action 的 HTTP 处理器
type ActionsHandler struct {
	profileSvc    service.ProfileService
	studyTimesSvc service.StudyTimesService
	logger        *zap.Logger
}

// NewActionsHandler 创建 ActionsHandler
func NewActionsHandler(profileSvc service.ProfileService, studyTimesSvc service.StudyTimesService, logger *zap.Logger) *ActionsHandler {
	return &ActionsHandler{profileSvc: profileSvc, studyTimesSvc: studyTimesSvc, logger: logger}
}

// SaveBasicInfo 保存基础资料
// POST /api/v1/actions/basic-info
func (h *ActionsHandler) SaveBasicInfo(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.BasicInfoRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.profileSvc.UpdateBasicInfo(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleActionError(c, err, msgBasicInfoFailed)
		return
	}
	response.OK(c, result)
}

// GetBasicInfo 读取基础资料
// GET /api/v1/actions/basic-info
func (h *ActionsHandler) GetBasicInfo(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	info, err := h.profileSvc.GetBasicInfo(c.Request.Context(), userID)
	if err != nil {
		h.handleActionError(c, err, msgFetchFailed)
		return
	}
	response.OK(c, dto.BasicInfoViewResponse{User: info})
}

// SaveCourses 保存课程列表
// POST /api/v1/actions/courses
func (h *ActionsHandler) SaveCourses(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CourseListRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.profileSvc.UpdateCourseList(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleActionError(c, err, msgCourseListFailed)
		return
	}
	response.OK(c, result)
}

// SaveStudyPreferences 保存学习偏好
// POST /api/v1/actions/study-preferences
func (h *ActionsHandler) SaveStudyPreferences(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.StudyPreferencesRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.profileSvc.UpdateStudyPreferences(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleActionError(c, err, msgStudyPrefFailed)
		return
	}
	response.OK(c, result)
}

// SaveStudyTimes 保存每周学习时段
// POST /api/v1/actions/study-times
func (h *ActionsHandler) SaveStudyTimes(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.StudyTimesRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.profileSvc.UpdateStudyTimes(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleActionError(c, err, msgStudyTimesFailed)
		return
	}
	response.OK(c, result)
}

// ImportStudyTimes 从 ICS 文件解析候选学习时段（不保存）
// POST /api/v1/actions/study-times/import  multipart/form-data, field="file"
func (h *ActionsHandler) ImportStudyTimes(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, middleware.BodyTooLargeMessage)
			return
		}
		response.BadRequest(c, msgMissingCalendarFile)
		return
	}
	defer file.Close()

	result, err := h.studyTimesSvc.ImportICS(c.Request.Context(), userID, file)
	if err != nil {
		h.handleActionError(c, err, msgStudyTimesFailed)
		return
	}
	response.OK(c, result)
}

// handleActionError 业务错误 → HTTP 状态；其余错误统一为 500 + fallback
func (h *ActionsHandler) handleActionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(c, middleware.NotAuthorizedMessage)
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, msgUserNotFound)
	case errors.Is(err, pkgerrors.ErrStatusConflict):
		response.Conflict(c, msgStatusConflict)
	case errors.Is(err, service.ErrInvalidStudyTime):
		response.BadRequest(c, msgInvalidStudyTime)
	case errors.Is(err, service.ErrDuplicateStudyTime):
		response.BadRequest(c, msgDuplicateStudyTime)
	case errors.Is(err, service.ErrInvalidICS):
		response.BadRequest(c, msgInvalidICS)
	case errors.Is(err, service.ErrICSEmpty):
		response.BadRequest(c, msgEmptyICS)
	case errors.Is(err, service.ErrICSTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, msgICSTooLarge)
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, msgEmailTaken)
	case errors.Is(err, service.ErrUpstreamFetch):
		response.InternalError(c, msgFetchFailed)
	default:
		if !errors.Is(err, service.ErrPersistence) {
			h.logger.Error("未预期的业务错误", zap.String("path", c.FullPath()), zap.Error(err))
		}
		response.InternalError(c, fallback)
	}
}
