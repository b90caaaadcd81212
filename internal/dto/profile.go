package dto

import (
	"encoding/json"

	"berkeleyfind/backend/internal/model"
)

// ── 资料修改 Action DTO ──

// BasicInfoRequest 基础资料提交
// ProfileImageFile 为新头像的 data URL，或前端回传的当前头像地址
type BasicInfoRequest struct {
	Email            string `json:"email"            binding:"required,email,max=255"`
	ProfileImageFile string `json:"profileImageFile"`
	FirstName        string `json:"firstName"        binding:"required,max=100"`
	LastName         string `json:"lastName"         binding:"required,max=100"`
	Major            string `json:"major"            binding:"required,max=150"`
	GradYear         string `json:"gradYear"         binding:"required,gradyear"`
	UserBio          string `json:"userBio"          binding:"maxwords=50"`
	Pronouns         string `json:"pronouns"         binding:"max=50"`
	FbURL            string `json:"fbURL"            binding:"omitempty,max=500,fburl"`
	IgURL            string `json:"igURL"            binding:"omitempty,max=500,igurl"`
}

// BasicInfoResponse 基础资料保存结果；头像被清除时为 null
type BasicInfoResponse struct {
	ProfileImage *string `json:"profileImage"`
}

// BasicInfoViewResponse 基础资料读取结果
type BasicInfoViewResponse struct {
	User *model.BasicInfo `json:"user"`
}

// CourseItem 课程条目
type CourseItem struct {
	CourseAbrName  string `json:"courseAbrName"  binding:"required,max=30"`
	CourseLongName string `json:"courseLongName" binding:"required,max=200"`
}

// CourseListRequest 课程列表提交（整体替换）
type CourseListRequest struct {
	CourseList []CourseItem `json:"courseList" binding:"required,max=50,dive"`
}

// CourseListResponse 课程列表保存结果
type CourseListResponse struct {
	CourseList []CourseItem `json:"courseList"`
}

// StudyPreferencesRequest 学习偏好提交，结构对后端不透明
type StudyPreferencesRequest struct {
	UserStudyPreferences json.RawMessage `json:"userStudyPreferences" binding:"required,jsonobject"`
}

// StudyPreferencesResponse 学习偏好保存结果
type StudyPreferencesResponse struct {
	UserStudyPreferences json.RawMessage `json:"userStudyPreferences"`
}

// StudyTimeSlotItem 每周学习时段
type StudyTimeSlotItem struct {
	DayOfWeek int    `json:"dayOfWeek" binding:"required,min=1,max=7"`
	StartTime string `json:"startTime" binding:"required,datetime=15:04"`
	EndTime   string `json:"endTime"   binding:"required,datetime=15:04"`
}

// StudyTimesRequest 学习时段提交（整体替换）
type StudyTimesRequest struct {
	StudyTimes []StudyTimeSlotItem `json:"studyTimes" binding:"required,max=200,dive"`
}

// StudyTimesResponse 学习时段保存 / 导入结果
type StudyTimesResponse struct {
	StudyTimes []StudyTimeSlotItem `json:"studyTimes"`
}

// ── 转换 ──

// ToCourses CourseItem → model.Course，保持顺序
func ToCourses(items []CourseItem) []model.Course {
	out := make([]model.Course, 0, len(items))
	for _, it := range items {
		out = append(out, model.Course{CourseAbrName: it.CourseAbrName, CourseLongName: it.CourseLongName})
	}
	return out
}

// FromCourses model.Course → CourseItem
func FromCourses(courses []model.Course) []CourseItem {
	out := make([]CourseItem, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseItem{CourseAbrName: c.CourseAbrName, CourseLongName: c.CourseLongName})
	}
	return out
}

// ToStudyTimeSlots StudyTimeSlotItem → model.StudyTimeSlot
func ToStudyTimeSlots(items []StudyTimeSlotItem) []model.StudyTimeSlot {
	out := make([]model.StudyTimeSlot, 0, len(items))
	for _, it := range items {
		out = append(out, model.StudyTimeSlot{DayOfWeek: it.DayOfWeek, StartTime: it.StartTime, EndTime: it.EndTime})
	}
	return out
}

// FromStudyTimeSlots model.StudyTimeSlot → StudyTimeSlotItem
func FromStudyTimeSlots(slots []model.StudyTimeSlot) []StudyTimeSlotItem {
	out := make([]StudyTimeSlotItem, 0, len(slots))
	for _, s := range slots {
		out = append(out, StudyTimeSlotItem{DayOfWeek: s.DayOfWeek, StartTime: s.StartTime, EndTime: s.EndTime})
	}
	return out
}
