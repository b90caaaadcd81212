package model

// UserStatus 用户在引导流程中所处的步骤
type UserStatus string

// 引导流程按以下顺序推进，explore 为终态
const (
	StatusStartProfile   UserStatus = "startprofile"
	StatusStartCourses   UserStatus = "startcourses"
	StatusStartStudyPref UserStatus = "startstudypref"
	StatusExplore        UserStatus = "explore"
)

// LoginURL 无会话时的登录入口
const LoginURL = "/login?redirect=true"

// OnboardingOrder 引导流程的固定顺序
var OnboardingOrder = []UserStatus{
	StatusStartProfile,
	StatusStartCourses,
	StatusStartStudyPref,
	StatusExplore,
}

// StatusToURL 状态 → 页面地址，覆盖全部四个状态
var StatusToURL = map[UserStatus]string{
	StatusStartProfile:   "/start/profile",
	StatusStartCourses:   "/start/courses",
	StatusStartStudyPref: "/start/studypref",
	StatusExplore:        "/explore",
}

// PageStatus 页面 → 该页面对应的状态
// studypref 与 studytimes 同属 startstudypref 步骤
var PageStatus = map[string]UserStatus{
	"profile":    StatusStartProfile,
	"courses":    StatusStartCourses,
	"studypref":  StatusStartStudyPref,
	"studytimes": StatusStartStudyPref,
	"explore":    StatusExplore,
}

// Valid 是否为已知状态
func (s UserStatus) Valid() bool {
	return s.Rank() >= 0
}

// Rank 状态在引导顺序中的位置，未知状态返回 -1
func (s UserStatus) Rank() int {
	for i, st := range OnboardingOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next 下一步状态；explore 保持不变
func (s UserStatus) Next() UserStatus {
	r := s.Rank()
	if r < 0 || r == len(OnboardingOrder)-1 {
		return s
	}
	return OnboardingOrder[r+1]
}

// URL 状态对应的页面地址
func (s UserStatus) URL() string {
	return StatusToURL[s]
}

// In 判断状态是否在给定集合内
func (s UserStatus) In(allowed ...UserStatus) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
