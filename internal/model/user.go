package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Course 课程条目，仅作为 User.CourseList 的有序元素存在
type Course struct {
	CourseAbrName  string `json:"courseAbrName"`
	CourseLongName string `json:"courseLongName"`
}

// StudyTimeSlot 每周固定的学习时段
type StudyTimeSlot struct {
	DayOfWeek int    `json:"dayOfWeek"` // 1-7，1=Monday
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
}

// User 用户表，对应 users
type User struct {
	UserID               string                             `gorm:"type:uuid;primaryKey"                          json:"userId"`
	Email                string                             `gorm:"type:varchar(255);not null"                    json:"email"`
	PasswordHash         string                             `gorm:"type:varchar(255);not null"                    json:"-"`
	Role                 string                             `gorm:"type:varchar(20);not null;default:'user'"      json:"role"`
	UserStatus           UserStatus                         `gorm:"type:varchar(20);not null;default:'startprofile'" json:"userStatus"`
	FirstName            string                             `gorm:"type:varchar(100);not null;default:''"         json:"firstName"`
	LastName             string                             `gorm:"type:varchar(100);not null;default:''"         json:"lastName"`
	Major                string                             `gorm:"type:varchar(150);not null;default:''"         json:"major"`
	GradYear             string                             `gorm:"type:varchar(4);not null;default:''"           json:"gradYear"`
	UserBio              string                             `gorm:"type:text;not null;default:''"                 json:"userBio"`
	Pronouns             string                             `gorm:"type:varchar(50);not null;default:''"          json:"pronouns"`
	FbURL                string                             `gorm:"column:fb_url;type:varchar(500);not null;default:''" json:"fbURL"`
	IgURL                string                             `gorm:"column:ig_url;type:varchar(500);not null;default:''" json:"igURL"`
	ProfileImage         string                             `gorm:"type:varchar(1000);not null;default:''"        json:"profileImage"`
	ProfileImagePublicID string                             `gorm:"column:profile_image_public_id;type:varchar(255);not null;default:''" json:"profileImagePublicID"`
	CourseList           datatypes.JSONSlice[Course]        `json:"courseList"`
	UserStudyPreferences datatypes.JSON                     `json:"userStudyPreferences"`
	StudyTimes           datatypes.JSONSlice[StudyTimeSlot] `json:"studyTimes"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 未指定主键时生成 UUID（SQLite 等无 gen_random_uuid 的环境）
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.New().String()
	}
	if u.UserStatus == "" {
		u.UserStatus = StatusStartProfile
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// BasicInfo 基础资料视图（资料编辑页读取与差异比较所用的字段子集）
type BasicInfo struct {
	UserID               string     `json:"userId"`
	UserStatus           UserStatus `json:"userStatus"`
	Email                string     `json:"email"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Major                string     `json:"major"`
	GradYear             string     `json:"gradYear"`
	UserBio              string     `json:"userBio"`
	Pronouns             string     `json:"pronouns"`
	FbURL                string     `json:"fbURL"`
	IgURL                string     `json:"igURL"`
	ProfileImage         string     `json:"profileImage"`
	ProfileImagePublicID string     `json:"profileImagePublicID"`
}

// BasicInfoColumns BasicInfo 对应的列，供仓储层 Select 使用
var BasicInfoColumns = []string{
	"user_id", "user_status", "email", "first_name", "last_name", "major", "grad_year",
	"user_bio", "pronouns", "fb_url", "ig_url", "profile_image", "profile_image_public_id",
}
