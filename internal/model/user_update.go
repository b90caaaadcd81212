package model

import "gorm.io/datatypes"

// UserUpdate 部分更新集合：只有非 nil 字段会写入数据库
// ProfileImage / ProfileImagePublicID 指向空字符串表示清除
type UserUpdate struct {
	Email                *string
	FirstName            *string
	LastName             *string
	Major                *string
	GradYear             *string
	UserBio              *string
	Pronouns             *string
	FbURL                *string
	IgURL                *string
	ProfileImage         *string
	ProfileImagePublicID *string
	CourseList           *[]Course
	UserStudyPreferences *datatypes.JSON
	StudyTimes           *[]StudyTimeSlot
	UserStatus           *UserStatus
}

// Columns 转换为列名 → 值映射，仅包含已设置的字段
func (u *UserUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	setString := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	setString("email", u.Email)
	setString("first_name", u.FirstName)
	setString("last_name", u.LastName)
	setString("major", u.Major)
	setString("grad_year", u.GradYear)
	setString("user_bio", u.UserBio)
	setString("pronouns", u.Pronouns)
	setString("fb_url", u.FbURL)
	setString("ig_url", u.IgURL)
	setString("profile_image", u.ProfileImage)
	setString("profile_image_public_id", u.ProfileImagePublicID)

	if u.CourseList != nil {
		list := *u.CourseList
		if list == nil {
			list = []Course{}
		}
		cols["course_list"] = datatypes.NewJSONSlice(list)
	}
	if u.UserStudyPreferences != nil {
		cols["user_study_preferences"] = *u.UserStudyPreferences
	}
	if u.StudyTimes != nil {
		slots := *u.StudyTimes
		if slots == nil {
			slots = []StudyTimeSlot{}
		}
		cols["study_times"] = datatypes.NewJSONSlice(slots)
	}
	if u.UserStatus != nil {
		cols["user_status"] = string(*u.UserStatus)
	}
	return cols
}

// IsEmpty 是否没有任何待写入字段
func (u *UserUpdate) IsEmpty() bool {
	return len(u.Columns()) == 0
}
