package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"berkeleyfind/backend/internal/dto"
	"berkeleyfind/backend/internal/model"
	pkgerrors "berkeleyfind/backend/pkg/errors"
)

// ── 测试辅助 ──

const testUserID = "user-oski"

func setupTestProfileService() (ProfileService, *mockUserRepo, *mockAssetStore) {
	userRepo := newMockUserRepo()
	repo := newTestRepo(userRepo)
	assets := &mockAssetStore{}
	logger := zap.NewNop()
	svc := NewProfileService(repo, NewSessionService(repo, logger), assets, "berkeleyfind", logger)
	return svc, userRepo, assets
}

func seedProfileUser(userRepo *mockUserRepo, status model.UserStatus) *model.User {
	return userRepo.seed(&model.User{
		UserID:               testUserID,
		Email:                "oski@berkeley.edu",
		UserStatus:           status,
		FirstName:            "Oski",
		LastName:             "Bear",
		Major:                "Computer Science",
		GradYear:             "2027",
		UserBio:              "Go Bears",
		Pronouns:             "he/him",
		ProfileImage:         "https://cdn.test/berkeleyfind/old.png",
		ProfileImagePublicID: "berkeleyfind/old",
		CourseList:           datatypes.NewJSONSlice([]model.Course{{CourseAbrName: "CS61B", CourseLongName: "Data Structures"}}),
	})
}

// unchangedBasicInfo 与 seedProfileUser 存储值完全一致的提交
func unchangedBasicInfo(u *model.User) *dto.BasicInfoRequest {
	return &dto.BasicInfoRequest{
		Email:            u.Email,
		ProfileImageFile: u.ProfileImage,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Major:            u.Major,
		GradYear:         u.GradYear,
		UserBio:          u.UserBio,
		Pronouns:         u.Pronouns,
		FbURL:            u.FbURL,
		IgURL:            u.IgURL,
	}
}

// ── 权限：状态不在允许集合内 → ErrUnauthorized 且不写库 ──

func TestProfile_DisallowedStatuses(t *testing.T) {
	prefs := json.RawMessage(`{"groupSize":"small"}`)
	ops := []struct {
		name    string
		allowed []model.UserStatus
		call    func(svc ProfileService) error
	}{
		{"basic-info", basicInfoStatuses, func(svc ProfileService) error {
			_, err := svc.UpdateBasicInfo(context.Background(), testUserID, &dto.BasicInfoRequest{FirstName: "X"})
			return err
		}},
		{"courses", courseStatuses, func(svc ProfileService) error {
			_, err := svc.UpdateCourseList(context.Background(), testUserID, &dto.CourseListRequest{CourseList: []dto.CourseItem{}})
			return err
		}},
		{"study-preferences", studyPrefStatuses, func(svc ProfileService) error {
			_, err := svc.UpdateStudyPreferences(context.Background(), testUserID, &dto.StudyPreferencesRequest{UserStudyPreferences: prefs})
			return err
		}},
		{"study-times", studyTimesStatuses, func(svc ProfileService) error {
			_, err := svc.UpdateStudyTimes(context.Background(), testUserID, &dto.StudyTimesRequest{StudyTimes: []dto.StudyTimeSlotItem{}})
			return err
		}},
	}

	for _, op := range ops {
		for _, status := range model.OnboardingOrder {
			if status.In(op.allowed...) {
				continue
			}
			t.Run(op.name+"/"+string(status), func(t *testing.T) {
				svc, userRepo, assets := setupTestProfileService()
				seedProfileUser(userRepo, status)

				err := op.call(svc)
				if !errors.Is(err, ErrUnauthorized) {
					t.Fatalf("期望 ErrUnauthorized，实际: %v", err)
				}
				if userRepo.lastUpdate() != nil {
					t.Error("未授权时不应写库")
				}
				if len(assets.calls) != 0 {
					t.Error("未授权时不应访问资源存储")
				}
			})
		}
	}
}

func TestProfile_NoSession(t *testing.T) {
	svc, _, _ := setupTestProfileService()

	if _, err := svc.UpdateCourseList(context.Background(), "", &dto.CourseListRequest{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("无会话应返回 ErrUnauthorized，实际: %v", err)
	}
	if _, err := svc.UpdateCourseList(context.Background(), "ghost", &dto.CourseListRequest{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("用户不存在的会话应返回 ErrUnauthorized，实际: %v", err)
	}
}

// ── UpdateBasicInfo ──

func TestUpdateBasicInfo_OnlyChangedField(t *testing.T) {
	svc, userRepo, assets := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)

	req := unchangedBasicInfo(u)
	req.ProfileImageFile = ""
	req.Major = "Data Science"

	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); err != nil {
		t.Fatalf("UpdateBasicInfo 应成功: %v", err)
	}

	cols := userRepo.lastUpdate()
	want := map[string]interface{}{
		"major":                   "Data Science",
		"profile_image":           "",
		"profile_image_public_id": "",
	}
	if len(cols) != len(want) {
		t.Fatalf("更新集合应只含 major 与头像清除字段，实际: %v", cols)
	}
	for k, v := range want {
		if cols[k] != v {
			t.Errorf("列 %s 期望=%v，实际=%v", k, v, cols[k])
		}
	}
	if len(assets.calls) != 0 {
		t.Errorf("未提交新头像时不应调用资源存储，实际: %v", assets.calls)
	}
}

func TestUpdateBasicInfo_SameImageClearsStoredReference(t *testing.T) {
	svc, userRepo, assets := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)

	// 原样回传当前头像地址：不删除也不上传，但会清除已存储的头像
	resp, err := svc.UpdateBasicInfo(context.Background(), testUserID, unchangedBasicInfo(u))
	if err != nil {
		t.Fatalf("UpdateBasicInfo 应成功: %v", err)
	}

	if len(assets.calls) != 0 {
		t.Errorf("相同头像不应触发删除+上传，实际: %v", assets.calls)
	}
	if resp.ProfileImage != nil {
		t.Errorf("头像被清除后响应应为 null，实际=%s", *resp.ProfileImage)
	}
	stored, _ := userRepo.GetByID(context.Background(), testUserID)
	if stored.ProfileImage != "" || stored.ProfileImagePublicID != "" {
		t.Errorf("存储的头像引用应被清除，实际 url=%q id=%q", stored.ProfileImage, stored.ProfileImagePublicID)
	}
}

func TestUpdateBasicInfo_NewImageReplacesOld(t *testing.T) {
	svc, userRepo, assets := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)

	req := unchangedBasicInfo(u)
	req.ProfileImageFile = "data:image/png;base64,aGVsbG8="

	resp, err := svc.UpdateBasicInfo(context.Background(), testUserID, req)
	if err != nil {
		t.Fatalf("UpdateBasicInfo 应成功: %v", err)
	}

	if len(assets.calls) != 2 || assets.calls[0] != "destroy:berkeleyfind/old" || assets.calls[1] != "upload" {
		t.Errorf("期望先删除旧头像再上传，实际: %v", assets.calls)
	}
	if assets.folder != "berkeleyfind" {
		t.Errorf("上传目录应为 berkeleyfind，实际=%s", assets.folder)
	}
	if resp.ProfileImage == nil || *resp.ProfileImage != "https://cdn.test/berkeleyfind/new.png" {
		t.Errorf("响应应返回新头像地址，实际=%v", resp.ProfileImage)
	}

	stored, _ := userRepo.GetByID(context.Background(), testUserID)
	if stored.ProfileImagePublicID != "berkeleyfind/new" {
		t.Errorf("应存储新的资源 ID，实际=%s", stored.ProfileImagePublicID)
	}
	if len(userRepo.lastUpdate()) != 2 {
		t.Errorf("其余字段未变，更新集合应只含头像两列，实际: %v", userRepo.lastUpdate())
	}
}

func TestUpdateBasicInfo_NewImageWithoutStoredID(t *testing.T) {
	svc, userRepo, assets := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)
	u.ProfileImage = ""
	u.ProfileImagePublicID = ""

	req := unchangedBasicInfo(u)
	req.ProfileImageFile = "data:image/png;base64,aGVsbG8="

	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); err != nil {
		t.Fatalf("UpdateBasicInfo 应成功: %v", err)
	}
	if len(assets.calls) != 1 || assets.calls[0] != "upload" {
		t.Errorf("无旧资源时只应上传，实际: %v", assets.calls)
	}
}

func TestUpdateBasicInfo_DestroyFailureAborts(t *testing.T) {
	svc, userRepo, assets := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)
	assets.destroyErr = errors.New("provider down")

	req := unchangedBasicInfo(u)
	req.ProfileImageFile = "data:image/png;base64,aGVsbG8="

	_, err := svc.UpdateBasicInfo(context.Background(), testUserID, req)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("期望 ErrPersistence，实际: %v", err)
	}
	for _, c := range assets.calls {
		if c == "upload" {
			t.Error("删除失败后不应继续上传")
		}
	}
	if userRepo.lastUpdate() != nil {
		t.Error("删除失败后不应写库")
	}
}

func TestUpdateBasicInfo_UploadFailure(t *testing.T) {
	svc, userRepo, assets := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)
	assets.uploadErr = errors.New("invalid image")

	req := unchangedBasicInfo(u)
	req.ProfileImageFile = "data:image/png;base64,AAAA"

	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); !errors.Is(err, ErrPersistence) {
		t.Errorf("期望 ErrPersistence，实际: %v", err)
	}
}

func TestUpdateBasicInfo_StatusTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   model.UserStatus
		expect model.UserStatus
	}{
		{"startprofile 推进到 startcourses", model.StatusStartProfile, model.StatusStartCourses},
		{"explore 保持不变", model.StatusExplore, model.StatusExplore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, userRepo, _ := setupTestProfileService()
			u := seedProfileUser(userRepo, tt.from)

			if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, unchangedBasicInfo(u)); err != nil {
				t.Fatalf("UpdateBasicInfo 应成功: %v", err)
			}
			status, _ := userRepo.GetStatusByID(context.Background(), testUserID)
			if status != tt.expect {
				t.Errorf("期望状态=%s，实际=%s", tt.expect, status)
			}
		})
	}
}

func TestUpdateBasicInfo_FetchErrors(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)
	userRepo.fetchErr = errors.New("timeout")

	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, unchangedBasicInfo(u)); !errors.Is(err, ErrUpstreamFetch) {
		t.Errorf("读取失败应返回 ErrUpstreamFetch，实际: %v", err)
	}
}

func TestUpdateBasicInfo_PersistFailure(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)
	userRepo.updateErr = errors.New("disk full")

	req := unchangedBasicInfo(u)
	req.FirstName = "Oskar"
	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); !errors.Is(err, ErrPersistence) {
		t.Errorf("写入失败应返回 ErrPersistence，实际: %v", err)
	}
}

func TestUpdateBasicInfo_EmailNormalized(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)

	// 仅大小写不同视为未修改
	req := unchangedBasicInfo(u)
	req.Email = "  OSKI@Berkeley.edu "
	req.Major = "Data Science"
	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); err != nil {
		t.Fatalf("UpdateBasicInfo 应成功: %v", err)
	}
	if _, ok := userRepo.lastUpdate()["email"]; ok {
		t.Errorf("仅大小写不同的邮箱不应写入，实际: %v", userRepo.lastUpdate())
	}

	req = unchangedBasicInfo(u)
	req.Email = "Oski.Bear@Berkeley.EDU"
	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); err != nil {
		t.Fatalf("UpdateBasicInfo 应成功: %v", err)
	}
	if got := userRepo.lastUpdate()["email"]; got != "oski.bear@berkeley.edu" {
		t.Errorf("新邮箱应以小写存储，实际: %v", got)
	}
}

func TestUpdateBasicInfo_EmailTaken(t *testing.T) {
	svc, userRepo, assets := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)
	userRepo.seed(&model.User{UserID: "user-stanford", Email: "tree@berkeley.edu", UserStatus: model.StatusExplore})
	before := len(userRepo.updates)

	req := unchangedBasicInfo(u)
	req.Email = "Tree@Berkeley.edu"
	req.ProfileImageFile = "data:image/png;base64,iVBORw0KGgo="
	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("邮箱被占用应返回 ErrEmailExists，实际: %v", err)
	}
	if len(userRepo.updates) != before {
		t.Error("邮箱冲突时不应写库")
	}
	if len(assets.calls) != 0 {
		t.Errorf("邮箱冲突时不应调用资源存储，实际: %v", assets.calls)
	}
}

func TestUpdateBasicInfo_DuplicateKeyOnWrite(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	u := seedProfileUser(userRepo, model.StatusExplore)
	// 预检通过后被并发注册抢占
	userRepo.updateErr = gorm.ErrDuplicatedKey

	req := unchangedBasicInfo(u)
	req.Email = "golden@berkeley.edu"
	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, req); !errors.Is(err, ErrEmailExists) {
		t.Errorf("唯一索引冲突应返回 ErrEmailExists，实际: %v", err)
	}
}

func TestUpdateBasicInfo_SessionLookupFailure(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := NewProfileService(newTestRepo(userRepo), failingSessions{}, &mockAssetStore{}, "", zap.NewNop())

	if _, err := svc.UpdateBasicInfo(context.Background(), testUserID, &dto.BasicInfoRequest{}); !errors.Is(err, ErrUpstreamFetch) {
		t.Errorf("会话解析失败应返回 ErrUpstreamFetch，实际: %v", err)
	}
}

// ── UpdateCourseList ──

func TestUpdateCourseList_StartCoursesScenario(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	seedProfileUser(userRepo, model.StatusStartCourses)

	resp, err := svc.UpdateCourseList(context.Background(), testUserID, &dto.CourseListRequest{
		CourseList: []dto.CourseItem{{CourseAbrName: "CS61A", CourseLongName: "Structure and Interpretation of Computer Programs"}},
	})
	if err != nil {
		t.Fatalf("UpdateCourseList 应成功: %v", err)
	}
	if len(resp.CourseList) != 1 || resp.CourseList[0].CourseAbrName != "CS61A" {
		t.Errorf("响应课程列表应只含 CS61A，实际: %+v", resp.CourseList)
	}

	status, _ := userRepo.GetStatusByID(context.Background(), testUserID)
	if status != model.StatusStartStudyPref {
		t.Errorf("期望状态=startstudypref，实际=%s", status)
	}
}

func TestUpdateCourseList_EmptyReplacesWholesale(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	seedProfileUser(userRepo, model.StatusExplore)

	resp, err := svc.UpdateCourseList(context.Background(), testUserID, &dto.CourseListRequest{CourseList: []dto.CourseItem{}})
	if err != nil {
		t.Fatalf("UpdateCourseList 应成功: %v", err)
	}
	if resp.CourseList == nil || len(resp.CourseList) != 0 {
		t.Errorf("响应应为空列表而非 null，实际: %#v", resp.CourseList)
	}

	stored, _ := userRepo.GetByID(context.Background(), testUserID)
	if len(stored.CourseList) != 0 {
		t.Errorf("存储的课程列表应为空，实际: %+v", stored.CourseList)
	}
	if stored.UserStatus != model.StatusExplore {
		t.Errorf("explore 状态不应变化，实际=%s", stored.UserStatus)
	}
}

func TestUpdateCourseList_ConcurrentAdvanceConflict(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	seedProfileUser(userRepo, model.StatusStartCourses)

	// 模拟会话解析后、写入前另一请求已推进状态
	svc.(*profileService).sessions = staleSessions{status: model.StatusStartCourses}
	userRepo.users[testUserID].UserStatus = model.StatusStartStudyPref

	_, err := svc.UpdateCourseList(context.Background(), testUserID, &dto.CourseListRequest{CourseList: []dto.CourseItem{}})
	if !errors.Is(err, pkgerrors.ErrStatusConflict) {
		t.Fatalf("期望 ErrStatusConflict，实际: %v", err)
	}
	status, _ := userRepo.GetStatusByID(context.Background(), testUserID)
	if status != model.StatusStartStudyPref {
		t.Errorf("状态不应被重复推进，实际=%s", status)
	}
}

// staleSessions 返回固定（可能已过期）状态的会话
type staleSessions struct {
	status model.UserStatus
}

func (s staleSessions) Check(_ context.Context, userID string, allowed ...model.UserStatus) (*SessionCheckResult, error) {
	return &SessionCheckResult{OK: s.status.In(allowed...), UserID: userID, UserStatus: s.status}, nil
}

// ── UpdateStudyPreferences ──

func TestUpdateStudyPreferences_AdvancesToExplore(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	seedProfileUser(userRepo, model.StatusStartStudyPref)

	prefs := json.RawMessage(`{"groupSize":"small","environment":["library","cafe"]}`)
	resp, err := svc.UpdateStudyPreferences(context.Background(), testUserID, &dto.StudyPreferencesRequest{UserStudyPreferences: prefs})
	if err != nil {
		t.Fatalf("UpdateStudyPreferences 应成功: %v", err)
	}
	if string(resp.UserStudyPreferences) != string(prefs) {
		t.Errorf("响应应原样返回偏好，实际=%s", resp.UserStudyPreferences)
	}

	stored, _ := userRepo.GetByID(context.Background(), testUserID)
	if stored.UserStatus != model.StatusExplore {
		t.Errorf("期望状态=explore，实际=%s", stored.UserStatus)
	}
	if string(stored.UserStudyPreferences) != string(prefs) {
		t.Errorf("偏好应原样存储，实际=%s", stored.UserStudyPreferences)
	}
}

// ── UpdateStudyTimes ──

func TestUpdateStudyTimes_NeverAdvances(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()
	seedProfileUser(userRepo, model.StatusStartStudyPref)

	req := &dto.StudyTimesRequest{StudyTimes: []dto.StudyTimeSlotItem{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"},
		{DayOfWeek: 3, StartTime: "14:00", EndTime: "16:30"},
	}}
	resp, err := svc.UpdateStudyTimes(context.Background(), testUserID, req)
	if err != nil {
		t.Fatalf("UpdateStudyTimes 应成功: %v", err)
	}
	if len(resp.StudyTimes) != 2 {
		t.Errorf("期望 2 个时段，实际=%d", len(resp.StudyTimes))
	}

	stored, _ := userRepo.GetByID(context.Background(), testUserID)
	if stored.UserStatus != model.StatusStartStudyPref {
		t.Errorf("保存学习时段不应推进状态，实际=%s", stored.UserStatus)
	}
	if len(stored.StudyTimes) != 2 {
		t.Errorf("应存储 2 个时段，实际=%d", len(stored.StudyTimes))
	}
}

func TestUpdateStudyTimes_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		slots []dto.StudyTimeSlotItem
		want  error
	}{
		{"开始晚于结束", []dto.StudyTimeSlotItem{{DayOfWeek: 2, StartTime: "12:00", EndTime: "10:00"}}, ErrInvalidStudyTime},
		{"零时长", []dto.StudyTimeSlotItem{{DayOfWeek: 2, StartTime: "10:00", EndTime: "10:00"}}, ErrInvalidStudyTime},
		{"重复时段", []dto.StudyTimeSlotItem{
			{DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00"},
			{DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00"},
		}, ErrDuplicateStudyTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, userRepo, _ := setupTestProfileService()
			seedProfileUser(userRepo, model.StatusExplore)

			_, err := svc.UpdateStudyTimes(context.Background(), testUserID, &dto.StudyTimesRequest{StudyTimes: tt.slots})
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
			if userRepo.lastUpdate() != nil {
				t.Error("非法时段不应写库")
			}
		})
	}
}

// ── GetBasicInfo ──

func TestGetBasicInfo(t *testing.T) {
	svc, userRepo, _ := setupTestProfileService()

	for _, status := range model.OnboardingOrder {
		seedProfileUser(userRepo, status)
		info, err := svc.GetBasicInfo(context.Background(), testUserID)
		if err != nil {
			t.Fatalf("状态 %s 下读取资料应成功: %v", status, err)
		}
		if info.FirstName != "Oski" || info.UserStatus != status {
			t.Errorf("资料内容不正确: %+v", info)
		}
	}

	if _, err := svc.GetBasicInfo(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("无会话应返回 ErrUnauthorized，实际: %v", err)
	}
}
