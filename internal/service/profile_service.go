package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"berkeleyfind/backend/internal/dto"
	"berkeleyfind/backend/internal/model"
	"berkeleyfind/backend/internal/repository"
	"berkeleyfind/backend/pkg/asset"
	pkgerrors "berkeleyfind/backend/pkg/errors"
)

// ── 资料模块业务错误 ──

var (
	ErrUpstreamFetch      = errors.New("error in fetching old user")
	ErrPersistence        = errors.New("error in modifying user")
	ErrInvalidStudyTime   = errors.New("study time must start before it ends")
	ErrDuplicateStudyTime = errors.New("duplicate study time slot")
)

// 各操作允许的会话状态
var (
	basicInfoStatuses  = []model.UserStatus{model.StatusExplore, model.StatusStartProfile}
	courseStatuses     = []model.UserStatus{model.StatusExplore, model.StatusStartCourses}
	studyPrefStatuses  = []model.UserStatus{model.StatusExplore, model.StatusStartStudyPref}
	studyTimesStatuses = []model.UserStatus{model.StatusExplore, model.StatusStartStudyPref}
)

// ProfileService 资料修改业务接口
//
// 每个写操作对应引导流程的一步：会话状态处于该步时，
// 写入成功会把状态推进到下一步；explore 状态下只修改数据。
type ProfileService interface {
	GetBasicInfo(ctx context.Context, userID string) (*model.BasicInfo, error)
	UpdateBasicInfo(ctx context.Context, userID string, req *dto.BasicInfoRequest) (*dto.BasicInfoResponse, error)
	UpdateCourseList(ctx context.Context, userID string, req *dto.CourseListRequest) (*dto.CourseListResponse, error)
	UpdateStudyPreferences(ctx context.Context, userID string, req *dto.StudyPreferencesRequest) (*dto.StudyPreferencesResponse, error)
	UpdateStudyTimes(ctx context.Context, userID string, req *dto.StudyTimesRequest) (*dto.StudyTimesResponse, error)
}

type profileService struct {
	repo     *repository.Repository
	sessions SessionService
	assets   asset.Store
	folder   string
	logger   *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(
	repo *repository.Repository,
	sessions SessionService,
	assets asset.Store,
	folder string,
	logger *zap.Logger,
) ProfileService {
	if folder == "" {
		folder = asset.DefaultFolder
	}
	return &profileService{
		repo:     repo,
		sessions: sessions,
		assets:   assets,
		folder:   folder,
		logger:   logger,
	}
}

// ────────────────────── GetBasicInfo ──────────────────────

func (s *profileService) GetBasicInfo(ctx context.Context, userID string) (*model.BasicInfo, error) {
	sess, err := s.authorize(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.fetchBasicInfo(ctx, sess.UserID)
}

// ────────────────────── UpdateBasicInfo ──────────────────────
//
// 头像处理：
//   - 提交了非空且与存储地址不同的头像 → 删除旧资源（若有）后上传新资源
//   - 其余情况（空、或与存储地址相同）→ 清除已存储的地址与资源 ID
//
// 第二条会让"原样回传当前头像"也清掉头像，这是与前端约定的既有行为。

func (s *profileService) UpdateBasicInfo(ctx context.Context, userID string, req *dto.BasicInfoRequest) (*dto.BasicInfoResponse, error) {
	sess, err := s.authorize(ctx, userID, basicInfoStatuses...)
	if err != nil {
		return nil, err
	}

	old, err := s.fetchBasicInfo(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	// 先确认邮箱可用，避免头像已上传而资料写入失败
	email := normalizeEmail(req.Email)
	if email != old.Email {
		if err := s.ensureEmailAvailable(ctx, sess.UserID, email); err != nil {
			return nil, err
		}
	}

	update := &model.UserUpdate{}
	log := s.logger.With(zap.String("user_id", sess.UserID))

	if req.ProfileImageFile != "" && req.ProfileImageFile != old.ProfileImage {
		if old.ProfileImagePublicID != "" {
			if err := s.assets.Destroy(ctx, old.ProfileImagePublicID); err != nil {
				log.Error("删除旧头像失败", zap.String("public_id", old.ProfileImagePublicID), zap.Error(err))
				return nil, ErrPersistence
			}
		}
		res, err := s.assets.Upload(ctx, req.ProfileImageFile, asset.UploadOptions{Folder: s.folder})
		if err != nil {
			log.Error("上传头像失败", zap.Error(err))
			return nil, ErrPersistence
		}
		update.ProfileImage = &res.SecureURL
		update.ProfileImagePublicID = &res.PublicID
	} else {
		if old.ProfileImage != "" {
			update.ProfileImage = strPtr("")
		}
		if old.ProfileImagePublicID != "" {
			update.ProfileImagePublicID = strPtr("")
		}
	}

	update.Email = changed(email, old.Email)
	update.FirstName = changed(req.FirstName, old.FirstName)
	update.LastName = changed(req.LastName, old.LastName)
	update.Major = changed(req.Major, old.Major)
	update.GradYear = changed(req.GradYear, old.GradYear)
	update.UserBio = changed(req.UserBio, old.UserBio)
	update.Pronouns = changed(req.Pronouns, old.Pronouns)
	update.FbURL = changed(req.FbURL, old.FbURL)
	update.IgURL = changed(req.IgURL, old.IgURL)

	expect := advance(update, sess.UserStatus, model.StatusStartProfile)
	if err := s.persist(ctx, sess.UserID, update, expect); err != nil {
		return nil, err
	}

	image := old.ProfileImage
	if update.ProfileImage != nil {
		image = *update.ProfileImage
	}
	resp := &dto.BasicInfoResponse{}
	if image != "" {
		resp.ProfileImage = &image
	}
	return resp, nil
}

// ────────────────────── UpdateCourseList ──────────────────────

func (s *profileService) UpdateCourseList(ctx context.Context, userID string, req *dto.CourseListRequest) (*dto.CourseListResponse, error) {
	sess, err := s.authorize(ctx, userID, courseStatuses...)
	if err != nil {
		return nil, err
	}

	courses := dto.ToCourses(req.CourseList)
	update := &model.UserUpdate{CourseList: &courses}
	expect := advance(update, sess.UserStatus, model.StatusStartCourses)
	if err := s.persist(ctx, sess.UserID, update, expect); err != nil {
		return nil, err
	}

	return &dto.CourseListResponse{CourseList: dto.FromCourses(courses)}, nil
}

// ────────────────────── UpdateStudyPreferences ──────────────────────

func (s *profileService) UpdateStudyPreferences(ctx context.Context, userID string, req *dto.StudyPreferencesRequest) (*dto.StudyPreferencesResponse, error) {
	sess, err := s.authorize(ctx, userID, studyPrefStatuses...)
	if err != nil {
		return nil, err
	}

	prefs := datatypes.JSON(req.UserStudyPreferences)
	update := &model.UserUpdate{UserStudyPreferences: &prefs}
	expect := advance(update, sess.UserStatus, model.StatusStartStudyPref)
	if err := s.persist(ctx, sess.UserID, update, expect); err != nil {
		return nil, err
	}

	return &dto.StudyPreferencesResponse{UserStudyPreferences: json.RawMessage(prefs)}, nil
}

// ────────────────────── UpdateStudyTimes ──────────────────────
//
// 学习时段与学习偏好同属 startstudypref 步骤，但保存时段不推进状态。

func (s *profileService) UpdateStudyTimes(ctx context.Context, userID string, req *dto.StudyTimesRequest) (*dto.StudyTimesResponse, error) {
	sess, err := s.authorize(ctx, userID, studyTimesStatuses...)
	if err != nil {
		return nil, err
	}

	slots := dto.ToStudyTimeSlots(req.StudyTimes)
	if err := validateStudyTimes(slots); err != nil {
		return nil, err
	}

	update := &model.UserUpdate{StudyTimes: &slots}
	if err := s.persist(ctx, sess.UserID, update, ""); err != nil {
		return nil, err
	}

	return &dto.StudyTimesResponse{StudyTimes: dto.FromStudyTimeSlots(slots)}, nil
}

// ── 内部辅助 ──

func (s *profileService) authorize(ctx context.Context, userID string, allowed ...model.UserStatus) (*SessionCheckResult, error) {
	sess, err := s.sessions.Check(ctx, userID, allowed...)
	if err != nil {
		return nil, ErrUpstreamFetch
	}
	if !sess.OK {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

func (s *profileService) fetchBasicInfo(ctx context.Context, userID string) (*model.BasicInfo, error) {
	info, err := s.repo.User.GetBasicInfoByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("读取用户资料失败", zap.String("user_id", userID), zap.Error(err))
		return nil, ErrUpstreamFetch
	}
	return info, nil
}

func (s *profileService) ensureEmailAvailable(ctx context.Context, userID, email string) error {
	other, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询邮箱失败", zap.String("user_id", userID), zap.Error(err))
		return ErrUpstreamFetch
	}
	if other.UserID != userID {
		return ErrEmailExists
	}
	return nil
}

func (s *profileService) persist(ctx context.Context, userID string, update *model.UserUpdate, expect model.UserStatus) error {
	err := s.repo.User.UpdateByID(ctx, userID, update, expect)
	if err == nil {
		return nil
	}
	// 并发下邮箱唯一索引冲突
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailExists
	}
	if errors.Is(err, pkgerrors.ErrStatusConflict) {
		s.logger.Warn("引导状态已被其他请求推进",
			zap.String("user_id", userID),
			zap.String("expect_status", string(expect)),
		)
		return pkgerrors.ErrStatusConflict
	}
	s.logger.Error("写入用户资料失败", zap.String("user_id", userID), zap.Error(err))
	return ErrPersistence
}

// advance 会话处于 step 时在更新集合中加入下一状态，并返回写入时要求的前置状态
func advance(update *model.UserUpdate, current, step model.UserStatus) model.UserStatus {
	if current != step {
		return ""
	}
	next := step.Next()
	update.UserStatus = &next
	return step
}

// changed 提交值与存储值不同时返回指针，否则为 nil（不写入）
func changed(submitted, stored string) *string {
	if submitted == stored {
		return nil
	}
	return &submitted
}

func strPtr(s string) *string { return &s }

// validateStudyTimes 开始时间早于结束时间，且同一时段不重复
func validateStudyTimes(slots []model.StudyTimeSlot) error {
	seen := make(map[model.StudyTimeSlot]bool, len(slots))
	for _, slot := range slots {
		// HH:MM 定长格式，字符串比较即时间比较
		if slot.StartTime >= slot.EndTime {
			return ErrInvalidStudyTime
		}
		if seen[slot] {
			return ErrDuplicateStudyTime
		}
		seen[slot] = true
	}
	return nil
}
