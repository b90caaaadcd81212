package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"berkeleyfind/backend/internal/model"
	"berkeleyfind/backend/internal/repository"
	"berkeleyfind/backend/pkg/asset"
	pkgerrors "berkeleyfind/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu      sync.Mutex
	users   map[string]*model.User // key: user_id
	updates []map[string]interface{}

	// 注入错误
	fetchErr  error
	updateErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func newTestRepo(userRepo *mockUserRepo) *repository.Repository {
	return &repository.Repository{User: userRepo}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = "user-" + strings.Split(user.Email, "@")[0]
	}
	user.Email = strings.ToLower(user.Email)
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetBasicInfoByID(_ context.Context, id string) (*model.BasicInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.BasicInfo{
		UserID:               u.UserID,
		UserStatus:           u.UserStatus,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Major:                u.Major,
		GradYear:             u.GradYear,
		UserBio:              u.UserBio,
		Pronouns:             u.Pronouns,
		FbURL:                u.FbURL,
		IgURL:                u.IgURL,
		ProfileImage:         u.ProfileImage,
		ProfileImagePublicID: u.ProfileImagePublicID,
	}, nil
}

func (m *mockUserRepo) GetStatusByID(_ context.Context, id string) (model.UserStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u.UserStatus, nil
	}
	return "", gorm.ErrRecordNotFound
}

// UpdateByID 与 GORM 实现保持相同的语义：空集合不写入，前置状态不符返回冲突
func (m *mockUserRepo) UpdateByID(_ context.Context, id string, update *model.UserUpdate, expectStatus model.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cols := update.Columns()
	if len(cols) == 0 {
		return nil
	}
	u, ok := m.users[id]
	if !ok {
		if expectStatus != "" {
			return pkgerrors.ErrStatusConflict
		}
		return gorm.ErrRecordNotFound
	}
	if expectStatus != "" && u.UserStatus != expectStatus {
		return pkgerrors.ErrStatusConflict
	}

	m.updates = append(m.updates, cols)
	applyString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	applyString(&u.Email, update.Email)
	applyString(&u.FirstName, update.FirstName)
	applyString(&u.LastName, update.LastName)
	applyString(&u.Major, update.Major)
	applyString(&u.GradYear, update.GradYear)
	applyString(&u.UserBio, update.UserBio)
	applyString(&u.Pronouns, update.Pronouns)
	applyString(&u.FbURL, update.FbURL)
	applyString(&u.IgURL, update.IgURL)
	applyString(&u.ProfileImage, update.ProfileImage)
	applyString(&u.ProfileImagePublicID, update.ProfileImagePublicID)
	if update.CourseList != nil {
		u.CourseList = append(u.CourseList[:0:0], *update.CourseList...)
	}
	if update.UserStudyPreferences != nil {
		u.UserStudyPreferences = *update.UserStudyPreferences
	}
	if update.StudyTimes != nil {
		u.StudyTimes = append(u.StudyTimes[:0:0], *update.StudyTimes...)
	}
	if update.UserStatus != nil {
		u.UserStatus = *update.UserStatus
	}
	return nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) lastUpdate() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.updates) == 0 {
		return nil
	}
	return m.updates[len(m.updates)-1]
}

func (m *mockUserRepo) seed(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = u
	return u
}

// ── Mock asset.Store ──

type mockAssetStore struct {
	calls      []string // 调用顺序，如 "destroy:old-id" / "upload"
	uploadErr  error
	destroyErr error
	result     *asset.UploadResult
	folder     string
}

func (m *mockAssetStore) Upload(_ context.Context, _ string, opts asset.UploadOptions) (*asset.UploadResult, error) {
	m.calls = append(m.calls, "upload")
	m.folder = opts.Folder
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &asset.UploadResult{SecureURL: "https://cdn.test/berkeleyfind/new.png", PublicID: "berkeleyfind/new"}, nil
}

func (m *mockAssetStore) Destroy(_ context.Context, publicID string) error {
	m.calls = append(m.calls, "destroy:"+publicID)
	return m.destroyErr
}

// ── Mock SessionService（用于模拟会话解析失败）──

type failingSessions struct{}

func (failingSessions) Check(context.Context, string, ...model.UserStatus) (*SessionCheckResult, error) {
	return nil, errors.New("connection refused")
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	jti string
	err error
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.jti = jti
	return m.err
}
