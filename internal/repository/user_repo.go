package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"berkeleyfind/backend/internal/model"
	pkgerrors "berkeleyfind/backend/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetBasicInfoByID(ctx context.Context, id string) (*model.BasicInfo, error)
	GetStatusByID(ctx context.Context, id string) (model.UserStatus, error)
	// UpdateByID 以单条 UPDATE 写入部分字段；expectStatus 非空时仅在存储状态仍为该值时写入
	UpdateByID(ctx context.Context, id string, update *model.UserUpdate, expectStatus model.UserStatus) error
	UpdateRole(ctx context.Context, id, role string) error
	ListAll(ctx context.Context) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetBasicInfoByID(ctx context.Context, id string) (*model.BasicInfo, error) {
	var info model.BasicInfo
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select(model.BasicInfoColumns).
		Where("user_id = ?", id).
		Take(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *userRepo) GetStatusByID(ctx context.Context, id string) (model.UserStatus, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("user_id", "user_status").
		Where("user_id = ?", id).
		Take(&user).Error
	if err != nil {
		return "", err
	}
	return user.UserStatus, nil
}

func (r *userRepo) UpdateByID(ctx context.Context, id string, update *model.UserUpdate, expectStatus model.UserStatus) error {
	cols := update.Columns()
	if len(cols) == 0 {
		return nil
	}

	db := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id)
	if expectStatus != "" {
		db = db.Where("user_status = ?", string(expectStatus))
	}

	result := db.Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if expectStatus != "" {
			return pkgerrors.ErrStatusConflict
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id, role string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}
