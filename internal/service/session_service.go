package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"berkeleyfind/backend/internal/model"
	"berkeleyfind/backend/internal/repository"
)

// ErrUnauthorized 无会话，或会话状态不在操作允许的集合内
var ErrUnauthorized = errors.New("not authorized")

// SessionCheckResult 单次请求的会话判定结果
type SessionCheckResult struct {
	OK         bool
	UserID     string
	UserStatus model.UserStatus
}

// SessionService 会话解析
//
// Token 只证明"是谁"，引导状态每次都从数据库读取，
// 因此状态推进后无需重新签发 Token。
type SessionService interface {
	// Check allowed 为空时任何状态均通过
	Check(ctx context.Context, userID string, allowed ...model.UserStatus) (*SessionCheckResult, error)
}

// RoleResolver 读取用户当前角色
//
// 与引导状态一样以数据库为准：角色变更后，旧 Token 中的 role 声明不再生效。
type RoleResolver interface {
	CurrentRole(ctx context.Context, userID string) (string, error)
}

type sessionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(repo *repository.Repository, logger *zap.Logger) SessionService {
	return &sessionService{repo: repo, logger: logger}
}

// NewRoleResolver 创建 RoleResolver 实例
func NewRoleResolver(repo *repository.Repository, logger *zap.Logger) RoleResolver {
	return &sessionService{repo: repo, logger: logger}
}

// CurrentRole 用户不存在时返回 gorm.ErrRecordNotFound
func (s *sessionService) CurrentRole(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("读取用户角色失败", zap.String("user_id", userID), zap.Error(err))
		}
		return "", err
	}
	return user.Role, nil
}

func (s *sessionService) Check(ctx context.Context, userID string, allowed ...model.UserStatus) (*SessionCheckResult, error) {
	if userID == "" {
		return &SessionCheckResult{}, nil
	}

	status, err := s.repo.User.GetStatusByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SessionCheckResult{UserID: userID}, nil
		}
		s.logger.Error("读取用户状态失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	res := &SessionCheckResult{UserID: userID, UserStatus: status}
	res.OK = len(allowed) == 0 || status.In(allowed...)
	return res, nil
}
