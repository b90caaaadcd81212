package service

import (
	"context"
	"errors"

	"berkeleyfind/backend/internal/dto"
	"berkeleyfind/backend/internal/model"
)

// ErrUnknownPage 页面不在引导页面表中
var ErrUnknownPage = errors.New("unknown page")

// loginPage 登录页：已登录用户被送往当前步骤
const loginPage = "login"

// StepDecision 页面访问判定
type StepDecision struct {
	Allow          bool
	RedirectTarget string
}

// ResolveAccessibleStep 判断处于 current 状态的用户能否进入 requested 步骤
//
// 只有当前步骤可访问，既不能回退也不能跳步；
// current 为空视为尚处于第一步。
func ResolveAccessibleStep(current, requested model.UserStatus) StepDecision {
	if current == "" {
		current = model.OnboardingOrder[0]
	}
	if current == requested {
		return StepDecision{Allow: true}
	}
	target := current.URL()
	if target == "" {
		target = model.OnboardingOrder[0].URL()
	}
	return StepDecision{RedirectTarget: target}
}

// OnboardingService 引导页面守卫
type OnboardingService interface {
	ResolvePage(ctx context.Context, userID, page string) (*dto.PageAccessResponse, error)
}

type onboardingService struct {
	sessions SessionService
}

// NewOnboardingService 创建 OnboardingService 实例
func NewOnboardingService(sessions SessionService) OnboardingService {
	return &onboardingService{sessions: sessions}
}

func (s *onboardingService) ResolvePage(ctx context.Context, userID, page string) (*dto.PageAccessResponse, error) {
	requested, known := model.PageStatus[page]
	if !known && page != loginPage {
		return nil, ErrUnknownPage
	}

	sess, err := s.sessions.Check(ctx, userID)
	if err != nil {
		return nil, err
	}
	// 用户记录不存在与无会话同等对待
	signedIn := sess.UserID != "" && sess.UserStatus != ""

	if page == loginPage {
		if signedIn {
			return &dto.PageAccessResponse{RedirectTarget: sess.UserStatus.URL()}, nil
		}
		return &dto.PageAccessResponse{Allow: true}, nil
	}

	if !signedIn {
		return &dto.PageAccessResponse{RedirectTarget: model.LoginURL}, nil
	}

	d := ResolveAccessibleStep(sess.UserStatus, requested)
	return &dto.PageAccessResponse{Allow: d.Allow, RedirectTarget: d.RedirectTarget}, nil
}
