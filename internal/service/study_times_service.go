package service

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"berkeleyfind/backend/internal/dto"
)

var (
	ErrInvalidICS  = errors.New("invalid iCalendar file")
	ErrICSEmpty    = errors.New("no weekly events found in iCalendar file")
	ErrICSTooLarge = errors.New("iCalendar file exceeds 5MB")
)

// StudyTimesService 学习时段导入
//
// 导入只做解析并返回候选时段，不写库；
// 用户确认后经 ProfileService.UpdateStudyTimes 保存。
type StudyTimesService interface {
	ImportICS(ctx context.Context, userID string, reader io.Reader) (*dto.StudyTimesResponse, error)
}

type studyTimesService struct {
	sessions SessionService
	logger   *zap.Logger
}

// NewStudyTimesService 创建 StudyTimesService 实例
func NewStudyTimesService(sessions SessionService, logger *zap.Logger) StudyTimesService {
	return &studyTimesService{sessions: sessions, logger: logger}
}

func (s *studyTimesService) ImportICS(ctx context.Context, userID string, reader io.Reader) (*dto.StudyTimesResponse, error) {
	sess, err := s.sessions.Check(ctx, userID, studyTimesStatuses...)
	if err != nil {
		return nil, ErrUpstreamFetch
	}
	if !sess.OK {
		return nil, ErrUnauthorized
	}

	slots, err := ParseStudyTimesICS(reader)
	if errors.Is(err, ErrICSTooLarge) {
		return nil, ErrICSTooLarge
	}
	if err != nil {
		s.logger.Warn("ICS 解析失败", zap.String("user_id", sess.UserID), zap.Error(err))
		return nil, ErrInvalidICS
	}
	if len(slots) == 0 {
		return nil, ErrICSEmpty
	}

	return &dto.StudyTimesResponse{StudyTimes: dto.FromStudyTimeSlots(slots)}, nil
}
