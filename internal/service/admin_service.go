package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"berkeleyfind/backend/internal/dto"
	"berkeleyfind/backend/internal/model"
	"berkeleyfind/backend/internal/repository"
)

// ── 管理模块业务错误 ──

var (
	ErrUserSelfRoleChange = errors.New("cannot change your own role")
	ErrExportGenerateFail = errors.New("failed to generate roster file")
)

// AdminService 管理员业务接口
type AdminService interface {
	ChangeRole(ctx context.Context, req *dto.ChangeRoleRequest, callerID string) (*dto.ChangeRoleResponse, error)
	// ExportUsers 导出用户花名册为 Excel，返回内容与建议文件名
	ExportUsers(ctx context.Context) (*bytes.Buffer, string, error)
}

type adminService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── ChangeRole ──────────────────────

func (s *adminService) ChangeRole(ctx context.Context, req *dto.ChangeRoleRequest, callerID string) (*dto.ChangeRoleResponse, error) {
	if req.UserID == callerID {
		return nil, ErrUserSelfRoleChange
	}

	if err := s.repo.User.UpdateRole(ctx, req.UserID, req.Role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("修改角色失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户角色已修改",
		zap.String("user_id", req.UserID),
		zap.String("role", req.Role),
		zap.String("operator", callerID),
	)
	return &dto.ChangeRoleResponse{UserID: req.UserID, Role: req.Role}, nil
}

// ────────────────────── ExportUsers ──────────────────────
//
// 单 Sheet "Users"：
//   - 第 1 行标题
//   - 第 2 行表头
//   - 其后每个用户一行，课程以缩写逗号拼接，学习时段以 "Mon 09:00-11:00" 形式拼接

var rosterHeaders = []string{
	"Email", "First Name", "Last Name", "Major", "Grad Year", "Pronouns",
	"Role", "Status", "Courses", "Study Times", "Joined",
}

var weekdayAbbr = map[int]string{1: "Mon", 2: "Tue", 3: "Wed", 4: "Thu", 5: "Fri", 6: "Sat", 7: "Sun"}

func (s *adminService) ExportUsers(ctx context.Context) (*bytes.Buffer, string, error) {
	users, err := s.repo.User.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Users"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{30, 14, 14, 24, 10, 12, 8, 16, 36, 40, 12}
	for i, w := range widths {
		col := colName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FDB515"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	today := s.now().Format("2006-01-02")

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("BerkeleyFind Users %s", today))
	f.MergeCell(sheetName, "A1", cell(colName(len(rosterHeaders)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	for i, h := range rosterHeaders {
		f.SetCellValue(sheetName, cell(colName(i+1), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(rosterHeaders)), 2), headerStyle)

	row := 3
	for _, u := range users {
		values := []interface{}{
			u.Email, u.FirstName, u.LastName, u.Major, u.GradYear, u.Pronouns,
			u.Role, string(u.UserStatus),
			joinCourses(u.CourseList),
			joinStudyTimes(u.StudyTimes),
			u.CreatedAt.Format("2006-01-02"),
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i+1), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("berkeleyfind_users_%s.xlsx", today), nil
}

func joinCourses(courses []model.Course) string {
	names := make([]string, 0, len(courses))
	for _, c := range courses {
		names = append(names, c.CourseAbrName)
	}
	return strings.Join(names, ", ")
}

func joinStudyTimes(slots []model.StudyTimeSlot) string {
	parts := make([]string, 0, len(slots))
	for _, sl := range slots {
		parts = append(parts, fmt.Sprintf("%s %s-%s", weekdayAbbr[sl.DayOfWeek], sl.StartTime, sl.EndTime))
	}
	return strings.Join(parts, ", ")
}

// colName 列号 → 列名（1 → A）
func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
