package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoMentorships = errors.New("该周期暂无辅导关系，无可导出内容")
	ErrExportGenerateFail  = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 一期仅实现周期报告导出为 Excel (.xlsx)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：Sheet「周期总览」为统计汇总，Sheet「辅导关系」逐行列出配对明细
type ExportService interface {
	// ExportCycleReport 导出周期报告为 Excel
	ExportCycleReport(ctx context.Context, cycleID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	analytics AnalyticsService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, analytics AnalyticsService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, analytics: analytics, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportCycleReport — 导出周期报告为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet「周期总览」：报名/匹配/辅导关系统计与派生指标
//   - Sheet「辅导关系」：导师、学员、匹配分、状态、进度、会话数、评分、证书编号
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportCycleReport(ctx context.Context, cycleID string) (*bytes.Buffer, string, error) {
	// 1. 查询周期
	cycle, err := s.repo.Cycle.GetByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCycleNotFound
		}
		s.logger.Error("查询周期失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 统计汇总（与分析接口同源）
	stats, err := s.analytics.GetCycleAnalytics(ctx, cycleID)
	if err != nil {
		return nil, "", err
	}

	// 3. 辅导关系明细（含导师/学员预加载）
	mentorships, err := s.repo.Mentorship.ListByCycle(ctx, cycleID, "")
	if err != nil {
		s.logger.Error("查询辅导关系列表失败", zap.Error(err))
		return nil, "", err
	}
	if len(mentorships) == 0 {
		return nil, "", ErrExportNoMentorships
	}

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeSummarySheet(f, cycle.Name, stats); err != nil {
		s.logger.Error("写入总览 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	if err := s.writeMentorshipSheet(ctx, f, mentorships); err != nil {
		s.logger.Error("写入明细 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.DeleteSheet("Sheet1")

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("周期报告_%s.xlsx", cycle.Name)
	return buf, filename, nil
}

// ── Sheet「周期总览」──

func (s *exportService) writeSummarySheet(f *excelize.File, cycleName string, stats *dto.CycleAnalyticsResponse) error {
	const sheetName = "周期总览"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 周期报告", cycleName))
	f.MergeCell(sheetName, "A1", "B1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	rows := []struct {
		label string
		value interface{}
	}{
		{"报名导师数", stats.MentorsInterested},
		{"报名学员数", stats.MenteesInterested},
		{"待审批匹配", stats.MatchesPending},
		{"已批准匹配", stats.MatchesApproved},
		{"已拒绝匹配", stats.MatchesRejected},
		{"平均匹配分", stats.AverageMatchScore},
		{"进行中辅导", stats.MentorshipsActive},
		{"已完成辅导", stats.MentorshipsCompleted},
		{"已取消辅导", stats.MentorshipsCancelled},
		{"完成率", stats.CompletionRate},
		{"任务完成率", stats.TaskCompletionRate},
		{"平均会话数", stats.AverageSessionsHeld},
		{"已颁发证书", stats.CertificatesIssued},
		{"生成时间", stats.GeneratedAt},
	}
	row := 2
	for _, r := range rows {
		f.SetCellValue(sheetName, cell("A", row), r.label)
		f.SetCellValue(sheetName, cell("B", row), r.value)
		row++
	}
	if stats.AverageEngagement != nil {
		f.SetCellValue(sheetName, cell("A", row), "平均投入度")
		f.SetCellValue(sheetName, cell("B", row), *stats.AverageEngagement)
		row++
	}
	if stats.AverageSatisfaction != nil {
		f.SetCellValue(sheetName, cell("A", row), "平均满意度")
		f.SetCellValue(sheetName, cell("B", row), *stats.AverageSatisfaction)
	}
	return nil
}

// ── Sheet「辅导关系」──

func (s *exportService) writeMentorshipSheet(ctx context.Context, f *excelize.File, mentorships []model.Mentorship) error {
	const sheetName = "辅导关系"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	f.SetColWidth(sheetName, "A", "B", 16)
	f.SetColWidth(sheetName, "C", "H", 12)
	f.SetColWidth(sheetName, "I", "I", 26)

	headers := []string{"导师", "学员", "匹配分", "状态", "进度（周）", "会话数", "投入度", "满意度", "证书编号"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}

	row := 2
	for i := range mentorships {
		m := &mentorships[i]

		matchScore := "-"
		if match, err := s.repo.Match.GetByID(ctx, m.MatchID); err == nil {
			matchScore = fmt.Sprintf("%d", match.MatchScore)
		}
		progressText := "-"
		if program, err := s.repo.Program.GetByMentorshipID(ctx, m.MentorshipID); err == nil {
			progressText = fmt.Sprintf("%d/%d", program.Week, program.TotalWeeks)
		}
		certNumber := "-"
		if m.CertificateID != nil {
			if cert, err := s.repo.Certificate.GetByID(ctx, *m.CertificateID); err == nil {
				certNumber = cert.CertificateNumber
			}
		}

		f.SetCellValue(sheetName, cell("A", row), participantName(m.Mentor, m.MentorID))
		f.SetCellValue(sheetName, cell("B", row), participantName(m.Mentee, m.MenteeID))
		f.SetCellValue(sheetName, cell("C", row), matchScore)
		f.SetCellValue(sheetName, cell("D", row), m.Status)
		f.SetCellValue(sheetName, cell("E", row), progressText)
		f.SetCellValue(sheetName, cell("F", row), m.SessionsCompleted)
		f.SetCellValue(sheetName, cell("G", row), scoreText(m.EngagementScore))
		f.SetCellValue(sheetName, cell("H", row), scoreText(m.SatisfactionScore))
		f.SetCellValue(sheetName, cell("I", row), certNumber)
		row++
	}
	return nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func participantName(user *model.User, fallbackID string) string {
	if user != nil {
		return user.Name
	}
	return fallbackID
}

func scoreText(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *score)
}
