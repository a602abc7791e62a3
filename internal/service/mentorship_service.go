package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 辅导关系模块业务错误 ──

var (
	ErrMentorshipNotFound          = errors.New("辅导关系不存在")
	ErrMentorshipNotParticipant    = errors.New("仅辅导关系双方可执行此操作")
	ErrMentorshipInvalidTransition = errors.New("辅导关系状态不允许该操作")
	ErrMentorshipNotActive         = errors.New("辅导关系未处于进行中状态")
)

// MentorshipService 辅导关系业务接口
type MentorshipService interface {
	GetByID(ctx context.Context, id string) (*dto.MentorshipResponse, error)
	ListMine(ctx context.Context, userID, status string) ([]dto.MentorshipResponse, error)
	ListByCycle(ctx context.Context, req *dto.MentorshipListRequest) ([]dto.MentorshipResponse, error)
	// LogSession 记录一次辅导会话（仅进行中可计数）
	LogSession(ctx context.Context, id, actorID string) (*dto.MentorshipResponse, error)
	// Complete 完结辅导关系：终评均分回写，释放导师名额
	Complete(ctx context.Context, id, actorID string) (*dto.MentorshipResponse, error)
	// Cancel 取消辅导关系：记录原因并释放导师名额
	Cancel(ctx context.Context, id, actorID string, req *dto.CancelMentorshipRequest) (*dto.MentorshipResponse, error)
}

type mentorshipService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewMentorshipService 创建 MentorshipService 实例
func NewMentorshipService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) MentorshipService {
	return &mentorshipService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── 查询 ──────────────────────

func (s *mentorshipService) GetByID(ctx context.Context, id string) (*dto.MentorshipResponse, error) {
	mentorship, err := s.getMentorship(ctx, id)
	if err != nil {
		return nil, err
	}
	return toMentorshipResponse(mentorship), nil
}

func (s *mentorshipService) ListMine(ctx context.Context, userID, status string) ([]dto.MentorshipResponse, error) {
	mentorships, err := s.repo.Mentorship.ListByUser(ctx, userID, status)
	if err != nil {
		s.logger.Error("查询我的辅导关系失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MentorshipResponse, 0, len(mentorships))
	for i := range mentorships {
		result = append(result, *toMentorshipResponse(&mentorships[i]))
	}
	return result, nil
}

func (s *mentorshipService) ListByCycle(ctx context.Context, req *dto.MentorshipListRequest) ([]dto.MentorshipResponse, error) {
	mentorships, err := s.repo.Mentorship.ListByCycle(ctx, req.CycleID, req.Status)
	if err != nil {
		s.logger.Error("查询周期辅导关系失败", zap.String("cycle_id", req.CycleID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MentorshipResponse, 0, len(mentorships))
	for i := range mentorships {
		result = append(result, *toMentorshipResponse(&mentorships[i]))
	}
	return result, nil
}

// ────────────────────── LogSession ──────────────────────

func (s *mentorshipService) LogSession(ctx context.Context, id, actorID string) (*dto.MentorshipResponse, error) {
	mentorship, err := s.getMentorship(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParticipant(mentorship, actorID) {
		return nil, ErrMentorshipNotParticipant
	}
	if mentorship.Status != model.MentorshipActive {
		return nil, ErrMentorshipNotActive
	}

	if err := s.repo.Mentorship.IncrementSessions(ctx, id); err != nil {
		s.logger.Error("记录会话失败", zap.String("mentorship_id", id), zap.Error(err))
		return nil, err
	}
	mentorship.SessionsCompleted++
	return toMentorshipResponse(mentorship), nil
}

// ────────────────────── Complete ──────────────────────

func (s *mentorshipService) Complete(ctx context.Context, id, actorID string) (*dto.MentorshipResponse, error) {
	mentorship, err := s.getMentorship(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.MentorshipCanTransition(mentorship.Status, model.MentorshipCompleted) {
		return nil, ErrMentorshipInvalidTransition
	}

	// 完结派生分：优先终评均值，无终评时回退到中期评价
	engagement, satisfaction := s.deriveScores(ctx, id)

	now := time.Now()
	mentorship.Status = model.MentorshipCompleted
	mentorship.CompletedAt = &now
	mentorship.EngagementScore = engagement
	mentorship.SatisfactionScore = satisfaction
	mentorship.UpdatedBy = &actorID

	if err := s.repo.Mentorship.TerminateReleasingCapacity(ctx, mentorship); err != nil {
		s.logger.Error("完结辅导关系失败", zap.String("mentorship_id", id), zap.Error(err))
		return nil, err
	}

	// 周计划随关系一并收尾，失败不影响主流程
	s.closeProgram(ctx, id, actorID, &now)

	s.notifier.Notify([]string{mentorship.MentorID, mentorship.MenteeID}, model.NotifMentorshipCompleted,
		"辅导关系已完结",
		"恭喜完成本期辅导计划！学员可申请结业证书。",
		"mentorship", mentorship.MentorshipID)

	return toMentorshipResponse(mentorship), nil
}

// ────────────────────── Cancel ──────────────────────

func (s *mentorshipService) Cancel(ctx context.Context, id, actorID string, req *dto.CancelMentorshipRequest) (*dto.MentorshipResponse, error) {
	mentorship, err := s.getMentorship(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.MentorshipCanTransition(mentorship.Status, model.MentorshipCancelled) {
		return nil, ErrMentorshipInvalidTransition
	}

	now := time.Now()
	mentorship.Status = model.MentorshipCancelled
	mentorship.CancelReason = req.Reason
	mentorship.CompletedAt = &now
	mentorship.UpdatedBy = &actorID

	if err := s.repo.Mentorship.TerminateReleasingCapacity(ctx, mentorship); err != nil {
		s.logger.Error("取消辅导关系失败", zap.String("mentorship_id", id), zap.Error(err))
		return nil, err
	}

	s.closeProgram(ctx, id, actorID, &now)

	s.notifier.Notify([]string{mentorship.MentorID, mentorship.MenteeID}, model.NotifMentorshipCancelled,
		"辅导关系已取消",
		"辅导关系已取消："+req.Reason,
		"mentorship", mentorship.MentorshipID)

	return toMentorshipResponse(mentorship), nil
}

// ── 内部辅助 ──

func (s *mentorshipService) getMentorship(ctx context.Context, id string) (*model.Mentorship, error) {
	mentorship, err := s.repo.Mentorship.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorshipNotFound
		}
		s.logger.Error("查询辅导关系失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return mentorship, nil
}

func isParticipant(m *model.Mentorship, userID string) bool {
	return m.MentorID == userID || m.MenteeID == userID
}

// deriveScores 由评价均值派生完结分；无任何评价时保持为空
func (s *mentorshipService) deriveScores(ctx context.Context, mentorshipID string) (engagement, satisfaction *float64) {
	evals, err := s.repo.Evaluation.ListByMentorshipAndType(ctx, mentorshipID, model.EvaluationFinal)
	if err != nil {
		s.logger.Warn("查询终评失败，完结分留空", zap.Error(err))
		return nil, nil
	}
	if len(evals) == 0 {
		evals, err = s.repo.Evaluation.ListByMentorshipAndType(ctx, mentorshipID, model.EvaluationMidProgram)
		if err != nil || len(evals) == 0 {
			return nil, nil
		}
	}

	var engSum, satSum float64
	for _, e := range evals {
		engSum += float64(e.EngagementRating)
		satSum += float64(e.SatisfactionRating)
	}
	eng := engSum / float64(len(evals))
	sat := satSum / float64(len(evals))
	return &eng, &sat
}

func (s *mentorshipService) closeProgram(ctx context.Context, mentorshipID, actorID string, completedAt *time.Time) {
	program, err := s.repo.Program.GetByMentorshipID(ctx, mentorshipID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询周计划失败", zap.Error(err))
		}
		return
	}
	if program.Status != model.ProgramActive {
		return
	}
	program.Status = model.ProgramCompleted
	program.CompletedAt = completedAt
	program.UpdatedBy = &actorID
	if err := s.repo.Program.UpdateWeek(ctx, program); err != nil {
		s.logger.Warn("收尾周计划失败", zap.String("program_id", program.ProgramID), zap.Error(err))
	}
}

// ── 响应转换 ──

func toMentorshipResponse(m *model.Mentorship) *dto.MentorshipResponse {
	resp := &dto.MentorshipResponse{
		ID:                m.MentorshipID,
		MatchID:           m.MatchID,
		CycleID:           m.CycleID,
		Status:            m.Status,
		SessionsCompleted: m.SessionsCompleted,
		EngagementScore:   m.EngagementScore,
		SatisfactionScore: m.SatisfactionScore,
		CertificateID:     m.CertificateID,
		CancelReason:      m.CancelReason,
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         m.UpdatedAt.Format(time.RFC3339),
	}
	if m.StartedAt != nil {
		started := m.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &started
	}
	if m.CompletedAt != nil {
		completed := m.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	if m.Mentor != nil {
		resp.Mentor = &dto.UserBrief{ID: m.Mentor.UserID, Name: m.Mentor.Name, Email: m.Mentor.Email}
	} else {
		resp.Mentor = &dto.UserBrief{ID: m.MentorID}
	}
	if m.Mentee != nil {
		resp.Mentee = &dto.UserBrief{ID: m.Mentee.UserID, Name: m.Mentee.Name, Email: m.Mentee.Email}
	} else {
		resp.Mentee = &dto.UserBrief{ID: m.MenteeID}
	}
	return resp
}
