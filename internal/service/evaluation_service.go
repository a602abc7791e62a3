package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 评价与证书模块业务错误 ──

var (
	ErrEvaluationDuplicate    = errors.New("已提交过同类型评价")
	ErrEvaluationNotAllowed   = errors.New("当前辅导状态不允许提交该评价")
	ErrEvaluationNotFound     = errors.New("评价不存在")
	ErrCertificateNotFound    = errors.New("证书不存在")
	ErrCertificateNotEligible = errors.New("辅导关系未完成，不可颁发证书")
	ErrCertificateIssued      = errors.New("证书已颁发")
)

// EvaluationService 评价与结业证书业务接口
type EvaluationService interface {
	// SubmitEvaluation 提交评价；同一评价人对同一 (mentorship, type) 仅一次
	SubmitEvaluation(ctx context.Context, mentorshipID string, req *dto.SubmitEvaluationRequest, evaluatorID string) (*dto.EvaluationResponse, error)
	ListByMentorship(ctx context.Context, mentorshipID string) ([]dto.EvaluationResponse, error)
	// IssueCertificate 为已完成的辅导关系颁发结业证书，每段关系至多一张
	IssueCertificate(ctx context.Context, mentorshipID, actorID string) (*dto.CertificateResponse, error)
	GetCertificate(ctx context.Context, mentorshipID string) (*dto.CertificateResponse, error)
	VerifyCertificate(ctx context.Context, number string) (*dto.CertificateResponse, error)
}

type evaluationService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewEvaluationService 创建 EvaluationService 实例
func NewEvaluationService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) EvaluationService {
	return &evaluationService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── 评价 ──────────────────────

func (s *evaluationService) SubmitEvaluation(ctx context.Context, mentorshipID string, req *dto.SubmitEvaluationRequest, evaluatorID string) (*dto.EvaluationResponse, error) {
	mentorship, err := s.repo.Mentorship.GetByID(ctx, mentorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorshipNotFound
		}
		s.logger.Error("查询辅导关系失败", zap.Error(err))
		return nil, err
	}
	if mentorship.MentorID != evaluatorID && mentorship.MenteeID != evaluatorID {
		return nil, ErrMentorshipNotParticipant
	}

	// 中期评价仅限进行中；结业评价在进行中或已完成时均可补交
	switch req.Type {
	case model.EvaluationMidProgram:
		if mentorship.Status != model.MentorshipActive {
			return nil, ErrEvaluationNotAllowed
		}
	case model.EvaluationFinal:
		if mentorship.Status != model.MentorshipActive && mentorship.Status != model.MentorshipCompleted {
			return nil, ErrEvaluationNotAllowed
		}
	}

	exists, err := s.repo.Evaluation.Exists(ctx, mentorshipID, req.Type, evaluatorID)
	if err != nil {
		s.logger.Error("查询评价是否存在失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrEvaluationDuplicate
	}

	evaluation := &model.Evaluation{
		MentorshipID:        mentorshipID,
		Type:                req.Type,
		EvaluatorID:         evaluatorID,
		IsMentor:            evaluatorID == mentorship.MentorID,
		EngagementRating:    req.EngagementRating,
		SatisfactionRating:  req.SatisfactionRating,
		SkillGrowthRating:   req.SkillGrowthRating,
		CommunicationRating: req.CommunicationRating,
		Feedback:            req.Feedback,
	}
	if program, perr := s.repo.Program.GetByMentorshipID(ctx, mentorshipID); perr == nil {
		evaluation.ProgramID = &program.ProgramID
	}
	if err := s.repo.Evaluation.Create(ctx, evaluation); err != nil {
		// 并发重复提交由唯一约束兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEvaluationDuplicate
		}
		s.logger.Error("创建评价失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("评价已提交",
		zap.String("mentorship_id", mentorshipID),
		zap.String("type", req.Type),
		zap.Bool("is_mentor", evaluation.IsMentor))
	return toEvaluationResponse(evaluation), nil
}

func (s *evaluationService) ListByMentorship(ctx context.Context, mentorshipID string) ([]dto.EvaluationResponse, error) {
	evaluations, err := s.repo.Evaluation.ListByMentorship(ctx, mentorshipID)
	if err != nil {
		s.logger.Error("查询评价列表失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.EvaluationResponse, 0, len(evaluations))
	for i := range evaluations {
		result = append(result, *toEvaluationResponse(&evaluations[i]))
	}
	return result, nil
}

// ────────────────────── 证书 ──────────────────────

func (s *evaluationService) IssueCertificate(ctx context.Context, mentorshipID, actorID string) (*dto.CertificateResponse, error) {
	mentorship, err := s.repo.Mentorship.GetByID(ctx, mentorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorshipNotFound
		}
		s.logger.Error("查询辅导关系失败", zap.Error(err))
		return nil, err
	}
	if mentorship.Status != model.MentorshipCompleted {
		return nil, ErrCertificateNotEligible
	}
	if mentorship.CertificateID != nil {
		return nil, ErrCertificateIssued
	}

	cert := &model.Certificate{
		MentorshipID:      mentorshipID,
		CertificateNumber: buildCertificateNumber(mentorship),
		IssuedAt:          time.Now(),
	}
	if err := s.repo.Certificate.CreateLinking(ctx, cert); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCertificateIssued
		}
		s.logger.Error("颁发证书失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("结业证书已颁发",
		zap.String("mentorship_id", mentorshipID),
		zap.String("certificate_number", cert.CertificateNumber),
		zap.String("issued_by", actorID))

	s.notifier.Notify([]string{mentorship.MentorID, mentorship.MenteeID}, model.NotifCertificateIssued,
		"结业证书已颁发",
		fmt.Sprintf("本段辅导的结业证书已颁发，编号 %s。", cert.CertificateNumber),
		"certificate", cert.CertificateID)

	return s.toCertificateResponse(ctx, cert, mentorship), nil
}

func (s *evaluationService) GetCertificate(ctx context.Context, mentorshipID string) (*dto.CertificateResponse, error) {
	cert, err := s.repo.Certificate.GetByMentorshipID(ctx, mentorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		s.logger.Error("查询证书失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}
	return s.toCertificateResponse(ctx, cert, nil), nil
}

// VerifyCertificate 按证书编号核验，供外部查证真伪
func (s *evaluationService) VerifyCertificate(ctx context.Context, number string) (*dto.CertificateResponse, error) {
	cert, err := s.repo.Certificate.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		s.logger.Error("核验证书失败", zap.String("certificate_number", number), zap.Error(err))
		return nil, err
	}
	return s.toCertificateResponse(ctx, cert, nil), nil
}

// ── 内部辅助 ──

// buildCertificateNumber 证书编号：CERT-<年份>-<关系前缀>-<随机后缀>，全局唯一
func buildCertificateNumber(m *model.Mentorship) string {
	year := time.Now().Year()
	if m.CompletedAt != nil {
		year = m.CompletedAt.Year()
	}
	msPrefix := strings.ToUpper(strings.ReplaceAll(m.MentorshipID, "-", ""))
	if len(msPrefix) > 8 {
		msPrefix = msPrefix[:8]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("CERT-%d-%s-%s", year, msPrefix, suffix)
}

// ── 响应转换 ──

func toEvaluationResponse(e *model.Evaluation) *dto.EvaluationResponse {
	return &dto.EvaluationResponse{
		ID:                  e.EvaluationID,
		MentorshipID:        e.MentorshipID,
		Type:                e.Type,
		EvaluatorID:         e.EvaluatorID,
		IsMentor:            e.IsMentor,
		EngagementRating:    e.EngagementRating,
		SatisfactionRating:  e.SatisfactionRating,
		SkillGrowthRating:   e.SkillGrowthRating,
		CommunicationRating: e.CommunicationRating,
		Feedback:            e.Feedback,
		CreatedAt:           e.CreatedAt.Format(time.RFC3339),
	}
}

func (s *evaluationService) toCertificateResponse(ctx context.Context, cert *model.Certificate, mentorship *model.Mentorship) *dto.CertificateResponse {
	resp := &dto.CertificateResponse{
		ID:                cert.CertificateID,
		MentorshipID:      cert.MentorshipID,
		CertificateNumber: cert.CertificateNumber,
		IssuedAt:          cert.IssuedAt.Format(time.RFC3339),
	}
	if mentorship == nil {
		m, err := s.repo.Mentorship.GetByID(ctx, cert.MentorshipID)
		if err != nil {
			return resp
		}
		mentorship = m
	}
	mentorBrief := userBriefOf(mentorship.Mentor, mentorship.MentorID)
	menteeBrief := userBriefOf(mentorship.Mentee, mentorship.MenteeID)
	resp.Mentor = &mentorBrief
	resp.Mentee = &menteeBrief
	return resp
}
