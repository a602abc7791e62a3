package repository

import (
	"context"

	"gorm.io/gorm"

	"havia/backend/internal/model"
)

// EvaluationRepository 评价数据访问接口
// 重复提交由 (mentorship_id, type, evaluator_id) 唯一索引兜底。
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *model.Evaluation) error
	GetByID(ctx context.Context, id string) (*model.Evaluation, error)
	ListByMentorship(ctx context.Context, mentorshipID string) ([]model.Evaluation, error)
	ListByMentorshipAndType(ctx context.Context, mentorshipID, evalType string) ([]model.Evaluation, error)
	Exists(ctx context.Context, mentorshipID, evalType, evaluatorID string) (bool, error)
}

// CertificateRepository 结业证书数据访问接口
type CertificateRepository interface {
	// CreateLinking 在单个事务内签发证书并回写辅导关系的 certificate_id
	CreateLinking(ctx context.Context, cert *model.Certificate) error
	GetByID(ctx context.Context, id string) (*model.Certificate, error)
	GetByMentorshipID(ctx context.Context, mentorshipID string) (*model.Certificate, error)
	GetByNumber(ctx context.Context, number string) (*model.Certificate, error)
}

// ── Evaluation Repository 实现 ──

type evaluationRepo struct {
	db *gorm.DB
}

// NewEvaluationRepo 创建 EvaluationRepository 实例
func NewEvaluationRepo(db *gorm.DB) EvaluationRepository {
	return &evaluationRepo{db: db}
}

func (r *evaluationRepo) Create(ctx context.Context, evaluation *model.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepo) GetByID(ctx context.Context, id string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", id).
		First(&evaluation).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepo) ListByMentorship(ctx context.Context, mentorshipID string) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ?", mentorshipID).
		Order("created_at ASC").
		Find(&evaluations).Error
	return evaluations, err
}

func (r *evaluationRepo) ListByMentorshipAndType(ctx context.Context, mentorshipID, evalType string) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ? AND type = ?", mentorshipID, evalType).
		Order("created_at ASC").
		Find(&evaluations).Error
	return evaluations, err
}

func (r *evaluationRepo) Exists(ctx context.Context, mentorshipID, evalType, evaluatorID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Evaluation{}).
		Where("mentorship_id = ? AND type = ? AND evaluator_id = ?", mentorshipID, evalType, evaluatorID).
		Count(&count).Error
	return count > 0, err
}

// ── Certificate Repository 实现 ──

type certificateRepo struct {
	db *gorm.DB
}

// NewCertificateRepo 创建 CertificateRepository 实例
func NewCertificateRepo(db *gorm.DB) CertificateRepository {
	return &certificateRepo{db: db}
}

func (r *certificateRepo) CreateLinking(ctx context.Context, cert *model.Certificate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cert).Error; err != nil {
			return err
		}
		return tx.Model(&model.Mentorship{}).
			Where("mentorship_id = ?", cert.MentorshipID).
			UpdateColumn("certificate_id", cert.CertificateID).Error
	})
}

func (r *certificateRepo) GetByID(ctx context.Context, id string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Where("certificate_id = ?", id).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) GetByMentorshipID(ctx context.Context, mentorshipID string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ?", mentorshipID).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) GetByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Where("certificate_number = ?", number).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
