package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"havia/backend/internal/model"
	pkgerrors "havia/backend/pkg/errors"
)

// MentorshipRepository 辅导关系数据访问接口
//
// CreateWithProgram 在单个事务内实例化辅导关系与初始周计划；
// 同一匹配重复实例化由 match_id 唯一索引兜底（gorm.ErrDuplicatedKey）。
type MentorshipRepository interface {
	CreateWithProgram(ctx context.Context, mentorship *model.Mentorship, program *model.Program) error
	GetByID(ctx context.Context, id string) (*model.Mentorship, error)
	GetByMatchID(ctx context.Context, matchID string) (*model.Mentorship, error)
	ListByCycle(ctx context.Context, cycleID, status string) ([]model.Mentorship, error)
	ListByUser(ctx context.Context, userID, status string) ([]model.Mentorship, error)
	// UpdateStatus 以乐观锁方式推进状态并写回终态派生字段
	UpdateStatus(ctx context.Context, mentorship *model.Mentorship) error
	// TerminateReleasingCapacity 在单个事务内写终态并释放导师名额
	TerminateReleasingCapacity(ctx context.Context, mentorship *model.Mentorship) error
	IncrementSessions(ctx context.Context, id string) error
}

// ── Mentorship Repository 实现 ──

type mentorshipRepo struct {
	db *gorm.DB
}

// NewMentorshipRepo 创建 MentorshipRepository 实例
func NewMentorshipRepo(db *gorm.DB) MentorshipRepository {
	return &mentorshipRepo{db: db}
}

func (r *mentorshipRepo) CreateWithProgram(ctx context.Context, mentorship *model.Mentorship, program *model.Program) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mentorship).Error; err != nil {
			return err
		}
		program.MentorshipID = mentorship.MentorshipID
		return tx.Create(program).Error
	})
}

func (r *mentorshipRepo) GetByID(ctx context.Context, id string) (*model.Mentorship, error) {
	var mentorship model.Mentorship
	err := r.db.WithContext(ctx).
		Preload("Cycle").
		Preload("Mentor").
		Preload("Mentee").
		Where("mentorship_id = ?", id).
		First(&mentorship).Error
	if err != nil {
		return nil, err
	}
	return &mentorship, nil
}

func (r *mentorshipRepo) GetByMatchID(ctx context.Context, matchID string) (*model.Mentorship, error) {
	var mentorship model.Mentorship
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		First(&mentorship).Error
	if err != nil {
		return nil, err
	}
	return &mentorship, nil
}

func (r *mentorshipRepo) ListByCycle(ctx context.Context, cycleID, status string) ([]model.Mentorship, error) {
	q := r.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		Where("cycle_id = ?", cycleID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var mentorships []model.Mentorship
	err := q.Order("created_at ASC").Find(&mentorships).Error
	return mentorships, err
}

func (r *mentorshipRepo) ListByUser(ctx context.Context, userID, status string) ([]model.Mentorship, error) {
	q := r.db.WithContext(ctx).
		Preload("Cycle").
		Preload("Mentor").
		Preload("Mentee").
		Where("mentor_id = ? OR mentee_id = ?", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var mentorships []model.Mentorship
	err := q.Order("created_at DESC").Find(&mentorships).Error
	return mentorships, err
}

func (r *mentorshipRepo) terminalUpdates(mentorship *model.Mentorship, oldVersion int) map[string]interface{} {
	return map[string]interface{}{
		"status":             mentorship.Status,
		"sessions_completed": mentorship.SessionsCompleted,
		"engagement_score":   mentorship.EngagementScore,
		"satisfaction_score": mentorship.SatisfactionScore,
		"certificate_id":     mentorship.CertificateID,
		"cancel_reason":      mentorship.CancelReason,
		"started_at":         mentorship.StartedAt,
		"completed_at":       mentorship.CompletedAt,
		"updated_by":         mentorship.UpdatedBy,
		"version":            oldVersion + 1,
	}
}

func (r *mentorshipRepo) UpdateStatus(ctx context.Context, mentorship *model.Mentorship) error {
	oldVersion := mentorship.Version
	result := r.db.WithContext(ctx).
		Model(mentorship).
		Where("mentorship_id = ? AND version = ?", mentorship.MentorshipID, oldVersion).
		Updates(r.terminalUpdates(mentorship, oldVersion))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	mentorship.Version = oldVersion + 1
	return nil
}

func (r *mentorshipRepo) TerminateReleasingCapacity(ctx context.Context, mentorship *model.Mentorship) error {
	oldVersion := mentorship.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(mentorship).
			Where("mentorship_id = ? AND version = ?", mentorship.MentorshipID, oldVersion).
			Updates(r.terminalUpdates(mentorship, oldVersion))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}
		return tx.Model(&model.MentorProfile{}).
			Where("user_id = ? AND current_mentees > 0", mentorship.MentorID).
			UpdateColumn("current_mentees", gorm.Expr("current_mentees - 1")).Error
	})
	if err != nil {
		return err
	}
	mentorship.Version = oldVersion + 1
	return nil
}

func (r *mentorshipRepo) IncrementSessions(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Mentorship{}).
		Where("mentorship_id = ? AND status = ?", id, model.MentorshipActive).
		Updates(map[string]interface{}{
			"sessions_completed": gorm.Expr("sessions_completed + 1"),
			"updated_at":         time.Now(),
		}).Error
}
