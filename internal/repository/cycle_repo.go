package repository

import (
	"context"

	"gorm.io/gorm"

	"havia/backend/internal/model"
	pkgerrors "havia/backend/pkg/errors"
)

// CycleRepository 辅导周期数据访问接口
type CycleRepository interface {
	Create(ctx context.Context, cycle *model.Cycle) error
	GetByID(ctx context.Context, id string) (*model.Cycle, error)
	List(ctx context.Context) ([]model.Cycle, error)
	GetActive(ctx context.Context) (*model.Cycle, error)
	// UpdateStatus 以乐观锁方式推进周期状态
	UpdateStatus(ctx context.Context, cycle *model.Cycle) error
	// CountMentorships 统计周期内非取消的辅导关系数（容量上限校验用）
	CountMentorships(ctx context.Context, cycleID string) (int64, error)
}

// InterestRepository 参与意向数据访问接口
type InterestRepository interface {
	Upsert(ctx context.Context, interest *model.Interest) error
	GetByCycleAndUser(ctx context.Context, cycleID, userID string) (*model.Interest, error)
	ListByCycleAndRole(ctx context.Context, cycleID, role string) ([]model.Interest, error)
	ListInterestedUserIDs(ctx context.Context, cycleID string) ([]string, error)
}

// ── Cycle Repository 实现 ──

type cycleRepo struct {
	db *gorm.DB
}

// NewCycleRepo 创建 CycleRepository 实例
func NewCycleRepo(db *gorm.DB) CycleRepository {
	return &cycleRepo{db: db}
}

func (r *cycleRepo) Create(ctx context.Context, cycle *model.Cycle) error {
	return r.db.WithContext(ctx).Create(cycle).Error
}

func (r *cycleRepo) GetByID(ctx context.Context, id string) (*model.Cycle, error) {
	var cycle model.Cycle
	err := r.db.WithContext(ctx).
		Where("cycle_id = ?", id).
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *cycleRepo) List(ctx context.Context) ([]model.Cycle, error) {
	var cycles []model.Cycle
	err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&cycles).Error
	return cycles, err
}

func (r *cycleRepo) GetActive(ctx context.Context) (*model.Cycle, error) {
	var cycle model.Cycle
	err := r.db.WithContext(ctx).
		Where("status = ?", model.CycleActive).
		Order("start_date DESC").
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *cycleRepo) UpdateStatus(ctx context.Context, cycle *model.Cycle) error {
	oldVersion := cycle.Version
	result := r.db.WithContext(ctx).
		Model(cycle).
		Where("cycle_id = ? AND version = ?", cycle.CycleID, oldVersion).
		Updates(map[string]interface{}{
			"status":     cycle.Status,
			"updated_by": cycle.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	cycle.Version = oldVersion + 1
	return nil
}

func (r *cycleRepo) CountMentorships(ctx context.Context, cycleID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Mentorship{}).
		Where("cycle_id = ? AND status <> ?", cycleID, model.MentorshipCancelled).
		Count(&count).Error
	return count, err
}

// ── Interest Repository 实现 ──

type interestRepo struct {
	db *gorm.DB
}

// NewInterestRepo 创建 InterestRepository 实例
func NewInterestRepo(db *gorm.DB) InterestRepository {
	return &interestRepo{db: db}
}

// Upsert 登记参与意向；同一 (cycle, user) 已存在时更新角色与状态
func (r *interestRepo) Upsert(ctx context.Context, interest *model.Interest) error {
	var existing model.Interest
	err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND user_id = ?", interest.CycleID, interest.UserID).
		First(&existing).Error
	if err == nil {
		return r.db.WithContext(ctx).
			Model(&existing).
			Updates(map[string]interface{}{
				"role":       interest.Role,
				"status":     interest.Status,
				"updated_by": interest.UpdatedBy,
			}).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(interest).Error
}

func (r *interestRepo) GetByCycleAndUser(ctx context.Context, cycleID, userID string) (*model.Interest, error) {
	var interest model.Interest
	err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND user_id = ?", cycleID, userID).
		First(&interest).Error
	if err != nil {
		return nil, err
	}
	return &interest, nil
}

func (r *interestRepo) ListByCycleAndRole(ctx context.Context, cycleID, role string) ([]model.Interest, error) {
	var interests []model.Interest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("cycle_id = ? AND role = ? AND status = ?", cycleID, role, model.InterestInterested).
		Order("created_at ASC").
		Find(&interests).Error
	return interests, err
}

func (r *interestRepo) ListInterestedUserIDs(ctx context.Context, cycleID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Interest{}).
		Where("cycle_id = ? AND status = ?", cycleID, model.InterestInterested).
		Pluck("user_id", &ids).Error
	return ids, err
}
