package repository

import (
	"context"

	"gorm.io/gorm"

	"havia/backend/internal/model"
	pkgerrors "havia/backend/pkg/errors"
)

// MentorProfileRepository 导师档案数据访问接口
//
// ReserveCapacity / ReleaseCapacity 以条件 UPDATE 实现容量占用，
// 与匹配创建处于同一事务（见 MatchRepository），保证
// 0 <= current_mentees <= max_mentees 在任何并发下成立。
type MentorProfileRepository interface {
	Upsert(ctx context.Context, profile *model.MentorProfile) error
	GetByUserID(ctx context.Context, userID string) (*model.MentorProfile, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]model.MentorProfile, error)
	ListEligible(ctx context.Context, verifiedOnly bool) ([]model.MentorProfile, error)
	// ReserveCapacity 占用一个带教名额；名额已满时返回 ErrCapacityExceeded
	ReserveCapacity(ctx context.Context, userID string) error
	// ReleaseCapacity 释放一个带教名额；计数为 0 时为 no-op
	ReleaseCapacity(ctx context.Context, userID string) error
}

// MenteeProfileRepository 学员档案数据访问接口
type MenteeProfileRepository interface {
	Upsert(ctx context.Context, profile *model.MenteeProfile) error
	GetByUserID(ctx context.Context, userID string) (*model.MenteeProfile, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]model.MenteeProfile, error)
}

// AvailabilitySlotRepository 每周可用时间段数据访问接口
type AvailabilitySlotRepository interface {
	Create(ctx context.Context, slot *model.AvailabilitySlot) error
	BatchCreate(ctx context.Context, slots []model.AvailabilitySlot) error
	ListByUser(ctx context.Context, userID string) ([]model.AvailabilitySlot, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]model.AvailabilitySlot, error)
	Delete(ctx context.Context, slotID, userID string) error
	// DeleteBySource 删除某用户某来源的全部时段（ICS 重新导入前清理）
	DeleteBySource(ctx context.Context, userID, source string) error
}

// ── MentorProfile Repository 实现 ──

type mentorProfileRepo struct {
	db *gorm.DB
}

// NewMentorProfileRepo 创建 MentorProfileRepository 实例
func NewMentorProfileRepo(db *gorm.DB) MentorProfileRepository {
	return &mentorProfileRepo{db: db}
}

func (r *mentorProfileRepo) Upsert(ctx context.Context, profile *model.MentorProfile) error {
	var existing model.MentorProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", profile.UserID).
		First(&existing).Error
	if err == nil {
		// current_mentees 只能经由 Reserve/Release 变更，不随档案更新
		return r.db.WithContext(ctx).
			Model(&existing).
			Updates(map[string]interface{}{
				"max_mentees":     profile.MaxMentees,
				"themes":          profile.Themes,
				"industry":        profile.Industry,
				"company":         profile.Company,
				"mentoring_style": profile.MentoringStyle,
				"preferences":     profile.Preferences,
				"is_verified":     profile.IsVerified,
				"is_active":       profile.IsActive,
				"updated_by":      profile.UpdatedBy,
			}).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *mentorProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.MentorProfile, error) {
	var profile model.MentorProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Slots").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *mentorProfileRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]model.MentorProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var profiles []model.MentorProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Slots").
		Where("user_id IN ?", userIDs).
		Find(&profiles).Error
	return profiles, err
}

func (r *mentorProfileRepo) ListEligible(ctx context.Context, verifiedOnly bool) ([]model.MentorProfile, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Slots").
		Where("is_active = ? AND current_mentees < max_mentees", true)
	if verifiedOnly {
		q = q.Where("is_verified = ?", true)
	}
	var profiles []model.MentorProfile
	err := q.Order("created_at ASC").Find(&profiles).Error
	return profiles, err
}

func (r *mentorProfileRepo) ReserveCapacity(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.MentorProfile{}).
		Where("user_id = ? AND current_mentees < max_mentees", userID).
		UpdateColumn("current_mentees", gorm.Expr("current_mentees + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrCapacityExceeded
	}
	return nil
}

func (r *mentorProfileRepo) ReleaseCapacity(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&model.MentorProfile{}).
		Where("user_id = ? AND current_mentees > 0", userID).
		UpdateColumn("current_mentees", gorm.Expr("current_mentees - 1")).Error
}

// ── MenteeProfile Repository 实现 ──

type menteeProfileRepo struct {
	db *gorm.DB
}

// NewMenteeProfileRepo 创建 MenteeProfileRepository 实例
func NewMenteeProfileRepo(db *gorm.DB) MenteeProfileRepository {
	return &menteeProfileRepo{db: db}
}

func (r *menteeProfileRepo) Upsert(ctx context.Context, profile *model.MenteeProfile) error {
	var existing model.MenteeProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", profile.UserID).
		First(&existing).Error
	if err == nil {
		return r.db.WithContext(ctx).
			Model(&existing).
			Updates(map[string]interface{}{
				"field_of_interest": profile.FieldOfInterest,
				"skills":            profile.Skills,
				"goals":             profile.Goals,
				"experience_level":  profile.ExperienceLevel,
				"preferred_style":   profile.PreferredStyle,
				"preferences":       profile.Preferences,
				"commitment_agreed": profile.CommitmentAgreed,
				"updated_by":        profile.UpdatedBy,
			}).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *menteeProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.MenteeProfile, error) {
	var profile model.MenteeProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Slots").
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *menteeProfileRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]model.MenteeProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var profiles []model.MenteeProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Slots").
		Where("user_id IN ?", userIDs).
		Find(&profiles).Error
	return profiles, err
}

// ── AvailabilitySlot Repository 实现 ──

type availabilitySlotRepo struct {
	db *gorm.DB
}

// NewAvailabilitySlotRepo 创建 AvailabilitySlotRepository 实例
func NewAvailabilitySlotRepo(db *gorm.DB) AvailabilitySlotRepository {
	return &availabilitySlotRepo{db: db}
}

func (r *availabilitySlotRepo) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *availabilitySlotRepo) BatchCreate(ctx context.Context, slots []model.AvailabilitySlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *availabilitySlotRepo) ListByUser(ctx context.Context, userID string) ([]model.AvailabilitySlot, error) {
	var slots []model.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *availabilitySlotRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]model.AvailabilitySlot, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var slots []model.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&slots).Error
	return slots, err
}

func (r *availabilitySlotRepo) Delete(ctx context.Context, slotID, userID string) error {
	return r.db.WithContext(ctx).
		Where("slot_id = ? AND user_id = ?", slotID, userID).
		Delete(&model.AvailabilitySlot{}).Error
}

func (r *availabilitySlotRepo) DeleteBySource(ctx context.Context, userID, source string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND source = ?", userID, source).
		Delete(&model.AvailabilitySlot{}).Error
}
