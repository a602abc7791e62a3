package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"havia/backend/internal/model"
	pkgerrors "havia/backend/pkg/errors"
)

// ProgramRepository 周计划数据访问接口
type ProgramRepository interface {
	Create(ctx context.Context, program *model.Program) error
	GetByID(ctx context.Context, id string) (*model.Program, error)
	GetByMentorshipID(ctx context.Context, mentorshipID string) (*model.Program, error)
	// UpdateWeek 以乐观锁方式推进当前周与状态
	UpdateWeek(ctx context.Context, program *model.Program) error
}

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByMentorship(ctx context.Context, mentorshipID string) ([]model.Task, error)
	ListByMentorshipAndWeek(ctx context.Context, mentorshipID string, week int) ([]model.Task, error)
	// UpdateStatus 以乐观锁方式写回任务状态与完成时间
	UpdateStatus(ctx context.Context, task *model.Task) error
}

// ProgressRepository 每周进度快照数据访问接口
type ProgressRepository interface {
	// Upsert 按 (mentorship_id, week) 整行替换快照
	Upsert(ctx context.Context, progress *model.Progress) error
	GetByMentorshipAndWeek(ctx context.Context, mentorshipID string, week int) (*model.Progress, error)
	ListByMentorship(ctx context.Context, mentorshipID string) ([]model.Progress, error)
}

// ── Program Repository 实现 ──

type programRepo struct {
	db *gorm.DB
}

// NewProgramRepo 创建 ProgramRepository 实例
func NewProgramRepo(db *gorm.DB) ProgramRepository {
	return &programRepo{db: db}
}

func (r *programRepo) Create(ctx context.Context, program *model.Program) error {
	return r.db.WithContext(ctx).Create(program).Error
}

func (r *programRepo) GetByID(ctx context.Context, id string) (*model.Program, error) {
	var program model.Program
	err := r.db.WithContext(ctx).
		Where("program_id = ?", id).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepo) GetByMentorshipID(ctx context.Context, mentorshipID string) (*model.Program, error) {
	var program model.Program
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ?", mentorshipID).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *programRepo) UpdateWeek(ctx context.Context, program *model.Program) error {
	oldVersion := program.Version
	result := r.db.WithContext(ctx).
		Model(program).
		Where("program_id = ? AND version = ?", program.ProgramID, oldVersion).
		Updates(map[string]interface{}{
			"week":         program.Week,
			"status":       program.Status,
			"completed_at": program.CompletedAt,
			"updated_by":   program.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	program.Version = oldVersion + 1
	return nil
}

// ── Task Repository 实现 ──

type taskRepo struct {
	db *gorm.DB
}

// NewTaskRepo 创建 TaskRepository 实例
func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("task_id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepo) ListByMentorship(ctx context.Context, mentorshipID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ?", mentorshipID).
		Order("week ASC, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) ListByMentorshipAndWeek(ctx context.Context, mentorshipID string, week int) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ? AND week = ?", mentorshipID, week).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) UpdateStatus(ctx context.Context, task *model.Task) error {
	oldVersion := task.Version
	result := r.db.WithContext(ctx).
		Model(task).
		Where("task_id = ? AND version = ?", task.TaskID, oldVersion).
		Updates(map[string]interface{}{
			"status":       task.Status,
			"feedback":     task.Feedback,
			"completed_at": task.CompletedAt,
			"updated_by":   task.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	task.Version = oldVersion + 1
	return nil
}

// ── Progress Repository 实现 ──

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepo 创建 ProgressRepository 实例
func NewProgressRepo(db *gorm.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) Upsert(ctx context.Context, progress *model.Progress) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "mentorship_id"}, {Name: "week"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tasks_completed", "total_tasks", "engagement_score", "skill_improvement", "updated_at",
			}),
		}).
		Create(progress).Error
}

func (r *progressRepo) GetByMentorshipAndWeek(ctx context.Context, mentorshipID string, week int) (*model.Progress, error) {
	var progress model.Progress
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ? AND week = ?", mentorshipID, week).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepo) ListByMentorship(ctx context.Context, mentorshipID string) ([]model.Progress, error) {
	var snapshots []model.Progress
	err := r.db.WithContext(ctx).
		Where("mentorship_id = ?", mentorshipID).
		Order("week ASC").
		Find(&snapshots).Error
	return snapshots, err
}
