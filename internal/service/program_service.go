package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 周计划模块业务错误 ──

var (
	ErrProgramNotFound         = errors.New("周计划不存在")
	ErrProgramCompleted        = errors.New("周计划已完成，不可再推进")
	ErrTaskNotFound            = errors.New("任务不存在")
	ErrTaskInvalidTransition   = errors.New("任务状态不允许该操作")
	ErrTaskTypeInvalid         = errors.New("任务类型无效")
	ErrTaskWeekOutOfRange      = errors.New("任务周次超出计划范围")
	ErrProgressWeekOutOfRange  = errors.New("进度周次超出计划范围")
	ErrProgramMentorshipClosed = errors.New("辅导关系已结束，不可操作周计划")
)

// 每周标准任务集：推进到新的一周时自动生成
var weeklyTaskTemplates = []struct {
	taskType string
	title    string
}{
	{model.TaskTypeLearning, "第 %d 周：学习本周主题材料"},
	{model.TaskTypePractice, "第 %d 周：完成实践练习"},
	{model.TaskTypeReflection, "第 %d 周：撰写学习反思"},
}

// createWeeklyTaskSet 为指定周生成标准任务集；首周在辅导关系实例化时生成
func createWeeklyTaskSet(ctx context.Context, taskRepo repository.TaskRepository, mentorshipID, programID string, week int, actorID string) error {
	for _, tpl := range weeklyTaskTemplates {
		task := &model.Task{
			MentorshipID: mentorshipID,
			ProgramID:    programID,
			Week:         week,
			Type:         tpl.taskType,
			Title:        fmt.Sprintf(tpl.title, week),
			Status:       model.TaskPending,
		}
		task.CreatedBy = &actorID
		task.UpdatedBy = &actorID
		if err := taskRepo.Create(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// ProgramService 周计划与任务业务接口
type ProgramService interface {
	GetByMentorship(ctx context.Context, mentorshipID string) (*dto.ProgramResponse, error)
	// AdvanceWeek 推进一周：已完成计划 no-op，推进后生成新一周标准任务集
	AdvanceWeek(ctx context.Context, mentorshipID, actorID string) (*dto.ProgramResponse, error)
	// CompleteProgram 提前结束周计划
	CompleteProgram(ctx context.Context, mentorshipID, actorID string) (*dto.ProgramResponse, error)
	CreateTask(ctx context.Context, mentorshipID string, req *dto.CreateTaskRequest, actorID string) (*dto.TaskResponse, error)
	StartTask(ctx context.Context, taskID, actorID string) (*dto.TaskResponse, error)
	// CompleteTask 完成任务；已完成的任务重复调用幂等返回
	CompleteTask(ctx context.Context, taskID string, req *dto.UpdateTaskStatusRequest, actorID string) (*dto.TaskResponse, error)
	ListTasks(ctx context.Context, mentorshipID string, week int) ([]dto.TaskResponse, error)
	// RecomputeProgress 重算某周进度快照；任意次调用结果一致
	RecomputeProgress(ctx context.Context, mentorshipID string, week int) (*dto.ProgressResponse, error)
	ListProgress(ctx context.Context, mentorshipID string) ([]dto.ProgressResponse, error)
}

type programService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewProgramService 创建 ProgramService 实例
func NewProgramService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) ProgramService {
	return &programService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── 查询 ──────────────────────

func (s *programService) GetByMentorship(ctx context.Context, mentorshipID string) (*dto.ProgramResponse, error) {
	program, err := s.getProgram(ctx, mentorshipID)
	if err != nil {
		return nil, err
	}
	return toProgramResponse(program), nil
}

// ────────────────────── AdvanceWeek ──────────────────────

func (s *programService) AdvanceWeek(ctx context.Context, mentorshipID, actorID string) (*dto.ProgramResponse, error) {
	mentorship, program, err := s.getActivePair(ctx, mentorshipID)
	if err != nil {
		return nil, err
	}
	if program.Status == model.ProgramCompleted {
		// no-op：已完成的计划不再推进
		return toProgramResponse(program), nil
	}

	program.Week++
	program.UpdatedBy = &actorID
	if program.Week > program.TotalWeeks {
		now := time.Now()
		program.Week = program.TotalWeeks
		program.Status = model.ProgramCompleted
		program.CompletedAt = &now
		if err := s.repo.Program.UpdateWeek(ctx, program); err != nil {
			s.logger.Error("收尾周计划失败", zap.String("program_id", program.ProgramID), zap.Error(err))
			return nil, err
		}
		return toProgramResponse(program), nil
	}

	if err := s.repo.Program.UpdateWeek(ctx, program); err != nil {
		s.logger.Error("推进周计划失败", zap.String("program_id", program.ProgramID), zap.Error(err))
		return nil, err
	}

	// 新一周的标准任务集
	if err := createWeeklyTaskSet(ctx, s.repo.Task, mentorshipID, program.ProgramID, program.Week, actorID); err != nil {
		s.logger.Error("生成标准任务失败", zap.Int("week", program.Week), zap.Error(err))
		return nil, err
	}

	s.notifier.Notify([]string{mentorship.MentorID, mentorship.MenteeID}, model.NotifWeekAdvanced,
		"进入新的一周",
		fmt.Sprintf("辅导计划已进入第 %d 周（共 %d 周），本周标准任务已生成。", program.Week, program.TotalWeeks),
		"program", program.ProgramID)

	return toProgramResponse(program), nil
}

// ────────────────────── CompleteProgram ──────────────────────

func (s *programService) CompleteProgram(ctx context.Context, mentorshipID, actorID string) (*dto.ProgramResponse, error) {
	program, err := s.getProgram(ctx, mentorshipID)
	if err != nil {
		return nil, err
	}
	if !model.ProgramCanTransition(program.Status, model.ProgramCompleted) {
		return nil, ErrProgramCompleted
	}

	now := time.Now()
	program.Status = model.ProgramCompleted
	program.CompletedAt = &now
	program.UpdatedBy = &actorID
	if err := s.repo.Program.UpdateWeek(ctx, program); err != nil {
		s.logger.Error("完成周计划失败", zap.String("program_id", program.ProgramID), zap.Error(err))
		return nil, err
	}
	return toProgramResponse(program), nil
}

// ────────────────────── 任务 ──────────────────────

func (s *programService) CreateTask(ctx context.Context, mentorshipID string, req *dto.CreateTaskRequest, actorID string) (*dto.TaskResponse, error) {
	_, program, err := s.getActivePair(ctx, mentorshipID)
	if err != nil {
		return nil, err
	}
	if !model.ValidTaskType(req.Type) {
		return nil, ErrTaskTypeInvalid
	}

	week := req.Week
	if week == 0 {
		week = program.Week
	}
	if week < 1 || week > program.TotalWeeks {
		return nil, ErrTaskWeekOutOfRange
	}

	task := &model.Task{
		MentorshipID: mentorshipID,
		ProgramID:    program.ProgramID,
		Week:         week,
		Type:         req.Type,
		Title:        req.Title,
		Status:       model.TaskPending,
	}
	task.CreatedBy = &actorID
	task.UpdatedBy = &actorID

	if err := s.repo.Task.Create(ctx, task); err != nil {
		s.logger.Error("创建任务失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}
	return toTaskResponse(task), nil
}

func (s *programService) StartTask(ctx context.Context, taskID, actorID string) (*dto.TaskResponse, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !model.TaskCanTransition(task.Status, model.TaskInProgress) {
		return nil, ErrTaskInvalidTransition
	}

	task.Status = model.TaskInProgress
	task.UpdatedBy = &actorID
	if err := s.repo.Task.UpdateStatus(ctx, task); err != nil {
		s.logger.Error("开始任务失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return toTaskResponse(task), nil
}

func (s *programService) CompleteTask(ctx context.Context, taskID string, req *dto.UpdateTaskStatusRequest, actorID string) (*dto.TaskResponse, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == model.TaskCompleted {
		// 幂等：重复完成直接返回，completed_at 不变
		return toTaskResponse(task), nil
	}
	if !model.TaskCanTransition(task.Status, model.TaskCompleted) {
		return nil, ErrTaskInvalidTransition
	}

	now := time.Now()
	task.Status = model.TaskCompleted
	task.CompletedAt = &now
	if req.Feedback != "" {
		task.Feedback = req.Feedback
	}
	task.UpdatedBy = &actorID
	if err := s.repo.Task.UpdateStatus(ctx, task); err != nil {
		s.logger.Error("完成任务失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	// 快照重算失败仅告警，任务完成本身已提交
	if _, err := s.RecomputeProgress(ctx, task.MentorshipID, task.Week); err != nil {
		s.logger.Warn("任务完成后重算进度失败",
			zap.String("mentorship_id", task.MentorshipID), zap.Int("week", task.Week), zap.Error(err))
	}

	if mentorship, err := s.repo.Mentorship.GetByID(ctx, task.MentorshipID); err == nil {
		s.notifier.Notify([]string{mentorship.MentorID}, model.NotifTaskCompleted,
			"任务已完成",
			fmt.Sprintf("任务「%s」已完成。", task.Title),
			"task", task.TaskID)
	}

	return toTaskResponse(task), nil
}

func (s *programService) ListTasks(ctx context.Context, mentorshipID string, week int) ([]dto.TaskResponse, error) {
	var (
		tasks []model.Task
		err   error
	)
	if week > 0 {
		tasks, err = s.repo.Task.ListByMentorshipAndWeek(ctx, mentorshipID, week)
	} else {
		tasks, err = s.repo.Task.ListByMentorship(ctx, mentorshipID)
	}
	if err != nil {
		s.logger.Error("查询任务列表失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, *toTaskResponse(&tasks[i]))
	}
	return result, nil
}

// ────────────────────── 进度快照 ──────────────────────

func (s *programService) RecomputeProgress(ctx context.Context, mentorshipID string, week int) (*dto.ProgressResponse, error) {
	program, err := s.getProgram(ctx, mentorshipID)
	if err != nil {
		return nil, err
	}
	if week < 1 || week > program.TotalWeeks {
		return nil, ErrProgressWeekOutOfRange
	}

	tasks, err := s.repo.Task.ListByMentorshipAndWeek(ctx, mentorshipID, week)
	if err != nil {
		s.logger.Error("查询周任务失败", zap.Error(err))
		return nil, err
	}

	completed, practiceTotal, practiceDone := 0, 0, 0
	for i := range tasks {
		if tasks[i].Status == model.TaskCompleted {
			completed++
		}
		if tasks[i].Type == model.TaskTypePractice {
			practiceTotal++
			if tasks[i].Status == model.TaskCompleted {
				practiceDone++
			}
		}
	}

	// 派生指标均为任务状态的确定性函数，保证重算幂等
	engagement, improvement := 0.0, 0.0
	if len(tasks) > 0 {
		engagement = round2(100 * float64(completed) / float64(len(tasks)))
	}
	if practiceTotal > 0 {
		improvement = round2(100 * float64(practiceDone) / float64(practiceTotal))
	}

	progress := &model.Progress{
		MentorshipID:     mentorshipID,
		ProgramID:        program.ProgramID,
		Week:             week,
		TasksCompleted:   completed,
		TotalTasks:       len(tasks),
		EngagementScore:  engagement,
		SkillImprovement: improvement,
	}
	if err := s.repo.Progress.Upsert(ctx, progress); err != nil {
		s.logger.Error("写入进度快照失败", zap.Error(err))
		return nil, err
	}
	return toProgressResponse(progress), nil
}

func (s *programService) ListProgress(ctx context.Context, mentorshipID string) ([]dto.ProgressResponse, error) {
	snapshots, err := s.repo.Progress.ListByMentorship(ctx, mentorshipID)
	if err != nil {
		s.logger.Error("查询进度快照失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ProgressResponse, 0, len(snapshots))
	for i := range snapshots {
		result = append(result, *toProgressResponse(&snapshots[i]))
	}
	return result, nil
}

// ── 内部辅助 ──

func (s *programService) getProgram(ctx context.Context, mentorshipID string) (*model.Program, error) {
	program, err := s.repo.Program.GetByMentorshipID(ctx, mentorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		s.logger.Error("查询周计划失败", zap.String("mentorship_id", mentorshipID), zap.Error(err))
		return nil, err
	}
	return program, nil
}

// getActivePair 返回进行中的辅导关系与其周计划；关系已终止则拒绝
func (s *programService) getActivePair(ctx context.Context, mentorshipID string) (*model.Mentorship, *model.Program, error) {
	mentorship, err := s.repo.Mentorship.GetByID(ctx, mentorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrMentorshipNotFound
		}
		s.logger.Error("查询辅导关系失败", zap.Error(err))
		return nil, nil, err
	}
	if mentorship.IsTerminal() {
		return nil, nil, ErrProgramMentorshipClosed
	}
	program, err := s.getProgram(ctx, mentorshipID)
	if err != nil {
		return nil, nil, err
	}
	return mentorship, program, nil
}

func (s *programService) getTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.repo.Task.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("查询任务失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return task, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ── 响应转换 ──

func toProgramResponse(p *model.Program) *dto.ProgramResponse {
	resp := &dto.ProgramResponse{
		ID:           p.ProgramID,
		MentorshipID: p.MentorshipID,
		CycleID:      p.CycleID,
		Week:         p.Week,
		TotalWeeks:   p.TotalWeeks,
		Status:       p.Status,
		StartedAt:    p.StartedAt.Format(time.RFC3339),
	}
	if p.CompletedAt != nil {
		completed := p.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}

func toTaskResponse(t *model.Task) *dto.TaskResponse {
	resp := &dto.TaskResponse{
		ID:           t.TaskID,
		MentorshipID: t.MentorshipID,
		ProgramID:    t.ProgramID,
		Week:         t.Week,
		Type:         t.Type,
		Title:        t.Title,
		Status:       t.Status,
		Feedback:     t.Feedback,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		completed := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}

func toProgressResponse(p *model.Progress) *dto.ProgressResponse {
	rate := 0.0
	if p.TotalTasks > 0 {
		rate = round2(float64(p.TasksCompleted) / float64(p.TotalTasks))
	}
	return &dto.ProgressResponse{
		ID:               p.ProgressID,
		MentorshipID:     p.MentorshipID,
		Week:             p.Week,
		TasksCompleted:   p.TasksCompleted,
		TotalTasks:       p.TotalTasks,
		CompletionRate:   rate,
		EngagementScore:  p.EngagementScore,
		SkillImprovement: p.SkillImprovement,
	}
}
