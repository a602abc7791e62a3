package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 周期模块业务错误 ──

var (
	ErrCycleNotFound          = errors.New("辅导周期不存在")
	ErrCycleDateInvalid       = errors.New("周期结束日期必须晚于开始日期")
	ErrCycleInvalidTransition = errors.New("周期状态不允许该操作")
	ErrCycleNotActive         = errors.New("周期未处于进行中状态")
	ErrNoActiveCycle          = errors.New("当前没有进行中的辅导周期")
	ErrInterestNotFound       = errors.New("未登记参与意向")
	ErrInterestCycleClosed    = errors.New("该周期已结束，不可登记意向")
)

// CycleService 辅导周期业务接口
type CycleService interface {
	Create(ctx context.Context, req *dto.CreateCycleRequest, callerID string) (*dto.CycleResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CycleResponse, error)
	GetActive(ctx context.Context) (*dto.CycleResponse, error)
	List(ctx context.Context) ([]dto.CycleResponse, error)
	// Launch 启动周期（UPCOMING → ACTIVE），并通知所有已登记意向的用户
	Launch(ctx context.Context, id string, callerID string) (*dto.CycleResponse, error)
	// Complete 归档周期（ACTIVE → COMPLETED）
	Complete(ctx context.Context, id string, callerID string) (*dto.CycleResponse, error)
	RegisterInterest(ctx context.Context, cycleID, userID string, req *dto.RegisterInterestRequest) (*dto.InterestResponse, error)
	WithdrawInterest(ctx context.Context, cycleID, userID string) error
	ListInterests(ctx context.Context, cycleID, role string) ([]dto.InterestResponse, error)
}

type cycleService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewCycleService 创建 CycleService 实例
func NewCycleService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) CycleService {
	return &cycleService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *cycleService) Create(ctx context.Context, req *dto.CreateCycleRequest, callerID string) (*dto.CycleResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrCycleDateInvalid
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, ErrCycleDateInvalid
	}
	if !endDate.After(startDate) {
		return nil, ErrCycleDateInvalid
	}

	cycle := &model.Cycle{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    model.CycleUpcoming,
	}
	if req.MaxMentorships > 0 {
		cycle.MaxMentorships = req.MaxMentorships
	} else {
		cycle.MaxMentorships = 100
	}
	cycle.CreatedBy = &callerID
	cycle.UpdatedBy = &callerID

	if err := s.repo.Cycle.Create(ctx, cycle); err != nil {
		s.logger.Error("创建周期失败", zap.Error(err))
		return nil, err
	}
	return s.toCycleResponse(cycle), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *cycleService) GetByID(ctx context.Context, id string) (*dto.CycleResponse, error) {
	cycle, err := s.getCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toCycleResponse(cycle), nil
}

func (s *cycleService) GetActive(ctx context.Context) (*dto.CycleResponse, error) {
	cycle, err := s.repo.Cycle.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveCycle
		}
		s.logger.Error("查询进行中周期失败", zap.Error(err))
		return nil, err
	}
	return s.toCycleResponse(cycle), nil
}

func (s *cycleService) List(ctx context.Context) ([]dto.CycleResponse, error) {
	cycles, err := s.repo.Cycle.List(ctx)
	if err != nil {
		s.logger.Error("列出周期失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CycleResponse, 0, len(cycles))
	for i := range cycles {
		result = append(result, *s.toCycleResponse(&cycles[i]))
	}
	return result, nil
}

// ────────────────────── Launch ──────────────────────

func (s *cycleService) Launch(ctx context.Context, id string, callerID string) (*dto.CycleResponse, error) {
	cycle, err := s.getCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CycleCanTransition(cycle.Status, model.CycleActive) {
		return nil, ErrCycleInvalidTransition
	}

	cycle.Status = model.CycleActive
	cycle.UpdatedBy = &callerID
	if err := s.repo.Cycle.UpdateStatus(ctx, cycle); err != nil {
		s.logger.Error("启动周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 通知所有已登记意向的用户
	userIDs, err := s.repo.Interest.ListInterestedUserIDs(ctx, id)
	if err != nil {
		s.logger.Warn("查询意向用户失败，跳过启动通知", zap.Error(err))
	} else {
		s.notifier.Notify(userIDs, model.NotifCycleLaunched,
			"辅导周期已启动",
			fmt.Sprintf("周期「%s」已正式启动，匹配工作即将开始。", cycle.Name),
			"cycle", cycle.CycleID)
	}

	return s.toCycleResponse(cycle), nil
}

// ────────────────────── Complete ──────────────────────

func (s *cycleService) Complete(ctx context.Context, id string, callerID string) (*dto.CycleResponse, error) {
	cycle, err := s.getCycle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CycleCanTransition(cycle.Status, model.CycleCompleted) {
		return nil, ErrCycleInvalidTransition
	}

	cycle.Status = model.CycleCompleted
	cycle.UpdatedBy = &callerID
	if err := s.repo.Cycle.UpdateStatus(ctx, cycle); err != nil {
		s.logger.Error("归档周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toCycleResponse(cycle), nil
}

// ────────────────────── 参与意向 ──────────────────────

func (s *cycleService) RegisterInterest(ctx context.Context, cycleID, userID string, req *dto.RegisterInterestRequest) (*dto.InterestResponse, error) {
	cycle, err := s.getCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.Status == model.CycleCompleted {
		return nil, ErrInterestCycleClosed
	}

	interest := &model.Interest{
		CycleID: cycleID,
		UserID:  userID,
		Role:    req.Role,
		Status:  model.InterestInterested,
	}
	interest.CreatedBy = &userID
	interest.UpdatedBy = &userID

	if err := s.repo.Interest.Upsert(ctx, interest); err != nil {
		s.logger.Error("登记意向失败", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, err
	}
	return s.toInterestResponse(interest), nil
}

func (s *cycleService) WithdrawInterest(ctx context.Context, cycleID, userID string) error {
	interest, err := s.repo.Interest.GetByCycleAndUser(ctx, cycleID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInterestNotFound
		}
		s.logger.Error("查询意向失败", zap.Error(err))
		return err
	}

	interest.Status = model.InterestWithdrawn
	interest.UpdatedBy = &userID
	if err := s.repo.Interest.Upsert(ctx, interest); err != nil {
		s.logger.Error("撤回意向失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *cycleService) ListInterests(ctx context.Context, cycleID, role string) ([]dto.InterestResponse, error) {
	if _, err := s.getCycle(ctx, cycleID); err != nil {
		return nil, err
	}
	interests, err := s.repo.Interest.ListByCycleAndRole(ctx, cycleID, role)
	if err != nil {
		s.logger.Error("查询意向列表失败", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.InterestResponse, 0, len(interests))
	for i := range interests {
		result = append(result, *s.toInterestResponse(&interests[i]))
	}
	return result, nil
}

// ── 辅助 ──

func (s *cycleService) getCycle(ctx context.Context, id string) (*model.Cycle, error) {
	cycle, err := s.repo.Cycle.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("查询周期失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return cycle, nil
}

func (s *cycleService) toCycleResponse(c *model.Cycle) *dto.CycleResponse {
	return &dto.CycleResponse{
		ID:             c.CycleID,
		Name:           c.Name,
		StartDate:      c.StartDate.Format("2006-01-02"),
		EndDate:        c.EndDate.Format("2006-01-02"),
		Status:         c.Status,
		MaxMentorships: c.MaxMentorships,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *cycleService) toInterestResponse(i *model.Interest) *dto.InterestResponse {
	resp := &dto.InterestResponse{
		ID:        i.InterestID,
		CycleID:   i.CycleID,
		Role:      i.Role,
		Status:    i.Status,
		CreatedAt: i.CreatedAt.Format(time.RFC3339),
	}
	if i.User != nil {
		resp.User = &dto.UserBrief{ID: i.User.UserID, Name: i.User.Name, Email: i.User.Email}
	}
	return resp
}
