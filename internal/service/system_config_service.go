package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// SystemConfigService 系统配置业务接口（单行配置，仅管理员可改）
type SystemConfigService interface {
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, actorID string) (*dto.SystemConfigResponse, error)
}

type systemConfigService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemConfigService 创建 SystemConfigService 实例
func NewSystemConfigService(repo *repository.Repository, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{repo: repo, logger: logger}
}

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	config, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}
	return toSystemConfigResponse(config), nil
}

// Update 仅更新请求中出现的字段，未出现的保持原值
func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, actorID string) (*dto.SystemConfigResponse, error) {
	config, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}

	if req.DefaultMinScore != nil {
		config.DefaultMinScore = *req.DefaultMinScore
	}
	if req.DefaultProgramWeeks != nil {
		config.DefaultProgramWeeks = *req.DefaultProgramWeeks
	}
	if req.AutoApproveDefault != nil {
		config.AutoApproveDefault = *req.AutoApproveDefault
	}
	if req.NotificationsEnabled != nil {
		config.NotificationsEnabled = *req.NotificationsEnabled
	}
	config.UpdatedAt = time.Now()
	config.UpdatedBy = &actorID

	if err := s.repo.SystemConfig.Update(ctx, config); err != nil {
		s.logger.Error("更新系统配置失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("系统配置已更新",
		zap.Int("default_min_score", config.DefaultMinScore),
		zap.Int("default_program_weeks", config.DefaultProgramWeeks),
		zap.Bool("auto_approve_default", config.AutoApproveDefault),
		zap.Bool("notifications_enabled", config.NotificationsEnabled),
		zap.String("updated_by", actorID))
	return toSystemConfigResponse(config), nil
}

func toSystemConfigResponse(c *model.SystemConfig) *dto.SystemConfigResponse {
	return &dto.SystemConfigResponse{
		DefaultMinScore:      c.DefaultMinScore,
		DefaultProgramWeeks:  c.DefaultProgramWeeks,
		AutoApproveDefault:   c.AutoApproveDefault,
		NotificationsEnabled: c.NotificationsEnabled,
		UpdatedAt:            c.UpdatedAt.Format(time.RFC3339),
	}
}
