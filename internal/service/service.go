package service

import (
	"go.uber.org/zap"

	"havia/backend/config"
	"havia/backend/internal/repository"
	"havia/backend/pkg/jwt"
	"havia/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Cycle        CycleService
	Profile      ProfileService
	Matching     MatchingService
	Mentorship   MentorshipService
	Program      ProgramService
	Evaluation   EvaluationService
	Analytics    AnalyticsService
	Export       ExportService
	Notification NotificationService
	SystemConfig SystemConfigService
}

// NewService 创建 Service 聚合
//
// Notification 持有后台投递协程，进程退出前需调用其 Shutdown 排空队列。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	notifier := NewNotificationService(repo, logger, cfg.Mentorship.NotificationQueue)
	analytics := NewAnalyticsService(cfg, repo, rdb, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Cycle:        NewCycleService(repo, notifier, logger),
		Profile:      NewProfileService(repo, logger),
		Matching:     NewMatchingService(cfg, repo, notifier, logger),
		Mentorship:   NewMentorshipService(repo, notifier, logger),
		Program:      NewProgramService(repo, notifier, logger),
		Evaluation:   NewEvaluationService(repo, notifier, logger),
		Analytics:    analytics,
		Export:       NewExportService(repo, analytics, logger),
		Notification: notifier,
		SystemConfig: NewSystemConfigService(repo, logger),
	}
}
