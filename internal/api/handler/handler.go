package handler

import "havia/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Cycle        *CycleHandler
	Profile      *ProfileHandler
	Matching     *MatchingHandler
	Mentorship   *MentorshipHandler
	Program      *ProgramHandler
	Evaluation   *EvaluationHandler
	Notification *NotificationHandler
	Analytics    *AnalyticsHandler
	SystemConfig *SystemConfigHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Cycle:        NewCycleHandler(svc.Cycle),
		Profile:      NewProfileHandler(svc.Profile),
		Matching:     NewMatchingHandler(svc.Matching),
		Mentorship:   NewMentorshipHandler(svc.Mentorship),
		Program:      NewProgramHandler(svc.Program),
		Evaluation:   NewEvaluationHandler(svc.Evaluation),
		Notification: NewNotificationHandler(svc.Notification),
		Analytics:    NewAnalyticsHandler(svc.Analytics, svc.Export),
		SystemConfig: NewSystemConfigHandler(svc.SystemConfig),
	}
}
