package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/config"
	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
	"havia/backend/pkg/redis"
)

// AnalyticsService 统计分析业务接口
type AnalyticsService interface {
	// GetCycleAnalytics 周期统计汇总；命中缓存时 FromCache 为 true
	GetCycleAnalytics(ctx context.Context, cycleID string) (*dto.CycleAnalyticsResponse, error)
	// InvalidateCycleAnalytics 周期数据变更后主动失效缓存
	InvalidateCycleAnalytics(ctx context.Context, cycleID string)
	GetMentorshipProgress(ctx context.Context, mentorshipID string) (*dto.MentorshipProgressReportResponse, error)
}

type analyticsService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(cfg *config.Config, repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) AnalyticsService {
	return &analyticsService{cfg: cfg, repo: repo, rdb: rdb, logger: logger}
}

func analyticsCacheKey(cycleID string) string {
	return fmt.Sprintf("analytics:cycle:%s", cycleID)
}

// ────────────────────── 周期统计 ──────────────────────

func (s *analyticsService) GetCycleAnalytics(ctx context.Context, cycleID string) (*dto.CycleAnalyticsResponse, error) {
	if cached, ok := s.loadCached(ctx, cycleID); ok {
		cached.FromCache = true
		return cached, nil
	}

	cycle, err := s.repo.Cycle.GetByID(ctx, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("查询周期失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.CycleAnalyticsResponse{
		CycleID:     cycle.CycleID,
		CycleName:   cycle.Name,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}

	// ── 报名 ──
	mentorInterests, err := s.repo.Interest.ListByCycleAndRole(ctx, cycleID, model.RoleMentor)
	if err != nil {
		s.logger.Error("查询导师报名失败", zap.Error(err))
		return nil, err
	}
	menteeInterests, err := s.repo.Interest.ListByCycleAndRole(ctx, cycleID, model.RoleMentee)
	if err != nil {
		s.logger.Error("查询学员报名失败", zap.Error(err))
		return nil, err
	}
	resp.MentorsInterested = len(mentorInterests)
	resp.MenteesInterested = len(menteeInterests)

	// ── 匹配 ──
	matches, err := s.repo.Match.ListByCycle(ctx, cycleID, "")
	if err != nil {
		s.logger.Error("查询匹配列表失败", zap.Error(err))
		return nil, err
	}
	scoreSum := 0
	for i := range matches {
		switch matches[i].Status {
		case model.MatchPending:
			resp.MatchesPending++
		case model.MatchApproved:
			resp.MatchesApproved++
		case model.MatchRejected:
			resp.MatchesRejected++
		}
		scoreSum += matches[i].MatchScore
	}
	if len(matches) > 0 {
		resp.AverageMatchScore = round2(float64(scoreSum) / float64(len(matches)))
	}

	// ── 辅导关系 ──
	mentorships, err := s.repo.Mentorship.ListByCycle(ctx, cycleID, "")
	if err != nil {
		s.logger.Error("查询辅导关系列表失败", zap.Error(err))
		return nil, err
	}
	var (
		engagementSum, satisfactionSum float64
		engagementN, satisfactionN     int
		sessionsSum, closedN           int
	)
	for i := range mentorships {
		m := &mentorships[i]
		switch m.Status {
		case model.MentorshipActive:
			resp.MentorshipsActive++
		case model.MentorshipCompleted:
			resp.MentorshipsCompleted++
		case model.MentorshipCancelled:
			resp.MentorshipsCancelled++
		}
		if m.EngagementScore != nil {
			engagementSum += *m.EngagementScore
			engagementN++
		}
		if m.SatisfactionScore != nil {
			satisfactionSum += *m.SatisfactionScore
			satisfactionN++
		}
		if m.CertificateID != nil {
			resp.CertificatesIssued++
		}
		sessionsSum += m.SessionsCompleted
		if m.IsTerminal() {
			closedN++
		}

		tasks, terr := s.repo.Task.ListByMentorship(ctx, m.MentorshipID)
		if terr != nil {
			s.logger.Error("查询任务失败", zap.String("mentorship_id", m.MentorshipID), zap.Error(terr))
			return nil, terr
		}
		resp.TasksTotal += len(tasks)
		for j := range tasks {
			if tasks[j].Status == model.TaskCompleted {
				resp.TasksCompleted++
			}
		}
	}

	denominator := resp.MentorshipsActive + resp.MentorshipsCompleted + resp.MentorshipsCancelled
	if denominator > 0 {
		resp.CompletionRate = round2(float64(resp.MentorshipsCompleted) / float64(denominator))
		resp.AverageSessionsHeld = round2(float64(sessionsSum) / float64(denominator))
	}
	if engagementN > 0 {
		avg := round2(engagementSum / float64(engagementN))
		resp.AverageEngagement = &avg
	}
	if satisfactionN > 0 {
		avg := round2(satisfactionSum / float64(satisfactionN))
		resp.AverageSatisfaction = &avg
	}
	if resp.TasksTotal > 0 {
		resp.TaskCompletionRate = round2(float64(resp.TasksCompleted) / float64(resp.TasksTotal))
	}

	s.storeCached(ctx, cycleID, resp)
	return resp, nil
}

func (s *analyticsService) InvalidateCycleAnalytics(ctx context.Context, cycleID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.CacheDel(ctx, analyticsCacheKey(cycleID)); err != nil {
		s.logger.Warn("统计缓存失效失败", zap.String("cycle_id", cycleID), zap.Error(err))
	}
}

// ────────────────────── 进度报告 ──────────────────────

func (s *analyticsService) GetMentorshipProgress(ctx context.Context, mentorshipID string) (*dto.MentorshipProgressReportResponse, error) {
	mentorship, err := s.repo.Mentorship.GetByID(ctx, mentorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorshipNotFound
		}
		s.logger.Error("查询辅导关系失败", zap.Error(err))
		return nil, err
	}
	program, err := s.repo.Program.GetByMentorshipID(ctx, mentorshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgramNotFound
		}
		s.logger.Error("查询周计划失败", zap.Error(err))
		return nil, err
	}
	tasks, err := s.repo.Task.ListByMentorship(ctx, mentorshipID)
	if err != nil {
		s.logger.Error("查询任务失败", zap.Error(err))
		return nil, err
	}
	snapshots, err := s.repo.Progress.ListByMentorship(ctx, mentorshipID)
	if err != nil {
		s.logger.Error("查询进度快照失败", zap.Error(err))
		return nil, err
	}
	evaluations, err := s.repo.Evaluation.ListByMentorship(ctx, mentorshipID)
	if err != nil {
		s.logger.Error("查询评价失败", zap.Error(err))
		return nil, err
	}

	report := &dto.MentorshipProgressReportResponse{
		Mentorship:  *toMentorshipResponse(mentorship),
		Program:     *toProgramResponse(program),
		Tasks:       make([]dto.TaskResponse, 0, len(tasks)),
		Snapshots:   make([]dto.ProgressResponse, 0, len(snapshots)),
		Evaluations: make([]dto.EvaluationResponse, 0, len(evaluations)),
	}
	for i := range tasks {
		report.Tasks = append(report.Tasks, *toTaskResponse(&tasks[i]))
	}
	for i := range snapshots {
		report.Snapshots = append(report.Snapshots, *toProgressResponse(&snapshots[i]))
	}
	for i := range evaluations {
		report.Evaluations = append(report.Evaluations, *toEvaluationResponse(&evaluations[i]))
	}
	return report, nil
}

// ── 缓存 ──

// 缓存命中与否不影响正确性，Redis 故障时直接回源
func (s *analyticsService) loadCached(ctx context.Context, cycleID string) (*dto.CycleAnalyticsResponse, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, ok, err := s.rdb.CacheGet(ctx, analyticsCacheKey(cycleID))
	if err != nil {
		s.logger.Warn("读取统计缓存失败", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp dto.CycleAnalyticsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.logger.Warn("统计缓存内容损坏", zap.String("cycle_id", cycleID), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

func (s *analyticsService) storeCached(ctx context.Context, cycleID string, resp *dto.CycleAnalyticsResponse) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	ttl := time.Duration(s.cfg.Mentorship.AnalyticsCacheTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := s.rdb.CacheSet(ctx, analyticsCacheKey(cycleID), string(raw), ttl); err != nil {
		s.logger.Warn("写入统计缓存失败", zap.String("cycle_id", cycleID), zap.Error(err))
	}
}
