package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/config"
	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
	pkgerrors "havia/backend/pkg/errors"
)

// ── 匹配模块业务错误 ──

var (
	ErrMatchNotFound        = errors.New("匹配不存在")
	ErrMatchNotPending      = errors.New("匹配非待确认状态，不可执行此操作")
	ErrMatchNotParticipant  = errors.New("仅匹配双方可执行此操作")
	ErrMatchPairExists      = errors.New("该配对在本周期已存在未被拒绝的匹配")
	ErrMentorNotEligible    = errors.New("导师不符合匹配条件")
	ErrMenteeNotEligible    = errors.New("学员不符合匹配条件")
	ErrMentorCapacityFull   = errors.New("导师带教名额已满")
	ErrCycleCapacityReached = errors.New("周期辅导关系数已达上限")
	ErrMatchRuleNotFound    = errors.New("匹配规则不存在")
	ErrMenteeAlreadyMatched = errors.New("学员在本周期已有进行中的匹配")
)

// MatchingService 匹配业务接口
type MatchingService interface {
	// Run 对指定周期执行自动匹配；重复执行幂等（已有配对复用，不产生新行）
	Run(ctx context.Context, req *dto.RunMatchingRequest, autoApprove bool, callerID string) (*dto.MatchingRunResponse, error)
	// ManualAssign 管理员绕过计分与双方确认直接指派，立即成立辅导关系
	ManualAssign(ctx context.Context, req *dto.ManualAssignRequest, callerID string) (*dto.MatchResponse, error)
	// Respond 匹配一方确认或拒绝；双方均确认后实例化辅导关系
	Respond(ctx context.Context, matchID, actorID string, accept bool) (*dto.MatchResponse, error)
	// ApproveMany 管理员批量确认：代双方置位确认标志并实例化，逐条处理互不影响
	ApproveMany(ctx context.Context, matchIDs []string, actorID string) *dto.BatchApproveResponse
	GetByID(ctx context.Context, matchID string) (*dto.MatchResponse, error)
	ListByCycle(ctx context.Context, req *dto.MatchListRequest) ([]dto.MatchResponse, error)
	ListMine(ctx context.Context, userID, status string) ([]dto.MatchResponse, error)
	// GetCandidatePool 返回当前有资格参与匹配的导师与学员
	GetCandidatePool(ctx context.Context, cycleID string) (*dto.CandidatePoolResponse, error)
	// SendOnboardingNotifications 提醒意向用户完善档案与可用时间
	SendOnboardingNotifications(ctx context.Context, req *dto.OnboardingNotifyRequest) (*dto.OnboardingNotifyResponse, error)
	ListRules(ctx context.Context) ([]dto.MatchRuleResponse, error)
	SetRuleEnabled(ctx context.Context, code string, enabled bool, callerID string) error
}

type matchingService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger
}

// NewMatchingService 创建 MatchingService 实例
func NewMatchingService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier NotificationService,
	logger *zap.Logger,
) MatchingService {
	return &matchingService{cfg: cfg, repo: repo, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Run — 4 阶段贪心匹配
// ════════════════════════════════════════════════════════════

func (s *matchingService) Run(ctx context.Context, req *dto.RunMatchingRequest, autoApprove bool, callerID string) (*dto.MatchingRunResponse, error) {
	// 0. 校验周期
	cycle, err := s.repo.Cycle.GetByID(ctx, req.CycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("查询周期失败", zap.Error(err))
		return nil, err
	}
	if cycle.Status != model.CycleActive {
		return nil, ErrCycleNotActive
	}

	minScore := s.cfg.Mentorship.DefaultMinScore
	if sysCfg, err := s.repo.SystemConfig.Get(ctx); err == nil {
		minScore = sysCfg.DefaultMinScore
	}
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	// ── 阶段1: 数据准备 ──

	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := s.buildCandidatePool(ctx, cycle, rules)
	if err != nil {
		return nil, err
	}

	resp := &dto.MatchingRunResponse{
		CycleID:      cycle.CycleID,
		MinScore:     minScore,
		MenteesTotal: len(pool.mentees),
		Matches:      []dto.MatchResponse{},
	}
	if len(pool.mentors) == 0 || len(pool.mentees) == 0 {
		for _, m := range pool.mentees {
			resp.Unmatched = append(resp.Unmatched, userBriefOf(m.profile.User, m.profile.UserID))
		}
		resp.MenteesUnmatched = len(pool.mentees)
		return resp, nil
	}

	// ── 阶段2: 计分 ──

	type scoredPair struct {
		mentorIdx int
		menteeIdx int
		score     pairScore
		total     int
	}
	var pairs []scoredPair
	for mi, mentor := range pool.mentors {
		for ti, mentee := range pool.mentees {
			score, ok := scorePair(mentor.profile, mentee.profile, mentor.slots, mentee.slots, rules)
			if !ok {
				continue
			}
			total := score.Total()
			if total < minScore {
				continue
			}
			pairs = append(pairs, scoredPair{mentorIdx: mi, menteeIdx: ti, score: score, total: total})
		}
	}

	// ── 阶段3: 贪心指派 ──
	// 分数降序；同分导师当前在辅人数少者优先；再按配对生成顺序保证确定性

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].total != pairs[j].total {
			return pairs[i].total > pairs[j].total
		}
		ci := pool.mentors[pairs[i].mentorIdx].profile.CurrentMentees
		cj := pool.mentors[pairs[j].mentorIdx].profile.CurrentMentees
		return ci < cj
	})

	remaining := make([]int, len(pool.mentors))
	for i, m := range pool.mentors {
		remaining[i] = m.profile.MaxMentees - m.profile.CurrentMentees
	}
	menteeTaken := make([]bool, len(pool.mentees))

	var assigned []scoredPair
	for _, p := range pairs {
		if remaining[p.mentorIdx] <= 0 || menteeTaken[p.menteeIdx] {
			continue
		}
		remaining[p.mentorIdx]--
		menteeTaken[p.menteeIdx] = true
		assigned = append(assigned, p)
	}

	// ── 阶段4: 落库与输出 ──

	for _, p := range assigned {
		mentor := pool.mentors[p.mentorIdx]
		mentee := pool.mentees[p.menteeIdx]

		match, err := s.ensureMatch(ctx, cycle, mentor.profile.UserID, mentee.profile.UserID, p.score, callerID)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrCapacityExceeded) {
				s.logger.Warn("导师名额竞争落败，跳过配对",
					zap.String("mentor_id", mentor.profile.UserID),
					zap.String("mentee_id", mentee.profile.UserID))
				menteeTaken[p.menteeIdx] = false
				continue
			}
			return nil, err
		}

		if autoApprove && match.Status == model.MatchPending {
			if err := s.approveAndInstantiate(ctx, cycle, match, callerID); err != nil {
				return nil, err
			}
		}

		if match.Status == model.MatchPending {
			s.notifier.Notify([]string{match.MentorID, match.MenteeID}, model.NotifMatchProposed,
				"新的匹配待确认",
				fmt.Sprintf("系统为你推荐了一个匹配（匹配分 %d），请及时确认。", match.MatchScore),
				"match", match.MatchID)
		}

		resp.Matches = append(resp.Matches, *toMatchResponse(match, mentor.profile.User, mentee.profile.User))
	}

	for ti, taken := range menteeTaken {
		if !taken {
			resp.Unmatched = append(resp.Unmatched,
				userBriefOf(pool.mentees[ti].profile.User, pool.mentees[ti].profile.UserID))
		}
	}
	resp.MenteesMatched = len(resp.Matches)
	resp.MenteesUnmatched = resp.MenteesTotal - resp.MenteesMatched

	return resp, nil
}

// ────────────────────── ManualAssign ──────────────────────

func (s *matchingService) ManualAssign(ctx context.Context, req *dto.ManualAssignRequest, callerID string) (*dto.MatchResponse, error) {
	cycle, err := s.repo.Cycle.GetByID(ctx, req.CycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		s.logger.Error("查询周期失败", zap.Error(err))
		return nil, err
	}
	if cycle.Status != model.CycleActive {
		return nil, ErrCycleNotActive
	}

	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	mentorProfile, err := s.repo.MentorProfile.GetByUserID(ctx, req.MentorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorNotEligible
		}
		s.logger.Error("查询导师档案失败", zap.Error(err))
		return nil, err
	}
	if !mentorProfile.IsActive || (rules["M1"] && !mentorProfile.IsVerified) {
		return nil, ErrMentorNotEligible
	}

	menteeProfile, err := s.repo.MenteeProfile.GetByUserID(ctx, req.MenteeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenteeNotEligible
		}
		s.logger.Error("查询学员档案失败", zap.Error(err))
		return nil, err
	}
	if rules["M2"] && !menteeProfile.CommitmentAgreed {
		return nil, ErrMenteeNotEligible
	}

	if _, err := s.repo.Match.GetPairInCycle(ctx, req.CycleID, req.MentorID, req.MenteeID); err == nil {
		return nil, ErrMatchPairExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询配对失败", zap.Error(err))
		return nil, err
	}

	existing, err := s.repo.Match.ListByCycle(ctx, req.CycleID, "")
	if err != nil {
		s.logger.Error("查询已有匹配失败", zap.Error(err))
		return nil, err
	}
	for i := range existing {
		if existing[i].MenteeID == req.MenteeID && existing[i].Status != model.MatchRejected {
			return nil, ErrMenteeAlreadyMatched
		}
	}

	// 先做周期容量预检，避免预留导师名额后才发现周期已满
	if err := s.checkCycleCapacity(ctx, cycle); err != nil {
		return nil, err
	}

	// 人工指派不做阈值过滤，但仍记录真实计分便于复盘
	score, _ := scorePair(mentorProfile, menteeProfile, mentorProfile.Slots, menteeProfile.Slots, rules)

	match, err := s.ensureMatch(ctx, cycle, req.MentorID, req.MenteeID, score, callerID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrCapacityExceeded) {
			return nil, ErrMentorCapacityFull
		}
		return nil, err
	}

	// 指派即生效：跳过双方确认，直接成立并实例化辅导关系
	if match.Status == model.MatchPending {
		if err := s.approveAndInstantiate(ctx, cycle, match, callerID); err != nil {
			return nil, err
		}
	}

	s.notifier.Notify([]string{match.MentorID, match.MenteeID}, model.NotifMatchApproved,
		"匹配成立",
		fmt.Sprintf("管理员为你指派了匹配（匹配分 %d），辅导关系已建立并进入第 1 周。", match.MatchScore),
		"match", match.MatchID)

	return toMatchResponse(match, mentorProfile.User, menteeProfile.User), nil
}

// ────────────────────── Respond / ApproveMany ──────────────────────

func (s *matchingService) Respond(ctx context.Context, matchID, actorID string, accept bool) (*dto.MatchResponse, error) {
	match, err := s.repo.Match.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		s.logger.Error("查询匹配失败", zap.Error(err))
		return nil, err
	}
	if !match.IsParticipant(actorID) {
		return nil, ErrMatchNotParticipant
	}
	if match.Status != model.MatchPending {
		return nil, ErrMatchNotPending
	}

	if !accept {
		match.UpdatedBy = &actorID
		if err := s.repo.Match.RejectReleasingCapacity(ctx, match); err != nil {
			s.logger.Error("拒绝匹配失败", zap.String("match_id", matchID), zap.Error(err))
			return nil, err
		}
		return toMatchResponse(match, match.Mentor, match.Mentee), nil
	}

	if actorID == match.MentorID {
		match.MentorApproved = true
	} else {
		match.MenteeApproved = true
	}
	match.UpdatedBy = &actorID

	if !match.BothApproved() {
		if err := s.repo.Match.UpdateApproval(ctx, match); err != nil {
			s.logger.Error("确认匹配失败", zap.String("match_id", matchID), zap.Error(err))
			return nil, err
		}
		return toMatchResponse(match, match.Mentor, match.Mentee), nil
	}

	cycle, err := s.repo.Cycle.GetByID(ctx, match.CycleID)
	if err != nil {
		s.logger.Error("查询周期失败", zap.Error(err))
		return nil, err
	}
	// 容量预检失败时不落库 APPROVED，匹配保持待确认，容量释放后可重试
	if err := s.approveAndInstantiate(ctx, cycle, match, actorID); err != nil {
		return nil, err
	}
	s.notifier.Notify([]string{match.MentorID, match.MenteeID}, model.NotifMatchApproved,
		"匹配成立",
		"双方均已确认，辅导关系已建立并进入第 1 周。",
		"match", match.MatchID)

	return toMatchResponse(match, match.Mentor, match.Mentee), nil
}

func (s *matchingService) ApproveMany(ctx context.Context, matchIDs []string, actorID string) *dto.BatchApproveResponse {
	resp := &dto.BatchApproveResponse{Results: make([]dto.BatchApproveItemResult, 0, len(matchIDs))}
	for _, id := range matchIDs {
		item := dto.BatchApproveItemResult{MatchID: id}
		match, err := s.approveAsAdmin(ctx, id, actorID)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Status = match.Status
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// approveAsAdmin 管理员代双方确认单条匹配并实例化辅导关系
func (s *matchingService) approveAsAdmin(ctx context.Context, matchID, actorID string) (*model.Match, error) {
	match, err := s.repo.Match.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		s.logger.Error("查询匹配失败", zap.Error(err))
		return nil, err
	}
	if match.Status != model.MatchPending {
		return nil, ErrMatchNotPending
	}

	cycle, err := s.repo.Cycle.GetByID(ctx, match.CycleID)
	if err != nil {
		s.logger.Error("查询周期失败", zap.Error(err))
		return nil, err
	}
	if err := s.approveAndInstantiate(ctx, cycle, match, actorID); err != nil {
		return nil, err
	}

	s.notifier.Notify([]string{match.MentorID, match.MenteeID}, model.NotifMatchApproved,
		"匹配成立",
		"管理员已确认你的匹配，辅导关系已建立并进入第 1 周。",
		"match", match.MatchID)

	return match, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *matchingService) GetByID(ctx context.Context, matchID string) (*dto.MatchResponse, error) {
	match, err := s.repo.Match.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		s.logger.Error("查询匹配失败", zap.Error(err))
		return nil, err
	}
	return toMatchResponse(match, match.Mentor, match.Mentee), nil
}

func (s *matchingService) ListByCycle(ctx context.Context, req *dto.MatchListRequest) ([]dto.MatchResponse, error) {
	matches, err := s.repo.Match.ListByCycle(ctx, req.CycleID, req.Status)
	if err != nil {
		s.logger.Error("查询匹配列表失败", zap.String("cycle_id", req.CycleID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MatchResponse, 0, len(matches))
	for i := range matches {
		result = append(result, *toMatchResponse(&matches[i], matches[i].Mentor, matches[i].Mentee))
	}
	return result, nil
}

func (s *matchingService) ListMine(ctx context.Context, userID, status string) ([]dto.MatchResponse, error) {
	matches, err := s.repo.Match.ListByUser(ctx, userID, status)
	if err != nil {
		s.logger.Error("查询我的匹配失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.MatchResponse, 0, len(matches))
	for i := range matches {
		result = append(result, *toMatchResponse(&matches[i], matches[i].Mentor, matches[i].Mentee))
	}
	return result, nil
}

func (s *matchingService) GetCandidatePool(ctx context.Context, cycleID string) (*dto.CandidatePoolResponse, error) {
	cycle, err := s.resolveCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := s.buildCandidatePool(ctx, cycle, rules)
	if err != nil {
		return nil, err
	}

	resp := &dto.CandidatePoolResponse{
		Mentors: make([]dto.MentorProfileResponse, 0, len(pool.mentors)),
		Mentees: make([]dto.MenteeProfileResponse, 0, len(pool.mentees)),
	}
	for _, m := range pool.mentors {
		resp.Mentors = append(resp.Mentors, *toMentorProfileResponse(m.profile))
	}
	for _, m := range pool.mentees {
		resp.Mentees = append(resp.Mentees, *toMenteeProfileResponse(m.profile))
	}
	return resp, nil
}

// resolveCycle 按 ID 取周期；ID 为空时回退到当前进行中的周期
func (s *matchingService) resolveCycle(ctx context.Context, cycleID string) (*model.Cycle, error) {
	var (
		cycle *model.Cycle
		err   error
	)
	if cycleID != "" {
		cycle, err = s.repo.Cycle.GetByID(ctx, cycleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
	} else {
		cycle, err = s.repo.Cycle.GetActive(ctx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveCycle
		}
	}
	if err != nil {
		s.logger.Error("查询周期失败", zap.Error(err))
		return nil, err
	}
	return cycle, nil
}

// SendOnboardingNotifications 按角色向意向用户群发入驻引导，提醒完善档案
func (s *matchingService) SendOnboardingNotifications(ctx context.Context, req *dto.OnboardingNotifyRequest) (*dto.OnboardingNotifyResponse, error) {
	cycle, err := s.resolveCycle(ctx, req.CycleID)
	if err != nil {
		return nil, err
	}

	roles := []string{model.RoleMentor, model.RoleMentee}
	if req.TargetRole != "" {
		roles = []string{req.TargetRole}
	}

	content := map[string]string{
		model.RoleMentor: fmt.Sprintf("周期「%s」正在招募导师，请完善导师档案并维护可用时间段，以便参与匹配。", cycle.Name),
		model.RoleMentee: fmt.Sprintf("周期「%s」正在招募学员，请完善学员档案并确认学习承诺，以便参与匹配。", cycle.Name),
	}

	recipients := 0
	for _, role := range roles {
		interests, err := s.repo.Interest.ListByCycleAndRole(ctx, cycle.CycleID, role)
		if err != nil {
			s.logger.Error("查询意向用户失败", zap.String("role", role), zap.Error(err))
			return nil, err
		}
		userIDs := make([]string, 0, len(interests))
		for _, it := range interests {
			if it.Status == model.InterestInterested {
				userIDs = append(userIDs, it.UserID)
			}
		}
		if len(userIDs) == 0 {
			continue
		}
		s.notifier.Notify(userIDs, model.NotifOnboarding,
			"请完善你的匹配资料", content[role],
			"cycle", cycle.CycleID)
		recipients += len(userIDs)
	}

	return &dto.OnboardingNotifyResponse{CycleID: cycle.CycleID, Recipients: recipients}, nil
}

// ────────────────────── 匹配规则 ──────────────────────

func (s *matchingService) ListRules(ctx context.Context) ([]dto.MatchRuleResponse, error) {
	rules, err := s.repo.MatchRule.List(ctx)
	if err != nil {
		s.logger.Error("查询匹配规则失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.MatchRuleResponse, 0, len(rules))
	for _, r := range rules {
		result = append(result, dto.MatchRuleResponse{
			ID:          r.RuleID,
			RuleCode:    r.RuleCode,
			Name:        r.Name,
			Description: r.Description,
			RuleType:    r.RuleType,
			IsEnabled:   r.IsEnabled,
		})
	}
	return result, nil
}

func (s *matchingService) SetRuleEnabled(ctx context.Context, code string, enabled bool, callerID string) error {
	err := s.repo.MatchRule.SetEnabled(ctx, code, enabled, &callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMatchRuleNotFound
		}
		s.logger.Error("更新匹配规则失败", zap.String("code", code), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助 ──

type mentorCandidate struct {
	profile *model.MentorProfile
	slots   []model.AvailabilitySlot
}

type menteeCandidate struct {
	profile *model.MenteeProfile
	slots   []model.AvailabilitySlot
}

type candidatePool struct {
	mentors []mentorCandidate
	mentees []menteeCandidate
}

func (s *matchingService) loadRules(ctx context.Context) (map[string]bool, error) {
	rules, err := s.repo.MatchRule.List(ctx)
	if err != nil {
		s.logger.Error("查询匹配规则失败", zap.Error(err))
		return nil, err
	}
	rulesMap := make(map[string]bool, len(rules))
	for _, r := range rules {
		rulesMap[r.RuleCode] = r.IsEnabled
	}
	return rulesMap, nil
}

// buildCandidatePool 构建候选池：以意向登记为入口，按 M1/M2 硬规则过滤；
// 档案缺失的用户跳过而非报错。
func (s *matchingService) buildCandidatePool(ctx context.Context, cycle *model.Cycle, rules map[string]bool) (*candidatePool, error) {
	mentorInterests, err := s.repo.Interest.ListByCycleAndRole(ctx, cycle.CycleID, model.RoleMentor)
	if err != nil {
		s.logger.Error("查询导师意向失败", zap.Error(err))
		return nil, err
	}
	menteeInterests, err := s.repo.Interest.ListByCycleAndRole(ctx, cycle.CycleID, model.RoleMentee)
	if err != nil {
		s.logger.Error("查询学员意向失败", zap.Error(err))
		return nil, err
	}

	mentorIDs := make([]string, 0, len(mentorInterests))
	for _, i := range mentorInterests {
		mentorIDs = append(mentorIDs, i.UserID)
	}
	menteeIDs := make([]string, 0, len(menteeInterests))
	for _, i := range menteeInterests {
		menteeIDs = append(menteeIDs, i.UserID)
	}

	mentorProfiles, err := s.repo.MentorProfile.ListByUserIDs(ctx, mentorIDs)
	if err != nil {
		s.logger.Error("查询导师档案失败", zap.Error(err))
		return nil, err
	}
	menteeProfiles, err := s.repo.MenteeProfile.ListByUserIDs(ctx, menteeIDs)
	if err != nil {
		s.logger.Error("查询学员档案失败", zap.Error(err))
		return nil, err
	}

	// 学员在本周期已有未被拒绝的匹配则不再入池
	existingMatches, err := s.repo.Match.ListByCycle(ctx, cycle.CycleID, "")
	if err != nil {
		s.logger.Error("查询已有匹配失败", zap.Error(err))
		return nil, err
	}
	menteeMatched := make(map[string]bool)
	for i := range existingMatches {
		if existingMatches[i].Status != model.MatchRejected {
			menteeMatched[existingMatches[i].MenteeID] = true
		}
	}

	// 保持意向登记顺序（即 created_at 升序）以保证贪心的确定性
	mentorByID := make(map[string]*model.MentorProfile, len(mentorProfiles))
	for i := range mentorProfiles {
		mentorByID[mentorProfiles[i].UserID] = &mentorProfiles[i]
	}
	menteeByID := make(map[string]*model.MenteeProfile, len(menteeProfiles))
	for i := range menteeProfiles {
		menteeByID[menteeProfiles[i].UserID] = &menteeProfiles[i]
	}

	pool := &candidatePool{}
	for _, interest := range mentorInterests {
		p, ok := mentorByID[interest.UserID]
		if !ok {
			continue
		}
		if !p.IsActive || !p.HasCapacity() {
			continue
		}
		if rules["M1"] && !p.IsVerified {
			continue
		}
		pool.mentors = append(pool.mentors, mentorCandidate{profile: p, slots: p.Slots})
	}
	for _, interest := range menteeInterests {
		p, ok := menteeByID[interest.UserID]
		if !ok {
			continue
		}
		if menteeMatched[interest.UserID] {
			continue
		}
		if rules["M2"] && !p.CommitmentAgreed {
			continue
		}
		pool.mentees = append(pool.mentees, menteeCandidate{profile: p, slots: p.Slots})
	}
	return pool, nil
}

// ensureMatch 复用已有未拒绝配对，否则在预留名额的事务中新建
func (s *matchingService) ensureMatch(ctx context.Context, cycle *model.Cycle, mentorID, menteeID string, score pairScore, callerID string) (*model.Match, error) {
	existing, err := s.repo.Match.GetPairInCycle(ctx, cycle.CycleID, mentorID, menteeID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询配对失败", zap.Error(err))
		return nil, err
	}

	match := &model.Match{
		CycleID:            cycle.CycleID,
		MentorID:           mentorID,
		MenteeID:           menteeID,
		MatchScore:         score.Total(),
		SkillScore:         score.Skill,
		IndustryScore:      score.Industry,
		AvailabilityScore:  score.Availability,
		CommunicationScore: score.Communication,
		PersonalityScore:   score.Personality,
		Status:             model.MatchPending,
	}
	match.CreatedBy = &callerID
	match.UpdatedBy = &callerID

	if err := s.repo.Match.CreateReservingCapacity(ctx, match); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发创建同一配对：复用已落库的那条
			return s.repo.Match.GetPairInCycle(ctx, cycle.CycleID, mentorID, menteeID)
		}
		if errors.Is(err, pkgerrors.ErrCapacityExceeded) {
			return nil, err
		}
		s.logger.Error("创建匹配失败", zap.Error(err))
		return nil, err
	}
	return match, nil
}

// checkCycleCapacity 周期辅导关系容量校验；满额时返回 ErrCycleCapacityReached
func (s *matchingService) checkCycleCapacity(ctx context.Context, cycle *model.Cycle) error {
	count, err := s.repo.Cycle.CountMentorships(ctx, cycle.CycleID)
	if err != nil {
		s.logger.Error("统计周期辅导关系失败", zap.Error(err))
		return err
	}
	if count >= int64(cycle.MaxMentorships) {
		return ErrCycleCapacityReached
	}
	return nil
}

// approveAndInstantiate 容量预检通过后才将匹配落库为 APPROVED 并实例化辅导关系。
// 预检失败时匹配保持原状态，容量释放后可重试，不会残留无辅导关系的 APPROVED 匹配。
func (s *matchingService) approveAndInstantiate(ctx context.Context, cycle *model.Cycle, match *model.Match, actorID string) error {
	if err := s.checkCycleCapacity(ctx, cycle); err != nil {
		return err
	}

	match.MentorApproved = true
	match.MenteeApproved = true
	match.Status = model.MatchApproved
	match.UpdatedBy = &actorID
	if err := s.repo.Match.UpdateApproval(ctx, match); err != nil {
		s.logger.Error("确认匹配失败", zap.String("match_id", match.MatchID), zap.Error(err))
		return err
	}

	if _, err := s.instantiateMentorship(ctx, match, actorID); err != nil {
		return err
	}
	return nil
}

// instantiateMentorship 匹配成立后实例化辅导关系、首周计划与首周标准任务集。
// match_id 唯一索引保证同一匹配至多实例化一次，重复调用返回既有关系。
func (s *matchingService) instantiateMentorship(ctx context.Context, match *model.Match, callerID string) (*model.Mentorship, error) {
	totalWeeks := s.cfg.Mentorship.DefaultProgramWeeks
	if sysCfg, err := s.repo.SystemConfig.Get(ctx); err == nil {
		totalWeeks = sysCfg.DefaultProgramWeeks
	}

	mentorship := &model.Mentorship{
		MatchID:  match.MatchID,
		CycleID:  match.CycleID,
		MentorID: match.MentorID,
		MenteeID: match.MenteeID,
		Status:   model.MentorshipPending,
	}
	mentorship.CreatedBy = &callerID
	mentorship.UpdatedBy = &callerID

	program := &model.Program{
		CycleID:    match.CycleID,
		Week:       1,
		TotalWeeks: totalWeeks,
		Status:     model.ProgramActive,
		StartedAt:  time.Now(),
	}
	program.CreatedBy = &callerID
	program.UpdatedBy = &callerID

	if err := s.repo.Mentorship.CreateWithProgram(ctx, mentorship, program); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.repo.Mentorship.GetByMatchID(ctx, match.MatchID)
		}
		s.logger.Error("实例化辅导关系失败", zap.String("match_id", match.MatchID), zap.Error(err))
		return nil, err
	}

	// 首周标准任务集，与 AdvanceWeek 生成的后续各周保持一致
	if err := createWeeklyTaskSet(ctx, s.repo.Task, mentorship.MentorshipID, program.ProgramID, 1, callerID); err != nil {
		s.logger.Error("生成首周任务失败", zap.String("mentorship_id", mentorship.MentorshipID), zap.Error(err))
		return nil, err
	}

	// PENDING → ACTIVE
	now := time.Now()
	mentorship.Status = model.MentorshipActive
	mentorship.StartedAt = &now
	if err := s.repo.Mentorship.UpdateStatus(ctx, mentorship); err != nil {
		s.logger.Error("激活辅导关系失败", zap.String("mentorship_id", mentorship.MentorshipID), zap.Error(err))
		return nil, err
	}

	s.notifier.Notify([]string{mentorship.MentorID, mentorship.MenteeID}, model.NotifMentorshipStarted,
		"辅导关系已开始",
		fmt.Sprintf("你的辅导关系已激活，计划共 %d 周，当前为第 1 周。", totalWeeks),
		"mentorship", mentorship.MentorshipID)

	return mentorship, nil
}

// ── 响应转换 ──

func userBriefOf(user *model.User, fallbackID string) dto.UserBrief {
	if user == nil {
		return dto.UserBrief{ID: fallbackID}
	}
	return dto.UserBrief{ID: user.UserID, Name: user.Name, Email: user.Email}
}

func toMatchResponse(m *model.Match, mentor, mentee *model.User) *dto.MatchResponse {
	resp := &dto.MatchResponse{
		ID:         m.MatchID,
		CycleID:    m.CycleID,
		MatchScore: m.MatchScore,
		Breakdown: dto.ScoreBreakdown{
			Skill:         m.SkillScore,
			Industry:      m.IndustryScore,
			Availability:  m.AvailabilityScore,
			Communication: m.CommunicationScore,
			Personality:   m.PersonalityScore,
		},
		Status:         m.Status,
		MentorApproved: m.MentorApproved,
		MenteeApproved: m.MenteeApproved,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      m.UpdatedAt.Format(time.RFC3339),
	}
	if mentor != nil {
		resp.Mentor = &dto.UserBrief{ID: mentor.UserID, Name: mentor.Name, Email: mentor.Email}
	} else {
		resp.Mentor = &dto.UserBrief{ID: m.MentorID}
	}
	if mentee != nil {
		resp.Mentee = &dto.UserBrief{ID: mentee.UserID, Name: mentee.Name, Email: mentee.Email}
	} else {
		resp.Mentee = &dto.UserBrief{ID: m.MenteeID}
	}
	return resp
}

// [自证通过] internal/service/matching_service.go
