package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"havia/backend/config"
	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 测试辅助 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	user          *mockUserRepo
	cycle         *mockCycleRepo
	interest      *mockInterestRepo
	mentorProfile *mockMentorProfileRepo
	menteeProfile *mockMenteeProfileRepo
	availability  *mockAvailabilityRepo
	match         *mockMatchRepo
	matchRule     *mockMatchRuleRepo
	mentorship    *mockMentorshipRepo
	program       *mockProgramRepo
	task          *mockTaskRepo
	progress      *mockProgressRepo
	evaluation    *mockEvaluationRepo
	certificate   *mockCertificateRepo
	notification  *mockNotificationRepo
	systemConfig  *mockSystemConfigRepo
}

func newTestRepos() *testRepos {
	mentorProfiles := newMockMentorProfileRepo()
	programs := newMockProgramRepo()
	mentorships := newMockMentorshipRepo(mentorProfiles, programs)
	cycles := newMockCycleRepo()
	cycles.mentorships = mentorships

	return &testRepos{
		user:          newMockUserRepo(),
		cycle:         cycles,
		interest:      newMockInterestRepo(),
		mentorProfile: mentorProfiles,
		menteeProfile: newMockMenteeProfileRepo(),
		availability:  newMockAvailabilityRepo(),
		match:         newMockMatchRepo(mentorProfiles),
		matchRule:     newMockMatchRuleRepo(),
		mentorship:    mentorships,
		program:       programs,
		task:          newMockTaskRepo(),
		progress:      newMockProgressRepo(),
		evaluation:    newMockEvaluationRepo(),
		certificate:   newMockCertificateRepo(mentorships),
		notification:  newMockNotificationRepo(),
		systemConfig:  newMockSystemConfigRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:          r.user,
		Cycle:         r.cycle,
		Interest:      r.interest,
		MentorProfile: r.mentorProfile,
		MenteeProfile: r.menteeProfile,
		Availability:  r.availability,
		Match:         r.match,
		MatchRule:     r.matchRule,
		Mentorship:    r.mentorship,
		Program:       r.program,
		Task:          r.task,
		Progress:      r.progress,
		Evaluation:    r.evaluation,
		Certificate:   r.certificate,
		Notification:  r.notification,
		SystemConfig:  r.systemConfig,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Mentorship: config.MentorshipConfig{
			DefaultMinScore:     60,
			DefaultProgramWeeks: 8,
			NotificationQueue:   16,
		},
	}
}

func setupTestMatchingService() (MatchingService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()
	notifier := NewNotificationService(repoAgg, logger, 16)
	svc := NewMatchingService(testConfig(), repoAgg, notifier, logger)
	return svc, repos
}

// seedBasicData 种子数据：1个进行中周期 + 1个导师 + 1个学员 + 规则全开。
// 该配对的确定性计分：技能 35 + 行业 20 + 时间 8 + 风格 15 + 偏好 10 = 88。
func seedBasicData(repos *testRepos) {
	repos.cycle.cycles["cyc-1"] = &model.Cycle{
		CycleID:        "cyc-1",
		Name:           "2026 秋季期",
		StartDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Status:         model.CycleActive,
		MaxMentorships: 10,
		VersionedModel: model.VersionedModel{Version: 1},
	}

	mentor := &model.User{UserID: "user-mentor-1", Name: "张三", Email: "mentor1@example.com", Role: "member", IsActive: true}
	mentee := &model.User{UserID: "user-mentee-1", Name: "李四", Email: "mentee1@example.com", Role: "member", IsActive: true}
	repos.user.users[mentor.UserID] = mentor
	repos.user.users[mentee.UserID] = mentee

	repos.mentorProfile.profiles["user-mentor-1"] = &model.MentorProfile{
		MentorProfileID: "mp-user-mentor-1",
		UserID:          "user-mentor-1",
		MaxMentees:      2,
		CurrentMentees:  0,
		Themes:          model.StringArray{"Go", "分布式系统"},
		Industry:        "互联网",
		Company:         "示例科技",
		MentoringStyle:  "hands-on",
		Preferences:     model.StringArray{"晚间", "线上"},
		IsVerified:      true,
		IsActive:        true,
		VersionedModel:  model.VersionedModel{Version: 1},
		User:            mentor,
		Slots: []model.AvailabilitySlot{
			{SlotID: "slot-m1", UserID: "user-mentor-1", DayOfWeek: 1, StartTime: "18:00", EndTime: "21:00", Source: "manual"},
		},
	}
	repos.menteeProfile.profiles["user-mentee-1"] = &model.MenteeProfile{
		MenteeProfileID:  "tp-user-mentee-1",
		UserID:           "user-mentee-1",
		FieldOfInterest:  "分布式系统",
		Skills:           model.StringArray{"Go"},
		Goals:            model.StringArray{"进入互联网行业"},
		ExperienceLevel:  "beginner",
		PreferredStyle:   "hands-on",
		Preferences:      model.StringArray{"晚间", "线上"},
		CommitmentAgreed: true,
		VersionedModel:   model.VersionedModel{Version: 1},
		User:             mentee,
		Slots: []model.AvailabilitySlot{
			{SlotID: "slot-t1", UserID: "user-mentee-1", DayOfWeek: 1, StartTime: "19:00", EndTime: "21:00", Source: "manual"},
		},
	}

	repos.interest.items = []*model.Interest{
		{InterestID: "int-1", CycleID: "cyc-1", UserID: "user-mentor-1", Role: model.RoleMentor, Status: model.InterestInterested, User: mentor},
		{InterestID: "int-2", CycleID: "cyc-1", UserID: "user-mentee-1", Role: model.RoleMentee, Status: model.InterestInterested, User: mentee},
	}

	seedRule := func(code, name, ruleType string) {
		repos.matchRule.rules[code] = &model.MatchRule{
			RuleID: "rule-" + code, RuleCode: code, Name: name, RuleType: ruleType, IsEnabled: true,
		}
	}
	seedRule("M1", "导师须通过认证", "hard")
	seedRule("M2", "学员须签署承诺", "hard")
	seedRule("M3", "双方须有时间重叠", "hard")
	seedRule("M4", "沟通风格加权", "soft")
	seedRule("M5", "偏好中性默认", "soft")
}

// seedSecondMentee 追加一个与导师同样高匹配度的学员
func seedSecondMentee(repos *testRepos) {
	mentee := &model.User{UserID: "user-mentee-2", Name: "王五", Email: "mentee2@example.com", Role: "member", IsActive: true}
	repos.user.users[mentee.UserID] = mentee
	repos.menteeProfile.profiles["user-mentee-2"] = &model.MenteeProfile{
		MenteeProfileID:  "tp-user-mentee-2",
		UserID:           "user-mentee-2",
		FieldOfInterest:  "分布式系统",
		Skills:           model.StringArray{"Go"},
		Goals:            model.StringArray{"进入互联网行业"},
		PreferredStyle:   "hands-on",
		Preferences:      model.StringArray{"晚间", "线上"},
		CommitmentAgreed: true,
		VersionedModel:   model.VersionedModel{Version: 1},
		User:             mentee,
		Slots: []model.AvailabilitySlot{
			{SlotID: "slot-t2", UserID: "user-mentee-2", DayOfWeek: 1, StartTime: "19:00", EndTime: "21:00", Source: "manual"},
		},
	}
	repos.interest.items = append(repos.interest.items, &model.Interest{
		InterestID: "int-3", CycleID: "cyc-1", UserID: "user-mentee-2",
		Role: model.RoleMentee, Status: model.InterestInterested, User: mentee,
	})
}

// ════════════════════════════════════════════════════════════
// Run 测试
// ════════════════════════════════════════════════════════════

func TestMatchingService_Run_Success(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	resp, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.MenteesMatched != 1 || resp.MenteesUnmatched != 0 {
		t.Fatalf("期望匹配 1 人，实际 matched=%d unmatched=%d", resp.MenteesMatched, resp.MenteesUnmatched)
	}
	m := resp.Matches[0]
	if m.MatchScore != 88 {
		t.Errorf("期望匹配分 88，实际 %d", m.MatchScore)
	}
	if m.Status != model.MatchPending {
		t.Errorf("期望状态 PENDING，实际 %s", m.Status)
	}
	if got := repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees; got != 1 {
		t.Errorf("期望导师名额占用 1，实际 %d", got)
	}
}

func TestMatchingService_Run_Idempotent(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	if _, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin"); err != nil {
		t.Fatalf("首次匹配失败: %v", err)
	}
	resp2, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("重复匹配失败: %v", err)
	}
	// 学员已有未被拒绝的匹配，不再入池，也不产生新行
	if len(repos.match.matches) != 1 {
		t.Fatalf("期望仍只有 1 条匹配，实际 %d", len(repos.match.matches))
	}
	if got := repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees; got != 1 {
		t.Errorf("期望导师名额占用保持 1，实际 %d", got)
	}
	if resp2.MenteesTotal != 0 {
		t.Errorf("期望候选池为空，实际 %d", resp2.MenteesTotal)
	}
}

func TestMatchingService_Run_BelowMinScore(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	minScore := 95
	resp, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1", MinScore: &minScore}, false, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.MenteesMatched != 0 || resp.MenteesUnmatched != 1 {
		t.Fatalf("期望低于阈值不匹配，实际 matched=%d unmatched=%d", resp.MenteesMatched, resp.MenteesUnmatched)
	}
	if len(repos.match.matches) != 0 {
		t.Errorf("期望不落库，实际 %d 条", len(repos.match.matches))
	}
}

func TestMatchingService_Run_NoOverlapExcluded(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	// 学员时段移到周三，与导师无任何重叠
	repos.menteeProfile.profiles["user-mentee-1"].Slots[0].DayOfWeek = 3

	resp, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.MenteesMatched != 0 {
		t.Fatalf("期望 M3 排除无重叠配对，实际匹配 %d", resp.MenteesMatched)
	}
}

func TestMatchingService_Run_M3DisabledAllowsNoOverlap(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	repos.menteeProfile.profiles["user-mentee-1"].Slots[0].DayOfWeek = 3
	repos.matchRule.rules["M3"].IsEnabled = false

	resp, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.MenteesMatched != 1 {
		t.Fatalf("期望 M3 关闭后可匹配，实际 %d", resp.MenteesMatched)
	}
	// 无重叠时时间分为 0：88 - 8 = 80
	if resp.Matches[0].MatchScore != 80 {
		t.Errorf("期望匹配分 80，实际 %d", resp.Matches[0].MatchScore)
	}
}

func TestMatchingService_Run_UnverifiedMentorExcluded(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	repos.mentorProfile.profiles["user-mentor-1"].IsVerified = false

	resp, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.MenteesMatched != 0 {
		t.Fatalf("期望未认证导师被 M1 排除，实际匹配 %d", resp.MenteesMatched)
	}

	// M1 关闭后准入
	repos.matchRule.rules["M1"].IsEnabled = false
	resp, err = svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.MenteesMatched != 1 {
		t.Fatalf("期望 M1 关闭后可匹配，实际 %d", resp.MenteesMatched)
	}
}

func TestMatchingService_Run_CapacityRespected(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	seedSecondMentee(repos)
	repos.mentorProfile.profiles["user-mentor-1"].MaxMentees = 1

	resp, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.MenteesMatched != 1 || resp.MenteesUnmatched != 1 {
		t.Fatalf("期望名额 1 只成 1 对，实际 matched=%d unmatched=%d", resp.MenteesMatched, resp.MenteesUnmatched)
	}
	if got := repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees; got != 1 {
		t.Errorf("期望导师名额占满 1，实际 %d", got)
	}
}

func TestMatchingService_Run_AutoApprove(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	resp, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, true, "user-admin")
	if err != nil {
		t.Fatalf("自动匹配失败: %v", err)
	}
	if resp.Matches[0].Status != model.MatchApproved {
		t.Fatalf("期望直接成立，实际状态 %s", resp.Matches[0].Status)
	}
	if len(repos.mentorship.items) != 1 {
		t.Fatalf("期望实例化 1 条辅导关系，实际 %d", len(repos.mentorship.items))
	}
	ms := repos.mentorship.items[0]
	if ms.Status != model.MentorshipActive {
		t.Errorf("期望辅导关系 ACTIVE，实际 %s", ms.Status)
	}
	program, err := repos.program.GetByMentorshipID(context.Background(), ms.MentorshipID)
	if err != nil {
		t.Fatalf("期望同时创建周计划: %v", err)
	}
	if program.Week != 1 || program.TotalWeeks != 8 {
		t.Errorf("期望周计划从第 1 周开始共 8 周，实际 week=%d total=%d", program.Week, program.TotalWeeks)
	}
	tasks, err := repos.task.ListByMentorshipAndWeek(context.Background(), ms.MentorshipID, 1)
	if err != nil {
		t.Fatalf("查询首周任务失败: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("期望首周生成 3 个标准任务，实际 %d", len(tasks))
	}
}

func TestMatchingService_Run_CycleNotActive(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	repos.cycle.cycles["cyc-1"].Status = model.CycleUpcoming

	_, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if !errors.Is(err, ErrCycleNotActive) {
		t.Fatalf("期望 ErrCycleNotActive，实际 %v", err)
	}
}

func TestMatchingService_Run_CycleNotFound(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	_, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-404"}, false, "user-admin")
	if !errors.Is(err, ErrCycleNotFound) {
		t.Fatalf("期望 ErrCycleNotFound，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// ManualAssign 测试
// ════════════════════════════════════════════════════════════

func TestMatchingService_ManualAssign_Success(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	resp, err := svc.ManualAssign(context.Background(), &dto.ManualAssignRequest{
		CycleID: "cyc-1", MentorID: "user-mentor-1", MenteeID: "user-mentee-1",
	}, "user-admin")
	if err != nil {
		t.Fatalf("手动指派失败: %v", err)
	}
	if resp.Status != model.MatchApproved {
		t.Errorf("期望指派即成立 APPROVED，实际 %s", resp.Status)
	}
	if !resp.MentorApproved || !resp.MenteeApproved {
		t.Error("期望指派后双方确认标志均置位")
	}
	if resp.MatchScore != 88 {
		t.Errorf("期望记录真实计分 88，实际 %d", resp.MatchScore)
	}
	if got := repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees; got != 1 {
		t.Errorf("期望导师名额占用 1，实际 %d", got)
	}

	// 跳过双方确认，直接实例化辅导关系与首周计划
	if len(repos.mentorship.items) != 1 {
		t.Fatalf("期望实例化 1 条辅导关系，实际 %d", len(repos.mentorship.items))
	}
	ms := repos.mentorship.items[0]
	if ms.Status != model.MentorshipActive {
		t.Errorf("期望辅导关系 ACTIVE，实际 %s", ms.Status)
	}
	program, err := repos.program.GetByMentorshipID(context.Background(), ms.MentorshipID)
	if err != nil {
		t.Fatalf("期望同时创建周计划: %v", err)
	}
	if program.Week != 1 {
		t.Errorf("期望周计划从第 1 周开始，实际 %d", program.Week)
	}
	tasks, err := repos.task.ListByMentorshipAndWeek(context.Background(), ms.MentorshipID, 1)
	if err != nil {
		t.Fatalf("查询首周任务失败: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("期望首周生成 3 个标准任务，实际 %d", len(tasks))
	}
}

func TestMatchingService_ManualAssign_PairExists(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	req := &dto.ManualAssignRequest{CycleID: "cyc-1", MentorID: "user-mentor-1", MenteeID: "user-mentee-1"}
	if _, err := svc.ManualAssign(context.Background(), req, "user-admin"); err != nil {
		t.Fatalf("首次指派失败: %v", err)
	}
	_, err := svc.ManualAssign(context.Background(), req, "user-admin")
	if !errors.Is(err, ErrMatchPairExists) {
		t.Fatalf("期望 ErrMatchPairExists，实际 %v", err)
	}
}

func TestMatchingService_ManualAssign_MenteeNotEligible(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	repos.menteeProfile.profiles["user-mentee-1"].CommitmentAgreed = false

	_, err := svc.ManualAssign(context.Background(), &dto.ManualAssignRequest{
		CycleID: "cyc-1", MentorID: "user-mentor-1", MenteeID: "user-mentee-1",
	}, "user-admin")
	if !errors.Is(err, ErrMenteeNotEligible) {
		t.Fatalf("期望 ErrMenteeNotEligible，实际 %v", err)
	}
}

func TestMatchingService_ManualAssign_CapacityFull(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	seedSecondMentee(repos)
	repos.mentorProfile.profiles["user-mentor-1"].MaxMentees = 1
	repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees = 1

	_, err := svc.ManualAssign(context.Background(), &dto.ManualAssignRequest{
		CycleID: "cyc-1", MentorID: "user-mentor-1", MenteeID: "user-mentee-2",
	}, "user-admin")
	if !errors.Is(err, ErrMentorCapacityFull) {
		t.Fatalf("期望 ErrMentorCapacityFull，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Respond 测试
// ════════════════════════════════════════════════════════════

func seedPendingMatch(t *testing.T, svc MatchingService) string {
	t.Helper()
	run, err := svc.Run(context.Background(), &dto.RunMatchingRequest{CycleID: "cyc-1"}, false, "user-admin")
	if err != nil {
		t.Fatalf("准备待确认匹配失败: %v", err)
	}
	if len(run.Matches) != 1 {
		t.Fatalf("期望产生 1 条待确认匹配，实际 %d", len(run.Matches))
	}
	return run.Matches[0].ID
}

func TestMatchingService_Respond_OneSideApproval(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	matchID := seedPendingMatch(t, svc)

	resp, err := svc.Respond(context.Background(), matchID, "user-mentor-1", true)
	if err != nil {
		t.Fatalf("导师确认失败: %v", err)
	}
	if resp.Status != model.MatchPending {
		t.Errorf("期望单方确认后仍 PENDING，实际 %s", resp.Status)
	}
	if !resp.MentorApproved || resp.MenteeApproved {
		t.Errorf("期望仅导师位置位，实际 mentor=%v mentee=%v", resp.MentorApproved, resp.MenteeApproved)
	}
	if len(repos.mentorship.items) != 0 {
		t.Errorf("期望未实例化辅导关系，实际 %d", len(repos.mentorship.items))
	}
}

func TestMatchingService_Respond_BothApproveInstantiates(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	matchID := seedPendingMatch(t, svc)

	if _, err := svc.Respond(context.Background(), matchID, "user-mentor-1", true); err != nil {
		t.Fatalf("导师确认失败: %v", err)
	}
	resp, err := svc.Respond(context.Background(), matchID, "user-mentee-1", true)
	if err != nil {
		t.Fatalf("学员确认失败: %v", err)
	}
	if resp.Status != model.MatchApproved {
		t.Fatalf("期望双方确认后 APPROVED，实际 %s", resp.Status)
	}
	if len(repos.mentorship.items) != 1 {
		t.Fatalf("期望实例化 1 条辅导关系，实际 %d", len(repos.mentorship.items))
	}
	if repos.mentorship.items[0].Status != model.MentorshipActive {
		t.Errorf("期望辅导关系 ACTIVE，实际 %s", repos.mentorship.items[0].Status)
	}
}

func TestMatchingService_Respond_RejectReleasesCapacity(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	matchID := seedPendingMatch(t, svc)

	resp, err := svc.Respond(context.Background(), matchID, "user-mentee-1", false)
	if err != nil {
		t.Fatalf("拒绝匹配失败: %v", err)
	}
	if resp.Status != model.MatchRejected {
		t.Fatalf("期望 REJECTED，实际 %s", resp.Status)
	}
	if got := repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees; got != 0 {
		t.Errorf("期望拒绝后释放名额，实际 %d", got)
	}
}

func TestMatchingService_Respond_NotParticipant(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	matchID := seedPendingMatch(t, svc)

	_, err := svc.Respond(context.Background(), matchID, "user-other", true)
	if !errors.Is(err, ErrMatchNotParticipant) {
		t.Fatalf("期望 ErrMatchNotParticipant，实际 %v", err)
	}
}

func TestMatchingService_Respond_NotPending(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	matchID := seedPendingMatch(t, svc)

	if _, err := svc.Respond(context.Background(), matchID, "user-mentee-1", false); err != nil {
		t.Fatalf("拒绝匹配失败: %v", err)
	}
	_, err := svc.Respond(context.Background(), matchID, "user-mentor-1", true)
	if !errors.Is(err, ErrMatchNotPending) {
		t.Fatalf("期望 ErrMatchNotPending，实际 %v", err)
	}
}

func TestMatchingService_Respond_CycleCapacityReached(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	repos.cycle.cycles["cyc-1"].MaxMentorships = 0
	matchID := seedPendingMatch(t, svc)

	if _, err := svc.Respond(context.Background(), matchID, "user-mentor-1", true); err != nil {
		t.Fatalf("导师确认失败: %v", err)
	}
	_, err := svc.Respond(context.Background(), matchID, "user-mentee-1", true)
	if !errors.Is(err, ErrCycleCapacityReached) {
		t.Fatalf("期望 ErrCycleCapacityReached，实际 %v", err)
	}

	// 容量校验失败时不得落库 APPROVED：匹配保持待确认，无辅导关系残留
	if got := repos.match.matches[0].Status; got != model.MatchPending {
		t.Fatalf("期望容量不足时匹配保持 PENDING，实际 %s", got)
	}
	if len(repos.mentorship.items) != 0 {
		t.Fatalf("期望无辅导关系实例化，实际 %d", len(repos.mentorship.items))
	}

	// 容量释放后同一匹配可重试成立
	repos.cycle.cycles["cyc-1"].MaxMentorships = 10
	resp, err := svc.Respond(context.Background(), matchID, "user-mentee-1", true)
	if err != nil {
		t.Fatalf("容量释放后重试失败: %v", err)
	}
	if resp.Status != model.MatchApproved {
		t.Fatalf("期望重试后 APPROVED，实际 %s", resp.Status)
	}
	if len(repos.mentorship.items) != 1 {
		t.Fatalf("期望重试后实例化 1 条辅导关系，实际 %d", len(repos.mentorship.items))
	}
}

// ApproveMany 是管理员操作：调用者不是匹配双方也要能生效
func TestMatchingService_ApproveMany_AdminApprovesBoth(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	matchID := seedPendingMatch(t, svc)

	resp := svc.ApproveMany(context.Background(), []string{matchID, "match-404"}, "user-admin")
	if len(resp.Results) != 2 {
		t.Fatalf("期望逐条返回 2 个结果，实际 %d", len(resp.Results))
	}
	if resp.Results[0].Error != "" {
		t.Fatalf("管理员批量确认失败: %s", resp.Results[0].Error)
	}
	if resp.Results[0].Status != model.MatchApproved {
		t.Errorf("期望 APPROVED，实际 %s", resp.Results[0].Status)
	}
	if resp.Results[1].Error == "" {
		t.Error("期望未知匹配返回错误")
	}

	if got := repos.match.matches[0]; !got.MentorApproved || !got.MenteeApproved {
		t.Error("期望管理员确认后双方标志均置位")
	}
	if len(repos.mentorship.items) != 1 {
		t.Fatalf("期望实例化 1 条辅导关系，实际 %d", len(repos.mentorship.items))
	}
}

func TestMatchingService_ManualAssign_CycleCapacityReached(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	repos.cycle.cycles["cyc-1"].MaxMentorships = 0

	_, err := svc.ManualAssign(context.Background(), &dto.ManualAssignRequest{
		CycleID: "cyc-1", MentorID: "user-mentor-1", MenteeID: "user-mentee-1",
	}, "user-admin")
	if !errors.Is(err, ErrCycleCapacityReached) {
		t.Fatalf("期望 ErrCycleCapacityReached，实际 %v", err)
	}
	// 预检在预留导师名额之前，失败不消耗名额
	if got := repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees; got != 0 {
		t.Errorf("期望未消耗导师名额，实际 %d", got)
	}
}

// ════════════════════════════════════════════════════════════
// 规则与候选池测试
// ════════════════════════════════════════════════════════════

func TestMatchingService_GetCandidatePool(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	pool, err := svc.GetCandidatePool(context.Background(), "cyc-1")
	if err != nil {
		t.Fatalf("查询候选池失败: %v", err)
	}
	if len(pool.Mentors) != 1 || len(pool.Mentees) != 1 {
		t.Fatalf("期望 1 导师 1 学员，实际 %d/%d", len(pool.Mentors), len(pool.Mentees))
	}
}

func TestMatchingService_SetRuleEnabled(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	if err := svc.SetRuleEnabled(context.Background(), "M3", false, "user-admin"); err != nil {
		t.Fatalf("关闭规则失败: %v", err)
	}
	if repos.matchRule.rules["M3"].IsEnabled {
		t.Error("期望 M3 已关闭")
	}
	if err := svc.SetRuleEnabled(context.Background(), "M9", false, "user-admin"); !errors.Is(err, ErrMatchRuleNotFound) {
		t.Fatalf("期望 ErrMatchRuleNotFound，实际 %v", err)
	}
}

func TestMatchingService_SendOnboardingNotifications(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)
	seedSecondMentee(repos)

	resp, err := svc.SendOnboardingNotifications(context.Background(), &dto.OnboardingNotifyRequest{CycleID: "cyc-1"})
	if err != nil {
		t.Fatalf("发送入驻引导失败: %v", err)
	}
	if resp.CycleID != "cyc-1" {
		t.Errorf("期望周期 cyc-1，实际 %s", resp.CycleID)
	}
	if resp.Recipients != 3 {
		t.Errorf("期望通知 3 人，实际 %d", resp.Recipients)
	}

	// 仅通知学员侧
	resp, err = svc.SendOnboardingNotifications(context.Background(), &dto.OnboardingNotifyRequest{CycleID: "cyc-1", TargetRole: model.RoleMentee})
	if err != nil {
		t.Fatalf("发送入驻引导失败: %v", err)
	}
	if resp.Recipients != 2 {
		t.Errorf("期望通知 2 人，实际 %d", resp.Recipients)
	}
}

func TestMatchingService_SendOnboardingNotifications_DefaultsToActiveCycle(t *testing.T) {
	svc, repos := setupTestMatchingService()
	seedBasicData(repos)

	resp, err := svc.SendOnboardingNotifications(context.Background(), &dto.OnboardingNotifyRequest{})
	if err != nil {
		t.Fatalf("发送入驻引导失败: %v", err)
	}
	if resp.CycleID != "cyc-1" {
		t.Errorf("期望解析到进行中周期 cyc-1，实际 %s", resp.CycleID)
	}
}

func TestMatchingService_SendOnboardingNotifications_NoCycle(t *testing.T) {
	svc, repos := setupTestMatchingService()

	if _, err := svc.SendOnboardingNotifications(context.Background(), &dto.OnboardingNotifyRequest{}); !errors.Is(err, ErrNoActiveCycle) {
		t.Fatalf("期望 ErrNoActiveCycle，实际 %v", err)
	}

	seedBasicData(repos)
	if _, err := svc.SendOnboardingNotifications(context.Background(), &dto.OnboardingNotifyRequest{CycleID: "cyc-999"}); !errors.Is(err, ErrCycleNotFound) {
		t.Fatalf("期望 ErrCycleNotFound，实际 %v", err)
	}
}
