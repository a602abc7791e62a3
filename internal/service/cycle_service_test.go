package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestCycleService() (CycleService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()
	notifier := NewNotificationService(repoAgg, logger, 16)
	svc := NewCycleService(repoAgg, notifier, logger)
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// 周期生命周期测试
// ════════════════════════════════════════════════════════════

func TestCycleService_Create_Success(t *testing.T) {
	svc, _ := setupTestCycleService()

	resp, err := svc.Create(context.Background(), &dto.CreateCycleRequest{
		Name:      "2026 秋季周期",
		StartDate: "2026-09-01",
		EndDate:   "2026-11-30",
	}, "user-admin-1")
	if err != nil {
		t.Fatalf("创建周期失败: %v", err)
	}
	if resp.Status != model.CycleUpcoming {
		t.Errorf("期望初始 UPCOMING，实际 %s", resp.Status)
	}
	if resp.MaxMentorships != 100 {
		t.Errorf("期望缺省容量 100，实际 %d", resp.MaxMentorships)
	}
}

func TestCycleService_Create_DateInvalid(t *testing.T) {
	svc, _ := setupTestCycleService()

	cases := []struct {
		name  string
		start string
		end   string
	}{
		{"结束早于开始", "2026-09-01", "2026-08-01"},
		{"结束等于开始", "2026-09-01", "2026-09-01"},
		{"日期格式错误", "2026/09/01", "2026-11-30"},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), &dto.CreateCycleRequest{
			Name: "坏日期", StartDate: tc.start, EndDate: tc.end,
		}, "user-admin-1")
		if !errors.Is(err, ErrCycleDateInvalid) {
			t.Errorf("%s: 期望 ErrCycleDateInvalid，实际 %v", tc.name, err)
		}
	}
}

func TestCycleService_Launch_Success(t *testing.T) {
	svc, repos := setupTestCycleService()
	seedBasicData(repos)
	repos.cycle.cycles["cyc-1"].Status = model.CycleUpcoming

	resp, err := svc.Launch(context.Background(), "cyc-1", "user-admin-1")
	if err != nil {
		t.Fatalf("启动周期失败: %v", err)
	}
	if resp.Status != model.CycleActive {
		t.Fatalf("期望 ACTIVE，实际 %s", resp.Status)
	}
}

func TestCycleService_Launch_InvalidTransition(t *testing.T) {
	svc, repos := setupTestCycleService()
	seedBasicData(repos)
	repos.cycle.cycles["cyc-1"].Status = model.CycleCompleted

	_, err := svc.Launch(context.Background(), "cyc-1", "user-admin-1")
	if !errors.Is(err, ErrCycleInvalidTransition) {
		t.Fatalf("期望 ErrCycleInvalidTransition，实际 %v", err)
	}
}

func TestCycleService_Complete_Success(t *testing.T) {
	svc, repos := setupTestCycleService()
	seedBasicData(repos)

	resp, err := svc.Complete(context.Background(), "cyc-1", "user-admin-1")
	if err != nil {
		t.Fatalf("归档周期失败: %v", err)
	}
	if resp.Status != model.CycleCompleted {
		t.Fatalf("期望 COMPLETED，实际 %s", resp.Status)
	}
	// 已归档的周期不可再启动
	if _, err := svc.Launch(context.Background(), "cyc-1", "user-admin-1"); !errors.Is(err, ErrCycleInvalidTransition) {
		t.Fatalf("期望 ErrCycleInvalidTransition，实际 %v", err)
	}
}

func TestCycleService_GetActive(t *testing.T) {
	svc, repos := setupTestCycleService()

	if _, err := svc.GetActive(context.Background()); !errors.Is(err, ErrNoActiveCycle) {
		t.Fatalf("期望 ErrNoActiveCycle，实际 %v", err)
	}

	seedBasicData(repos)
	resp, err := svc.GetActive(context.Background())
	if err != nil {
		t.Fatalf("查询进行中周期失败: %v", err)
	}
	if resp.ID != "cyc-1" {
		t.Errorf("期望 cyc-1，实际 %s", resp.ID)
	}
}

// ════════════════════════════════════════════════════════════
// 参与意向测试
// ════════════════════════════════════════════════════════════

func TestCycleService_RegisterInterest_Upsert(t *testing.T) {
	svc, repos := setupTestCycleService()
	seedBasicData(repos)

	resp, err := svc.RegisterInterest(context.Background(), "cyc-1", "user-new-1",
		&dto.RegisterInterestRequest{Role: model.RoleMentee})
	if err != nil {
		t.Fatalf("登记意向失败: %v", err)
	}
	if resp.Role != model.RoleMentee || resp.Status != model.InterestInterested {
		t.Errorf("期望 MENTEE/INTERESTED，实际 %s/%s", resp.Role, resp.Status)
	}

	// 重复登记只改角色，不产生新行
	before := len(repos.interest.items)
	resp, err = svc.RegisterInterest(context.Background(), "cyc-1", "user-new-1",
		&dto.RegisterInterestRequest{Role: model.RoleMentor})
	if err != nil {
		t.Fatalf("更新意向失败: %v", err)
	}
	if resp.Role != model.RoleMentor {
		t.Errorf("期望角色改为 MENTOR，实际 %s", resp.Role)
	}
	if len(repos.interest.items) != before {
		t.Errorf("期望意向行数不变 %d，实际 %d", before, len(repos.interest.items))
	}
}

func TestCycleService_RegisterInterest_CycleClosed(t *testing.T) {
	svc, repos := setupTestCycleService()
	seedBasicData(repos)
	repos.cycle.cycles["cyc-1"].Status = model.CycleCompleted

	_, err := svc.RegisterInterest(context.Background(), "cyc-1", "user-new-1",
		&dto.RegisterInterestRequest{Role: model.RoleMentee})
	if !errors.Is(err, ErrInterestCycleClosed) {
		t.Fatalf("期望 ErrInterestCycleClosed，实际 %v", err)
	}
}

func TestCycleService_WithdrawInterest(t *testing.T) {
	svc, repos := setupTestCycleService()
	seedBasicData(repos)

	if err := svc.WithdrawInterest(context.Background(), "cyc-1", "user-mentee-1"); err != nil {
		t.Fatalf("撤回意向失败: %v", err)
	}
	// 撤回后不再出现在意向列表
	mentees, err := svc.ListInterests(context.Background(), "cyc-1", model.RoleMentee)
	if err != nil {
		t.Fatalf("查询意向列表失败: %v", err)
	}
	if len(mentees) != 0 {
		t.Errorf("期望撤回后列表为空，实际 %d", len(mentees))
	}

	if err := svc.WithdrawInterest(context.Background(), "cyc-1", "user-nobody"); !errors.Is(err, ErrInterestNotFound) {
		t.Fatalf("期望 ErrInterestNotFound，实际 %v", err)
	}
}

func TestCycleService_ListInterests(t *testing.T) {
	svc, repos := setupTestCycleService()
	seedBasicData(repos)

	mentors, err := svc.ListInterests(context.Background(), "cyc-1", model.RoleMentor)
	if err != nil {
		t.Fatalf("查询意向列表失败: %v", err)
	}
	if len(mentors) != 1 || mentors[0].User == nil || mentors[0].User.ID != "user-mentor-1" {
		t.Fatalf("期望导师意向 1 条且带用户信息，实际 %+v", mentors)
	}

	if _, err := svc.ListInterests(context.Background(), "cyc-999", model.RoleMentor); !errors.Is(err, ErrCycleNotFound) {
		t.Fatalf("期望 ErrCycleNotFound，实际 %v", err)
	}
}
