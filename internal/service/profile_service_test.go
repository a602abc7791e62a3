package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"havia/backend/internal/dto"
)

// ── 测试辅助 ──

func setupTestProfileService() (ProfileService, *testRepos) {
	repos := newTestRepos()
	svc := NewProfileService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// 导师档案测试
// ════════════════════════════════════════════════════════════

func TestProfileService_UpsertMentorProfile(t *testing.T) {
	svc, _ := setupTestProfileService()

	resp, err := svc.UpsertMentorProfile(context.Background(), "user-1", &dto.UpsertMentorProfileRequest{
		Themes:   []string{"Go", "云原生"},
		Industry: "互联网",
	})
	if err != nil {
		t.Fatalf("保存导师档案失败: %v", err)
	}
	if resp.MaxMentees != 3 {
		t.Errorf("期望缺省上限 3，实际 %d", resp.MaxMentees)
	}
	if resp.IsVerified {
		t.Error("期望新档案未认证")
	}

	// 更新不丢失认证状态
	if _, err := svc.VerifyMentor(context.Background(), "user-1", true, "user-admin-1"); err != nil {
		t.Fatalf("认证导师失败: %v", err)
	}
	resp, err = svc.UpsertMentorProfile(context.Background(), "user-1", &dto.UpsertMentorProfileRequest{
		MaxMentees: 5,
		Themes:     []string{"Go"},
	})
	if err != nil {
		t.Fatalf("更新导师档案失败: %v", err)
	}
	if !resp.IsVerified {
		t.Error("期望更新后保留认证状态")
	}
	if resp.MaxMentees != 5 {
		t.Errorf("期望上限 5，实际 %d", resp.MaxMentees)
	}
}

func TestProfileService_UpsertMentorProfile_MaxBelowLoad(t *testing.T) {
	svc, repos := setupTestProfileService()
	seedBasicData(repos)
	repos.mentorProfile.profiles["user-mentor-1"].CurrentMentees = 2

	_, err := svc.UpsertMentorProfile(context.Background(), "user-mentor-1", &dto.UpsertMentorProfileRequest{
		MaxMentees: 1,
		Themes:     []string{"Go"},
	})
	if !errors.Is(err, ErrMaxMenteesBelowLoad) {
		t.Fatalf("期望 ErrMaxMenteesBelowLoad，实际 %v", err)
	}
}

func TestProfileService_VerifyMentor_NotFound(t *testing.T) {
	svc, _ := setupTestProfileService()

	_, err := svc.VerifyMentor(context.Background(), "user-nobody", true, "user-admin-1")
	if !errors.Is(err, ErrMentorProfileNotFound) {
		t.Fatalf("期望 ErrMentorProfileNotFound，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 学员档案测试
// ════════════════════════════════════════════════════════════

func TestProfileService_UpsertMenteeProfile(t *testing.T) {
	svc, _ := setupTestProfileService()

	resp, err := svc.UpsertMenteeProfile(context.Background(), "user-2", &dto.UpsertMenteeProfileRequest{
		FieldOfInterest:  "分布式系统",
		Skills:           []string{"Go"},
		ExperienceLevel:  "beginner",
		CommitmentAgreed: true,
	})
	if err != nil {
		t.Fatalf("保存学员档案失败: %v", err)
	}
	if !resp.CommitmentAgreed {
		t.Error("期望已签署承诺")
	}
	if resp.Goals == nil || resp.Preferences == nil {
		t.Error("期望未填字段为空数组而非 null")
	}

	if _, err := svc.GetMenteeProfile(context.Background(), "user-nobody"); !errors.Is(err, ErrMenteeProfileNotFound) {
		t.Fatalf("期望 ErrMenteeProfileNotFound，实际 %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 可用时间段测试
// ════════════════════════════════════════════════════════════

func TestProfileService_SlotLifecycle(t *testing.T) {
	svc, _ := setupTestProfileService()

	slot, err := svc.AddSlot(context.Background(), "user-1", &dto.CreateSlotRequest{
		DayOfWeek: 2, StartTime: "19:00", EndTime: "21:00",
	})
	if err != nil {
		t.Fatalf("新增时间段失败: %v", err)
	}
	if slot.Source != "manual" {
		t.Errorf("期望来源 manual，实际 %s", slot.Source)
	}

	slots, err := svc.ListSlots(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("查询时间段失败: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("期望 1 个时间段，实际 %d", len(slots))
	}

	if err := svc.DeleteSlot(context.Background(), slot.ID, "user-1"); err != nil {
		t.Fatalf("删除时间段失败: %v", err)
	}
	if err := svc.DeleteSlot(context.Background(), slot.ID, "user-1"); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("期望 ErrSlotNotFound，实际 %v", err)
	}
}

func TestProfileService_AddSlot_TimeInvalid(t *testing.T) {
	svc, _ := setupTestProfileService()

	cases := []dto.CreateSlotRequest{
		{DayOfWeek: 1, StartTime: "21:00", EndTime: "19:00"},
		{DayOfWeek: 1, StartTime: "19:00", EndTime: "19:00"},
		{DayOfWeek: 1, StartTime: "7pm", EndTime: "21:00"},
	}
	for _, req := range cases {
		if _, err := svc.AddSlot(context.Background(), "user-1", &req); !errors.Is(err, ErrSlotTimeInvalid) {
			t.Errorf("%s-%s: 期望 ErrSlotTimeInvalid，实际 %v", req.StartTime, req.EndTime, err)
		}
	}
}

func TestProfileService_ImportICS_ReplacesPreviousImport(t *testing.T) {
	svc, repos := setupTestProfileService()

	// 手动时段不受导入影响
	if _, err := svc.AddSlot(context.Background(), "user-1", &dto.CreateSlotRequest{
		DayOfWeek: 6, StartTime: "10:00", EndTime: "12:00",
	}); err != nil {
		t.Fatalf("新增时间段失败: %v", err)
	}

	first, err := svc.ImportICS(context.Background(), "user-1", &dto.ImportICSRequest{
		ICSContent: sampleICS, WindowStart: "09:00", WindowEnd: "18:00",
	})
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if first.SlotsImported != 8 {
		t.Fatalf("期望导入 8 个时段，实际 %d", first.SlotsImported)
	}

	// 重复导入覆盖上次结果而非累加
	second, err := svc.ImportICS(context.Background(), "user-1", &dto.ImportICSRequest{
		ICSContent: sampleICS, WindowStart: "09:00", WindowEnd: "18:00",
	})
	if err != nil {
		t.Fatalf("重复导入失败: %v", err)
	}
	if second.SlotsImported != 8 {
		t.Fatalf("期望导入 8 个时段，实际 %d", second.SlotsImported)
	}
	var manual, ics int
	for _, s := range repos.availability.slots {
		if s.UserID != "user-1" {
			continue
		}
		switch s.Source {
		case "manual":
			manual++
		case "ics":
			ics++
		}
	}
	if manual != 1 || ics != 8 {
		t.Errorf("期望手动 1 / 导入 8，实际 %d / %d", manual, ics)
	}
}

func TestProfileService_ImportICS_ParseFailed(t *testing.T) {
	svc, _ := setupTestProfileService()

	_, err := svc.ImportICS(context.Background(), "user-1", &dto.ImportICSRequest{ICSContent: "not a calendar"})
	if !errors.Is(err, ErrICSParseFailed) {
		t.Fatalf("期望 ErrICSParseFailed，实际 %v", err)
	}
}
