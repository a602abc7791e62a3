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

func setupTestNotificationService() (NotificationService, *testRepos) {
	repos := newTestRepos()
	svc := NewNotificationService(repos.toRepository(), zap.NewNop(), 16)
	return svc, repos
}

// flush 关闭服务并等待队列排空，使落库结果可断言
func flush(t *testing.T, svc NotificationService) {
	t.Helper()
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Fatalf("关闭通知服务失败: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 投递测试
// ════════════════════════════════════════════════════════════

func TestNotificationService_Notify_Delivers(t *testing.T) {
	svc, repos := setupTestNotificationService()

	svc.Notify([]string{"user-a", "user-b"}, model.NotifMatchProposed,
		"新的匹配提议", "系统为你生成了一条匹配提议。", "match", "match-1")
	flush(t, svc)

	if len(repos.notification.notifications) != 2 {
		t.Fatalf("期望落库 2 条通知，实际 %d", len(repos.notification.notifications))
	}
	n := repos.notification.notifications[0]
	if n.Type != model.NotifMatchProposed || n.IsRead {
		t.Errorf("期望未读的 match_proposed 通知，实际 %+v", n)
	}
	if n.RelatedType == nil || *n.RelatedType != "match" {
		t.Errorf("期望关联类型 match，实际 %v", n.RelatedType)
	}
}

func TestNotificationService_Notify_DisabledBySystemConfig(t *testing.T) {
	svc, repos := setupTestNotificationService()
	repos.systemConfig.config = &model.SystemConfig{NotificationsEnabled: false}

	svc.Notify([]string{"user-a"}, model.NotifCycleLaunched, "周期已启动", "内容", "cycle", "cyc-1")
	flush(t, svc)

	if len(repos.notification.notifications) != 0 {
		t.Fatalf("期望全局开关关闭时不落库，实际 %d 条", len(repos.notification.notifications))
	}
}

func TestNotificationService_Notify_EmptyRecipients(t *testing.T) {
	svc, repos := setupTestNotificationService()

	svc.Notify(nil, model.NotifCycleLaunched, "周期已启动", "内容", "", "")
	flush(t, svc)

	if len(repos.notification.notifications) != 0 {
		t.Fatalf("期望无接收人时不落库，实际 %d 条", len(repos.notification.notifications))
	}
}

// ════════════════════════════════════════════════════════════
// 查询与已读测试
// ════════════════════════════════════════════════════════════

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	svc, _ := setupTestNotificationService()

	svc.Notify([]string{"user-a"}, model.NotifTaskCompleted, "第一条", "内容", "", "")
	svc.Notify([]string{"user-a"}, model.NotifWeekAdvanced, "第二条", "内容", "", "")
	svc.Notify([]string{"user-b"}, model.NotifTaskCompleted, "别人的", "内容", "", "")
	flush(t, svc)

	list, total, err := svc.List(context.Background(), "user-a",
		&dto.NotificationListRequest{})
	if err != nil {
		t.Fatalf("查询通知列表失败: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("期望 2 条，实际 total=%d len=%d", total, len(list))
	}
	// 最新在前
	if list[0].Title != "第二条" {
		t.Errorf("期望最新在前，实际首条 %s", list[0].Title)
	}

	if err := svc.MarkRead(context.Background(), list[0].ID, "user-a"); err != nil {
		t.Fatalf("标记已读失败: %v", err)
	}
	count, err := svc.UnreadCount(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("查询未读数失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望未读 1，实际 %d", count)
	}

	// 只看未读
	unread, _, err := svc.List(context.Background(), "user-a",
		&dto.NotificationListRequest{UnreadOnly: true})
	if err != nil {
		t.Fatalf("查询未读列表失败: %v", err)
	}
	if len(unread) != 1 || unread[0].Title != "第一条" {
		t.Fatalf("期望仅剩第一条未读，实际 %+v", unread)
	}

	if err := svc.MarkAllRead(context.Background(), "user-a"); err != nil {
		t.Fatalf("全部标记已读失败: %v", err)
	}
	count, _ = svc.UnreadCount(context.Background(), "user-a")
	if count != 0 {
		t.Errorf("期望未读 0，实际 %d", count)
	}
}

func TestNotificationService_MarkRead_NotFound(t *testing.T) {
	svc, repos := setupTestNotificationService()

	svc.Notify([]string{"user-b"}, model.NotifTaskCompleted, "别人的", "内容", "", "")
	flush(t, svc)

	// 不存在的 ID 与属于他人的通知都视为不存在
	if err := svc.MarkRead(context.Background(), "notif-999", "user-a"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("期望 ErrNotificationNotFound，实际 %v", err)
	}
	id := repos.notification.notifications[0].NotificationID
	if err := svc.MarkRead(context.Background(), id, "user-a"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("期望 ErrNotificationNotFound，实际 %v", err)
	}
}
