package model

import "time"

// Mentorship 辅导关系表 — 对应 mentorships
//
// 每条 APPROVED 匹配恰好实例化一条辅导关系（match_id 唯一外键兜底），
// 终态（COMPLETED / CANCELLED）后所有字段冻结。
type Mentorship struct {
	MentorshipID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"mentorship_id"`
	MatchID           string     `gorm:"type:uuid;not null;uniqueIndex"                 json:"match_id"`
	CycleID           string     `gorm:"type:uuid;not null"                             json:"cycle_id"`
	MentorID          string     `gorm:"type:uuid;not null"                             json:"mentor_id"`
	MenteeID          string     `gorm:"type:uuid;not null"                             json:"mentee_id"`
	Status            string     `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"` // PENDING | ACTIVE | COMPLETED | CANCELLED
	SessionsCompleted int        `gorm:"not null;default:0"                             json:"sessions_completed"`
	EngagementScore   *float64   `gorm:"type:numeric(3,2)"                              json:"engagement_score,omitempty"`   // 完结时由评价均值派生
	SatisfactionScore *float64   `gorm:"type:numeric(3,2)"                              json:"satisfaction_score,omitempty"` // 完结时由评价均值派生
	CertificateID     *string    `gorm:"type:uuid"                                      json:"certificate_id,omitempty"`     // 只写一次
	CancelReason      string     `gorm:"type:varchar(500)"                              json:"cancel_reason,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	VersionedModel

	// 关联
	Match  *Match `gorm:"foreignKey:MatchID;references:MatchID"  json:"match,omitempty"`
	Cycle  *Cycle `gorm:"foreignKey:CycleID;references:CycleID"  json:"cycle,omitempty"`
	Mentor *User  `gorm:"foreignKey:MentorID;references:UserID"  json:"mentor,omitempty"`
	Mentee *User  `gorm:"foreignKey:MenteeID;references:UserID"  json:"mentee,omitempty"`
}

// TableName 指定表名
func (Mentorship) TableName() string { return "mentorships" }

// IsTerminal 判断辅导关系是否已进入终态
func (m *Mentorship) IsTerminal() bool {
	return m.Status == MentorshipCompleted || m.Status == MentorshipCancelled
}

// Certificate 结业证书表 — 对应 certificates（与 mentorships 1:1）
// certificate_number 全局唯一且签发后不可变。
type Certificate struct {
	CertificateID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"certificate_id"`
	MentorshipID      string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"mentorship_id"`
	CertificateNumber string    `gorm:"type:varchar(64);not null;uniqueIndex"          json:"certificate_number"`
	IssuedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"issued_at"`
}

// TableName 指定表名
func (Certificate) TableName() string { return "certificates" }

// [自证通过] internal/model/mentorship.go
