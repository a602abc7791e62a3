package model

// MentorProfile 导师档案表 — 对应 mentor_profiles（与 users 1:1）
//
// CurrentMentees 是容量计数的唯一事实来源，随匹配创建/关系终止事务性增减；
// 按子表实时统计的数量仅作为统计页的派生校验值。
type MentorProfile struct {
	MentorProfileID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"mentor_profile_id"`
	UserID          string      `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	MaxMentees      int         `gorm:"not null;default:3"                             json:"max_mentees"`
	CurrentMentees  int         `gorm:"not null;default:0"                             json:"current_mentees"` // 0 <= current <= max
	Themes          StringArray `gorm:"type:text[];not null;default:'{}'"              json:"themes"`
	Industry        string      `gorm:"type:varchar(100)"                              json:"industry,omitempty"`
	Company         string      `gorm:"type:varchar(100)"                              json:"company,omitempty"`
	MentoringStyle  string      `gorm:"type:varchar(50)"                               json:"mentoring_style,omitempty"`
	Preferences     StringArray `gorm:"type:text[];not null;default:'{}'"              json:"preferences"`
	IsVerified      bool        `gorm:"not null;default:false"                         json:"is_verified"`
	IsActive        bool        `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	User  *User              `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Slots []AvailabilitySlot `gorm:"foreignKey:UserID;references:UserID" json:"slots,omitempty"`
}

// TableName 指定表名
func (MentorProfile) TableName() string { return "mentor_profiles" }

// HasCapacity 判断导师是否还有带教余量
func (p *MentorProfile) HasCapacity() bool { return p.CurrentMentees < p.MaxMentees }

// MenteeProfile 学员档案表 — 对应 mentee_profiles（与 users 1:1）
type MenteeProfile struct {
	MenteeProfileID  string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"mentee_profile_id"`
	UserID           string      `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	FieldOfInterest  string      `gorm:"type:varchar(100)"                              json:"field_of_interest,omitempty"`
	Skills           StringArray `gorm:"type:text[];not null;default:'{}'"              json:"skills"`
	Goals            StringArray `gorm:"type:text[];not null;default:'{}'"              json:"goals"`
	ExperienceLevel  string      `gorm:"type:varchar(20)"                               json:"experience_level,omitempty"` // beginner | intermediate | advanced
	PreferredStyle   string      `gorm:"type:varchar(50)"                               json:"preferred_style,omitempty"`
	Preferences      StringArray `gorm:"type:text[];not null;default:'{}'"              json:"preferences"`
	CommitmentAgreed bool        `gorm:"not null;default:false"                         json:"commitment_agreed"` // 未签署承诺即无匹配资格
	VersionedModel

	// 关联
	User  *User              `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Slots []AvailabilitySlot `gorm:"foreignKey:UserID;references:UserID" json:"slots,omitempty"`
}

// TableName 指定表名
func (MenteeProfile) TableName() string { return "mentee_profiles" }

// AvailabilitySlot 每周可用时间段表 — 对应 availability_slots
// 导师与学员共用，按 user_id 归属；时间为周内循环时段。
type AvailabilitySlot struct {
	SlotID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"slot_id"`
	UserID    string `gorm:"type:uuid;not null;index"                       json:"user_id"`
	DayOfWeek int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1=周一 … 7=周日
	StartTime string `gorm:"type:varchar(5);not null"                       json:"start_time"`  // "HH:MM"
	EndTime   string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	Source    string `gorm:"type:varchar(10);not null;default:'manual'"     json:"source"` // manual | ics
	BaseModel
}

// TableName 指定表名
func (AvailabilitySlot) TableName() string { return "availability_slots" }

// Overlaps 判断两个周内时段是否重叠
func (s *AvailabilitySlot) Overlaps(other *AvailabilitySlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	return s.StartTime < other.EndTime && other.StartTime < s.EndTime
}

// [自证通过] internal/model/profile.go
