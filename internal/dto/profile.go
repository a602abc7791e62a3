package dto

// ── 档案与可用时间模块 DTO ──

// UpsertMentorProfileRequest 创建/更新导师档案请求
type UpsertMentorProfileRequest struct {
	MaxMentees     int      `json:"max_mentees"     binding:"omitempty,min=1,max=20"`
	Themes         []string `json:"themes"          binding:"required,min=1,dive,min=1,max=50"`
	Industry       string   `json:"industry"        binding:"omitempty,max=100"`
	Company        string   `json:"company"         binding:"omitempty,max=100"`
	MentoringStyle string   `json:"mentoring_style" binding:"omitempty,max=50"`
	Preferences    []string `json:"preferences"     binding:"omitempty,dive,max=50"`
	IsActive       *bool    `json:"is_active"`
}

// UpsertMenteeProfileRequest 创建/更新学员档案请求
type UpsertMenteeProfileRequest struct {
	FieldOfInterest  string   `json:"field_of_interest" binding:"omitempty,max=100"`
	Skills           []string `json:"skills"            binding:"required,min=1,dive,min=1,max=50"`
	Goals            []string `json:"goals"             binding:"omitempty,dive,max=100"`
	ExperienceLevel  string   `json:"experience_level"  binding:"omitempty,oneof=beginner intermediate advanced"`
	PreferredStyle   string   `json:"preferred_style"   binding:"omitempty,max=50"`
	Preferences      []string `json:"preferences"       binding:"omitempty,dive,max=50"`
	CommitmentAgreed bool     `json:"commitment_agreed"`
}

// CreateSlotRequest 手动新增可用时间段请求
type CreateSlotRequest struct {
	DayOfWeek int    `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime string `json:"start_time"  binding:"required"` // "HH:MM"
	EndTime   string `json:"end_time"    binding:"required"`
}

// ImportICSRequest 从日历导入可用时间请求（忙时取反）
type ImportICSRequest struct {
	ICSContent string `json:"ics_content" binding:"required"`
	// 推导空闲时段的每日窗口，默认 08:00-22:00
	WindowStart string `json:"window_start" binding:"omitempty"`
	WindowEnd   string `json:"window_end"   binding:"omitempty"`
}

// ── 响应 ──

// MentorProfileResponse 导师档案响应
type MentorProfileResponse struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	User           *UserBrief     `json:"user,omitempty"`
	MaxMentees     int            `json:"max_mentees"`
	CurrentMentees int            `json:"current_mentees"`
	Themes         []string       `json:"themes"`
	Industry       string         `json:"industry,omitempty"`
	Company        string         `json:"company,omitempty"`
	MentoringStyle string         `json:"mentoring_style,omitempty"`
	Preferences    []string       `json:"preferences"`
	IsVerified     bool           `json:"is_verified"`
	IsActive       bool           `json:"is_active"`
	Slots          []SlotResponse `json:"slots,omitempty"`
	UpdatedAt      string         `json:"updated_at"`
}

// MenteeProfileResponse 学员档案响应
type MenteeProfileResponse struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	User             *UserBrief     `json:"user,omitempty"`
	FieldOfInterest  string         `json:"field_of_interest,omitempty"`
	Skills           []string       `json:"skills"`
	Goals            []string       `json:"goals"`
	ExperienceLevel  string         `json:"experience_level,omitempty"`
	PreferredStyle   string         `json:"preferred_style,omitempty"`
	Preferences      []string       `json:"preferences"`
	CommitmentAgreed bool           `json:"commitment_agreed"`
	Slots            []SlotResponse `json:"slots,omitempty"`
	UpdatedAt        string         `json:"updated_at"`
}

// SlotResponse 可用时间段响应
type SlotResponse struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Source    string `json:"source"`
}

// ImportICSResponse 日历导入结果响应
type ImportICSResponse struct {
	SlotsImported int            `json:"slots_imported"`
	Slots         []SlotResponse `json:"slots"`
}
