package dto

// ── 辅导周期模块 DTO ──

// CreateCycleRequest 创建周期请求
type CreateCycleRequest struct {
	Name           string `json:"name"            binding:"required,min=2,max=100"`
	StartDate      string `json:"start_date"      binding:"required"` // "2026-09-01"
	EndDate        string `json:"end_date"        binding:"required"` // "2026-12-01"
	MaxMentorships int    `json:"max_mentorships" binding:"omitempty,min=1,max=1000"`
}

// RegisterInterestRequest 登记参与意向请求
type RegisterInterestRequest struct {
	Role string `json:"role" binding:"required,oneof=MENTOR MENTEE"`
}

// CycleResponse 周期信息响应
type CycleResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	MaxMentorships int    `json:"max_mentorships"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// InterestResponse 参与意向响应
type InterestResponse struct {
	ID        string     `json:"id"`
	CycleID   string     `json:"cycle_id"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	User      *UserBrief `json:"user,omitempty"`
	CreatedAt string     `json:"created_at"`
}
