package dto

// ── 辅导关系模块 DTO ──

// MentorshipListRequest 辅导关系列表查询参数
type MentorshipListRequest struct {
	CycleID string `form:"cycle_id" binding:"required,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=PENDING ACTIVE COMPLETED CANCELLED"`
}

// CancelMentorshipRequest 取消辅导关系请求
type CancelMentorshipRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// ── 响应 ──

// MentorshipResponse 辅导关系响应
type MentorshipResponse struct {
	ID                string     `json:"id"`
	MatchID           string     `json:"match_id"`
	CycleID           string     `json:"cycle_id"`
	Mentor            *UserBrief `json:"mentor,omitempty"`
	Mentee            *UserBrief `json:"mentee,omitempty"`
	Status            string     `json:"status"`
	SessionsCompleted int        `json:"sessions_completed"`
	EngagementScore   *float64   `json:"engagement_score,omitempty"`
	SatisfactionScore *float64   `json:"satisfaction_score,omitempty"`
	CertificateID     *string    `json:"certificate_id,omitempty"`
	CancelReason      string     `json:"cancel_reason,omitempty"`
	StartedAt         *string    `json:"started_at,omitempty"`
	CompletedAt       *string    `json:"completed_at,omitempty"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}
