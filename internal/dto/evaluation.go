package dto

// ── 评价与证书模块 DTO ──

// SubmitEvaluationRequest 提交评价请求
type SubmitEvaluationRequest struct {
	Type                string `json:"type"                 binding:"required,oneof=MID_PROGRAM FINAL"`
	EngagementRating    int    `json:"engagement_rating"    binding:"required,min=1,max=5"`
	SatisfactionRating  int    `json:"satisfaction_rating"  binding:"required,min=1,max=5"`
	SkillGrowthRating   int    `json:"skill_growth_rating"  binding:"required,min=1,max=5"`
	CommunicationRating int    `json:"communication_rating" binding:"required,min=1,max=5"`
	Feedback            string `json:"feedback"             binding:"omitempty,max=2000"`
}

// ── 响应 ──

// EvaluationResponse 评价响应
type EvaluationResponse struct {
	ID                  string `json:"id"`
	MentorshipID        string `json:"mentorship_id"`
	Type                string `json:"type"`
	EvaluatorID         string `json:"evaluator_id"`
	IsMentor            bool   `json:"is_mentor"`
	EngagementRating    int    `json:"engagement_rating"`
	SatisfactionRating  int    `json:"satisfaction_rating"`
	SkillGrowthRating   int    `json:"skill_growth_rating"`
	CommunicationRating int    `json:"communication_rating"`
	Feedback            string `json:"feedback,omitempty"`
	CreatedAt           string `json:"created_at"`
}

// CertificateResponse 结业证书响应
type CertificateResponse struct {
	ID                string     `json:"id"`
	MentorshipID      string     `json:"mentorship_id"`
	CertificateNumber string     `json:"certificate_number"`
	Mentor            *UserBrief `json:"mentor,omitempty"`
	Mentee            *UserBrief `json:"mentee,omitempty"`
	IssuedAt          string     `json:"issued_at"`
}
