package dto

// ── 统计分析模块 DTO ──

// CycleAnalyticsResponse 周期统计响应
type CycleAnalyticsResponse struct {
	CycleID              string   `json:"cycle_id"`
	CycleName            string   `json:"cycle_name"`
	MentorsInterested    int      `json:"mentors_interested"`
	MenteesInterested    int      `json:"mentees_interested"`
	MatchesPending       int      `json:"matches_pending"`
	MatchesApproved      int      `json:"matches_approved"`
	MatchesRejected      int      `json:"matches_rejected"`
	AverageMatchScore    float64  `json:"average_match_score"`
	MentorshipsActive    int      `json:"mentorships_active"`
	MentorshipsCompleted int      `json:"mentorships_completed"`
	MentorshipsCancelled int      `json:"mentorships_cancelled"`
	CompletionRate       float64  `json:"completion_rate"` // completed / (completed+cancelled+active)
	AverageEngagement    *float64 `json:"average_engagement,omitempty"`
	AverageSatisfaction  *float64 `json:"average_satisfaction,omitempty"`
	CertificatesIssued   int      `json:"certificates_issued"`
	TasksCompleted       int      `json:"tasks_completed"`
	TasksTotal           int      `json:"tasks_total"`
	TaskCompletionRate   float64  `json:"task_completion_rate"`
	AverageSessionsHeld  float64  `json:"average_sessions_held"`
	GeneratedAt          string   `json:"generated_at"`
	FromCache            bool     `json:"from_cache"`
}

// MentorshipProgressReportResponse 单个辅导关系进度报告
type MentorshipProgressReportResponse struct {
	Mentorship  MentorshipResponse   `json:"mentorship"`
	Program     ProgramResponse      `json:"program"`
	Tasks       []TaskResponse       `json:"tasks"`
	Snapshots   []ProgressResponse   `json:"snapshots"`
	Evaluations []EvaluationResponse `json:"evaluations"`
}
