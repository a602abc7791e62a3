package dto

// ── 周计划与任务模块 DTO ──

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Week  int    `json:"week"  binding:"omitempty,min=1"` // 缺省为当前周
	Type  string `json:"type"  binding:"required,oneof=learning practice reflection"`
	Title string `json:"title" binding:"required,min=2,max=200"`
}

// UpdateTaskStatusRequest 推进任务状态请求
type UpdateTaskStatusRequest struct {
	Status   string `json:"status"   binding:"required,oneof=IN_PROGRESS COMPLETED"`
	Feedback string `json:"feedback" binding:"omitempty,max=1000"`
}

// ── 响应 ──

// ProgramResponse 周计划响应
type ProgramResponse struct {
	ID           string  `json:"id"`
	MentorshipID string  `json:"mentorship_id"`
	CycleID      string  `json:"cycle_id"`
	Week         int     `json:"week"`
	TotalWeeks   int     `json:"total_weeks"`
	Status       string  `json:"status"`
	StartedAt    string  `json:"started_at"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

// TaskResponse 任务响应
type TaskResponse struct {
	ID           string  `json:"id"`
	MentorshipID string  `json:"mentorship_id"`
	ProgramID    string  `json:"program_id"`
	Week         int     `json:"week"`
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Feedback     string  `json:"feedback,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// ProgressResponse 每周进度快照响应
type ProgressResponse struct {
	ID               string  `json:"id"`
	MentorshipID     string  `json:"mentorship_id"`
	Week             int     `json:"week"`
	TasksCompleted   int     `json:"tasks_completed"`
	TotalTasks       int     `json:"total_tasks"`
	CompletionRate   float64 `json:"completion_rate"` // tasks_completed / total_tasks
	EngagementScore  float64 `json:"engagement_score"`
	SkillImprovement float64 `json:"skill_improvement"`
}
