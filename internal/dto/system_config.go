package dto

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新系统配置请求
type UpdateSystemConfigRequest struct {
	DefaultMinScore      *int  `json:"default_min_score"     binding:"omitempty,min=0,max=100"`
	DefaultProgramWeeks  *int  `json:"default_program_weeks" binding:"omitempty,min=1,max=52"`
	AutoApproveDefault   *bool `json:"auto_approve_default"`
	NotificationsEnabled *bool `json:"notifications_enabled"`
}

// SystemConfigResponse 系统配置响应
type SystemConfigResponse struct {
	DefaultMinScore      int    `json:"default_min_score"`
	DefaultProgramWeeks  int    `json:"default_program_weeks"`
	AutoApproveDefault   bool   `json:"auto_approve_default"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	UpdatedAt            string `json:"updated_at"`
}
