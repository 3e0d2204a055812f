package model

import (
	"time"
)

type OptimizeJob struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	UserID         int64      `gorm:"not null;index" json:"user_id"`
	ResumeID       int64      `gorm:"index" json:"resume_id,omitempty"`
	Kind           string     `gorm:"size:30;not null;index" json:"kind"`
	InputText      string     `gorm:"type:text" json:"input_text,omitempty"` // JD 原文/目标岗位等
	ResultText     string     `gorm:"type:text" json:"result_text,omitempty"`
	Status         string     `gorm:"size:20;default:queued;index" json:"status"` // queued, processing, completed, failed
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ElapsedSeconds int        `json:"elapsed_seconds,omitempty"`
}

func (OptimizeJob) TableName() string {
	return "optimize_jobs"
}
