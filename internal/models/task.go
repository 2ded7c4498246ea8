package models

import "time"

// TaskStatus represents the status of an analysis task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// AnalysisTask represents an async forensic analysis job
type AnalysisTask struct {
	ID        string          `json:"id"`
	Status    TaskStatus      `json:"status"`
	Request   AnalysisRequest `json:"request"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Error     string          `json:"error,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
}
