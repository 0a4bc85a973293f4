package models

import "time"

// SubmissionStatusHistory is the append-only audit log of status changes.
// Each row records the status the submission held before a transition; rows
// are never updated or deleted.
type SubmissionStatusHistory struct {
	HistoryID    int              `gorm:"primaryKey;column:history_id" json:"history_id"`
	SubmissionID int              `gorm:"column:submission_id" json:"submission_id"`
	Status       SubmissionStatus `gorm:"column:status" json:"status"`
	ChangedBy    int              `gorm:"column:changed_by" json:"changed_by"`
	CreatedAt    time.Time        `gorm:"column:created_at" json:"created_at"`
}

func (SubmissionStatusHistory) TableName() string {
	return "submission_status_history"
}
