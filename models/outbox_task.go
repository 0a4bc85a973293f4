package models

import "time"

// Outbox task kinds.
const (
	OutboxKindVideoSync      = "video-sync"
	OutboxKindRoleGrant      = "role-grant"
	OutboxKindAutomationPost = "automation-post"
)

// Outbox task statuses.
const (
	OutboxStatusPending = "pending"
	OutboxStatusDone    = "done"
	OutboxStatusFailed  = "failed"
)

// OutboxTask represents the outbox_tasks table. Rows are written inside the
// same transaction as the authoritative state change they follow from and
// drained by a separate worker, so a commit never depends on a downstream
// collaborator being up.
type OutboxTask struct {
	TaskID      int        `gorm:"primaryKey;column:task_id" json:"task_id"`
	Kind        string     `gorm:"column:kind" json:"kind"`
	Payload     string     `gorm:"column:payload" json:"payload"`
	Status      string     `gorm:"column:status;default:pending" json:"status"`
	Attempts    int        `gorm:"column:attempts" json:"attempts"`
	LastError   *string    `gorm:"column:last_error" json:"last_error,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (OutboxTask) TableName() string {
	return "outbox_tasks"
}
