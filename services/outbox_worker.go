package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tasboard/config"
	"tasboard/models"
	"tasboard/utils"

	"gorm.io/gorm"
)

// Outbox task payloads. The publish and obsoletion transactions enqueue
// these; only the worker reads them back.
type videoSyncPayload struct {
	PublicationID int    `json:"publication_id"`
	Url           string `json:"url"`
	Title         string `json:"title"`
	Obsoleted     bool   `json:"obsoleted"`
}

type roleGrantPayload struct {
	AuthorIDs        []int  `json:"author_ids"`
	PublicationTitle string `json:"publication_title"`
}

type automationPostPayload struct {
	SubmissionID  int `json:"submission_id"`
	PublicationID int `json:"publication_id"`
}

// OutboxWorker drains pending outbox tasks and dispatches them to the
// downstream collaborators. Whether a publish committed is decided long
// before this code runs; a task that keeps failing is marked failed and
// logged, never surfaced to the original caller.
type OutboxWorker struct {
	db          *gorm.DB
	video       VideoSync
	roles       RoleGrantor
	automation  AutomationAgent
	maxAttempts int
}

func NewOutboxWorker(db *gorm.DB, video VideoSync, roles RoleGrantor, automation AutomationAgent, maxAttempts int) *OutboxWorker {
	if db == nil {
		db = config.DB
	}
	if maxAttempts <= 0 {
		maxAttempts = utils.DefaultConflictAttempts
	}
	return &OutboxWorker{db: db, video: video, roles: roles, automation: automation, maxAttempts: maxAttempts}
}

// Run polls for pending tasks until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.DrainPending(); err != nil {
				log.Printf("outbox: drain failed: %v", err)
			}
		}
	}
}

// DrainPending processes every currently pending task once and returns how
// many completed.
func (w *OutboxWorker) DrainPending() (int, error) {
	var tasks []models.OutboxTask
	err := w.db.
		Where("status = ?", models.OutboxStatusPending).
		Order("task_id").
		Find(&tasks).Error
	if err != nil {
		return 0, err
	}

	done := 0
	for _, task := range tasks {
		if w.process(task) {
			done++
		}
	}
	return done, nil
}

// process dispatches one task with bounded retry. Tasks are independent:
// a failure here only affects this row.
func (w *OutboxWorker) process(task models.OutboxTask) bool {
	err := utils.RetryConflict(w.maxAttempts, func() error {
		return w.dispatch(task)
	})

	now := time.Now()
	if err == nil {
		w.db.Model(&models.OutboxTask{}).
			Where("task_id = ?", task.TaskID).
			Updates(map[string]any{
				"status":       models.OutboxStatusDone,
				"attempts":     task.Attempts + 1,
				"completed_at": now,
			})
		return true
	}

	msg := err.Error()
	log.Printf("outbox: task %d (%s) failed permanently: %v", task.TaskID, task.Kind, err)
	w.db.Model(&models.OutboxTask{}).
		Where("task_id = ?", task.TaskID).
		Updates(map[string]any{
			"status":     models.OutboxStatusFailed,
			"attempts":   task.Attempts + w.maxAttempts,
			"last_error": msg,
		})
	return false
}

func (w *OutboxWorker) dispatch(task models.OutboxTask) error {
	switch task.Kind {
	case models.OutboxKindVideoSync:
		var p videoSyncPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return err
		}
		if !w.video.IsRecognizedUrl(p.Url) {
			return nil // nothing to mirror for unrecognized hosts
		}
		return w.video.Sync(VideoDescriptor{
			PublicationID: p.PublicationID,
			Url:           p.Url,
			Title:         p.Title,
			Obsoleted:     p.Obsoleted,
		})
	case models.OutboxKindRoleGrant:
		var p roleGrantPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return err
		}
		return w.roles.AssignAutoAssignableRolesByPublication(p.AuthorIDs, p.PublicationTitle)
	case models.OutboxKindAutomationPost:
		var p automationPostPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return err
		}
		return w.automation.PostSubmissionPublished(p.SubmissionID, p.PublicationID)
	}
	return fmt.Errorf("unknown outbox task kind %q", task.Kind)
}

// RequeueFailed flips failed tasks back to pending for another drain pass.
func (w *OutboxWorker) RequeueFailed() (int64, error) {
	res := w.db.Model(&models.OutboxTask{}).
		Where("status = ?", models.OutboxStatusFailed).
		Updates(map[string]any{
			"status":     models.OutboxStatusPending,
			"last_error": nil,
		})
	return res.RowsAffected, res.Error
}
