package services

import (
	"encoding/json"
	"fmt"
	"time"

	"tasboard/models"

	"gorm.io/gorm"
)

func submissionWikiPageName(submissionID int) string {
	return fmt.Sprintf("SubmissionContent/S%d", submissionID)
}

func publicationWikiPageName(publicationID int) string {
	return fmt.Sprintf("PublicationContent/M%d", publicationID)
}

// appendStatusHistory writes one append-only audit row carrying the status
// the submission held before the transition.
func appendStatusHistory(tx *gorm.DB, submissionID int, prior models.SubmissionStatus, changedBy int) error {
	return tx.Create(&models.SubmissionStatusHistory{
		SubmissionID: submissionID,
		Status:       prior,
		ChangedBy:    changedBy,
		CreatedAt:    time.Now(),
	}).Error
}

// updateSubmissionIfUnchanged performs the version-token conditional write:
// the row is updated only if its status and version still match the loaded
// snapshot. A false return means the caller lost a write race and nothing
// was mutated.
func updateSubmissionIfUnchanged(tx *gorm.DB, snapshot *models.Submission, updates map[string]any) (bool, error) {
	updates["version"] = snapshot.Version + 1
	updates["updated_at"] = time.Now()

	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ? AND version = ?",
			snapshot.SubmissionID, snapshot.Status, snapshot.Version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// enqueueOutboxTask writes a pending task row in the caller's transaction.
func enqueueOutboxTask(tx *gorm.DB, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return tx.Create(&models.OutboxTask{
		Kind:      kind,
		Payload:   string(body),
		Status:    models.OutboxStatusPending,
		CreatedAt: time.Now(),
	}).Error
}

// appendWikiNote adds an automated note as a new revision of an existing
// page, keeping the prior markup.
func appendWikiNote(wiki WikiPages, pageName, note string, authorID int, revisionMessage string) error {
	markup := note
	if page, err := wiki.Page(pageName); err == nil && page != nil && page.Markup != "" {
		markup = page.Markup + "\n----\n" + note
	}
	_, err := wiki.Add(pageName, markup, authorID, revisionMessage)
	return err
}
