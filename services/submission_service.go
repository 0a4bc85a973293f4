package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tasboard/config"
	"tasboard/models"

	"gorm.io/gorm"
)

// SubmissionService handles intake and update of submission records.
type SubmissionService struct {
	db     *gorm.DB
	ingest *MovieIngestService
	gate   *StatusGate
	wiki   WikiPages
}

func NewSubmissionService(db *gorm.DB, ingest *MovieIngestService, gate *StatusGate, wiki WikiPages) *SubmissionService {
	if db == nil {
		db = config.DB
	}
	return &SubmissionService{db: db, ingest: ingest, gate: gate, wiki: wiki}
}

// SubmitRequest is the intake payload. Game/version/goal references are
// optional at intake; cataloguing usually happens during judging.
type SubmitRequest struct {
	SubmitterID     int
	AuthorIDs       []int
	GameName        string
	GoalName        string
	GameID          *int
	GameVersionID   *int
	GameGoalID      *int
	IntendedClassID *int
	EmulatorVersion string
	MovieFile       []byte
	MovieFileName   string
	Description     string
	TopicID         *int
}

// SubmitResult is the outcome of an intake call.
type SubmitResult struct {
	OperationResult
	SubmissionID int      `json:"submission_id"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Submit ingests the movie file, creates the submission with its ordered
// authors, writes the initial wiki page from the submitter's description,
// and appends the first history row. All of it commits atomically.
func (s *SubmissionService) Submit(req SubmitRequest) (result SubmitResult) {
	defer guardOperation("submit", &result.OperationResult)

	if len(req.AuthorIDs) == 0 {
		return SubmitResult{OperationResult: failResult(fmt.Errorf("%w: at least one author is required", ErrValidationFailed))}
	}
	if strings.TrimSpace(req.GameName) == "" {
		return SubmitResult{OperationResult: failResult(fmt.Errorf("%w: a game name is required", ErrValidationFailed))}
	}

	movie, err := s.ingest.Ingest(req.MovieFile, req.MovieFileName)
	if err != nil {
		return SubmitResult{OperationResult: failResult(err)}
	}

	sub := models.Submission{
		Status:            models.StatusNew,
		SubmitterID:       req.SubmitterID,
		GameID:            req.GameID,
		GameVersionID:     req.GameVersionID,
		GameGoalID:        req.GameGoalID,
		IntendedClassID:   req.IntendedClassID,
		SystemID:          movie.SystemID,
		SystemFrameRateID: movie.SystemFrameRateID,
		GameName:          req.GameName,
		GoalName:          req.GoalName,
		Frames:            movie.Parse.Frames,
		RerecordCount:     movie.Parse.RerecordCount,
		MovieExtension:    movie.Parse.FileExtension,
		MovieHash:         primaryHash(movie.Parse.Hashes),
		MovieStorageKey:   movie.StorageKey,
		EmulatorVersion:   req.EmulatorVersion,
		Annotations:       movie.Parse.Annotations,
		TopicID:           req.TopicID,
		CreatedAt:         time.Now(),
	}
	for i, userID := range req.AuthorIDs {
		sub.Authors = append(sub.Authors, models.SubmissionAuthor{
			UserID:  userID,
			Ordinal: i,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		storage := models.MovieStorage{
			StorageKey: movie.StorageKey,
			Bytes:      movie.CanonicalBytes,
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&storage).Error; err != nil {
			return err
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		if err := appendStatusHistory(tx, sub.SubmissionID, models.StatusNew, req.SubmitterID); err != nil {
			return err
		}
		if _, err := s.wiki.Add(submissionWikiPageName(sub.SubmissionID), req.Description, req.SubmitterID, "Movie submitted"); err != nil {
			return fmt.Errorf("wiki page creation for submission %d failed: %v", sub.SubmissionID, err)
		}
		return nil
	})
	if err != nil {
		return SubmitResult{OperationResult: failResult(err)}
	}

	return SubmitResult{
		OperationResult: okResult(),
		SubmissionID:    sub.SubmissionID,
		Warnings:        movie.Parse.Warnings,
	}
}

// UpdateRequest is the edit payload. Nil pointers leave a field untouched.
type UpdateRequest struct {
	SubmissionID      int
	ActorID           int
	ActorPermissions  models.PermissionSet
	Status            *models.SubmissionStatus
	RejectionReasonID *int
	IntendedClassID   *int
	GameID            *int
	GameVersionID     *int
	GameGoalID        *int
	GoalName          *string
	EmulatorVersion   *string
	MovieFile         []byte
	MovieFileName     string
	Markup            *string
	RevisionMessage   string
}

// UpdateResult is the outcome of an update call.
type UpdateResult struct {
	OperationResult
	Status   models.SubmissionStatus `json:"status"`
	Warnings []string                `json:"warnings,omitempty"`
}

// UpdateSubmission edits a submission. Any requested status change is
// checked against the authorization gate before anything is written, and
// the write itself is conditional on the loaded version so a concurrent
// editor fails cleanly instead of clobbering.
func (s *SubmissionService) UpdateSubmission(req UpdateRequest) (result UpdateResult) {
	defer guardOperation("update-submission", &result.OperationResult)

	var sub models.Submission
	err := s.db.Preload("Authors").First(&sub, "submission_id = ?", req.SubmissionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UpdateResult{OperationResult: failResult(fmt.Errorf("%w: submission %d", ErrNotFound, req.SubmissionID))}
		}
		return UpdateResult{OperationResult: failResult(err)}
	}

	// A published submission is frozen; edits belong on the publication.
	if sub.Status == models.StatusPublished {
		return UpdateResult{OperationResult: failResult(fmt.Errorf(
			"%w: submission %d is published and can no longer be edited", ErrPreconditionFailed, sub.SubmissionID))}
	}

	newStatus := sub.Status
	if req.Status != nil && *req.Status != sub.Status {
		available := s.gate.AvailableStatuses(StatusQuery{
			Current:             sub.Status,
			Permissions:         req.ActorPermissions,
			SubmitDate:          sub.CreatedAt,
			Now:                 time.Now(),
			IsAuthorOrSubmitter: sub.IsAuthorOrSubmitter(req.ActorID),
			IsJudge:             sub.JudgeID != nil && *sub.JudgeID == req.ActorID,
			IsPublisher:         sub.PublisherID != nil && *sub.PublisherID == req.ActorID,
		})
		if !available.Contains(*req.Status) {
			return UpdateResult{OperationResult: failResult(fmt.Errorf(
				"%w: %s is not a legal status for submission %d here",
				ErrPreconditionFailed, *req.Status, sub.SubmissionID))}
		}
		newStatus = *req.Status
	}

	updates := map[string]any{}
	if newStatus != sub.Status {
		updates["status"] = newStatus
		switch newStatus {
		case models.StatusNew, models.StatusCancelled:
			updates["judge_id"] = nil
			updates["publisher_id"] = nil
		case models.StatusAccepted:
			updates["publisher_id"] = nil
		}
		if newStatus == models.StatusRejected && req.RejectionReasonID != nil {
			updates["rejection_reason_id"] = *req.RejectionReasonID
		}
	}
	applyFieldUpdates(updates, &req)

	var warnings []string
	var newStorage *models.MovieStorage
	if len(req.MovieFile) > 0 {
		movie, err := s.ingest.Ingest(req.MovieFile, req.MovieFileName)
		if err != nil {
			return UpdateResult{OperationResult: failResult(err)}
		}
		warnings = movie.Parse.Warnings
		updates["system_id"] = movie.SystemID
		updates["system_frame_rate_id"] = movie.SystemFrameRateID
		updates["frames"] = movie.Parse.Frames
		updates["rerecord_count"] = movie.Parse.RerecordCount
		updates["movie_extension"] = movie.Parse.FileExtension
		updates["movie_hash"] = primaryHash(movie.Parse.Hashes)
		updates["movie_storage_key"] = movie.StorageKey
		updates["annotations"] = movie.Parse.Annotations
		newStorage = &models.MovieStorage{
			StorageKey: movie.StorageKey,
			Bytes:      movie.CanonicalBytes,
			CreatedAt:  time.Now(),
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if newStorage != nil {
			if err := tx.Create(newStorage).Error; err != nil {
				return err
			}
		}
		updated, err := updateSubmissionIfUnchanged(tx, &sub, updates)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("%w: submission %d changed underneath this edit", ErrPreconditionFailed, sub.SubmissionID)
		}
		if newStatus != sub.Status {
			if err := appendStatusHistory(tx, sub.SubmissionID, sub.Status, req.ActorID); err != nil {
				return err
			}
		}
		if req.Markup != nil {
			if _, err := s.wiki.Add(submissionWikiPageName(sub.SubmissionID), *req.Markup, req.ActorID, req.RevisionMessage); err != nil {
				return fmt.Errorf("wiki revision for submission %d failed: %v", sub.SubmissionID, err)
			}
		}
		return nil
	})
	if err != nil {
		return UpdateResult{OperationResult: failResult(err)}
	}

	return UpdateResult{OperationResult: okResult(), Status: newStatus, Warnings: warnings}
}

func applyFieldUpdates(updates map[string]any, req *UpdateRequest) {
	if req.IntendedClassID != nil {
		updates["intended_class_id"] = *req.IntendedClassID
	}
	if req.GameID != nil {
		updates["game_id"] = *req.GameID
	}
	if req.GameVersionID != nil {
		updates["game_version_id"] = *req.GameVersionID
	}
	if req.GameGoalID != nil {
		updates["game_goal_id"] = *req.GameGoalID
	}
	if req.GoalName != nil {
		updates["goal_name"] = *req.GoalName
	}
	if req.EmulatorVersion != nil {
		updates["emulator_version"] = *req.EmulatorVersion
	}
}

// primaryHash picks a stable content hash from the parser's hash map,
// preferring the stronger digest when both are present.
func primaryHash(hashes map[string]string) string {
	for _, key := range []string{"sha256", "sha1", "md5", "crc32"} {
		if v, ok := hashes[key]; ok && v != "" {
			return v
		}
	}
	for _, v := range hashes {
		return v
	}
	return ""
}
