package services

import (
	"errors"
	"fmt"
	"log"

	"tasboard/config"
	"tasboard/models"

	"gorm.io/gorm"
)

// ClaimService performs the exclusive claim transitions: a judge taking a
// new submission for review, and a publisher taking an accepted one for
// publication. At most one claimant wins; the loser of a race fails its
// precondition without mutating anything.
type ClaimService struct {
	db     *gorm.DB
	wiki   WikiPages
	topics TopicWatcher
}

func NewClaimService(db *gorm.DB, wiki WikiPages, topics TopicWatcher) *ClaimService {
	if db == nil {
		db = config.DB
	}
	return &ClaimService{db: db, wiki: wiki, topics: topics}
}

// ClaimRequest identifies the submission and the claiming actor.
type ClaimRequest struct {
	SubmissionID int
	ActorID      int
	ActorName    string
	Subscribe    bool
}

// ClaimResult is the outcome of a claim operation.
type ClaimResult struct {
	OperationResult
	Status models.SubmissionStatus `json:"status"`
}

// claimSpec parameterizes the shared claim template.
type claimSpec struct {
	required     models.SubmissionStatus
	target       models.SubmissionStatus
	assignColumn string
	note         string
}

// ClaimForJudging moves a New submission into JudgingUnderway and assigns
// the acting judge.
func (s *ClaimService) ClaimForJudging(req ClaimRequest) ClaimResult {
	return s.claim(req, claimSpec{
		required:     models.StatusNew,
		target:       models.StatusJudgingUnderway,
		assignColumn: "judge_id",
		note:         fmt.Sprintf("Claiming for judging by %s.", req.ActorName),
	})
}

// ClaimForPublishing moves an Accepted submission into PublicationUnderway
// and assigns the acting publisher.
func (s *ClaimService) ClaimForPublishing(req ClaimRequest) ClaimResult {
	return s.claim(req, claimSpec{
		required:     models.StatusAccepted,
		target:       models.StatusPublicationUnderway,
		assignColumn: "publisher_id",
		note:         fmt.Sprintf("Processing for publication by %s.", req.ActorName),
	})
}

// claim is the shared template: load, require the exact status against the
// latest persisted row, append history, conditionally write the claim, then
// best-effort wiki note and topic subscription. No retry on this path: a
// lost race must surface, not be papered over with a stolen claim.
func (s *ClaimService) claim(req ClaimRequest, spec claimSpec) (result ClaimResult) {
	defer guardOperation("claim", &result.OperationResult)

	var sub models.Submission
	if err := s.db.First(&sub, "submission_id = ?", req.SubmissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ClaimResult{OperationResult: failResult(fmt.Errorf("%w: submission %d", ErrNotFound, req.SubmissionID))}
		}
		return ClaimResult{OperationResult: failResult(err)}
	}

	if sub.Status != spec.required {
		return ClaimResult{OperationResult: failResult(fmt.Errorf(
			"%w: submission %d is %s, not %s", ErrPreconditionFailed,
			sub.SubmissionID, sub.Status, spec.required))}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updated, err := updateSubmissionIfUnchanged(tx, &sub, map[string]any{
			"status":          spec.target,
			spec.assignColumn: req.ActorID,
		})
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("%w: submission %d was claimed by someone else", ErrPreconditionFailed, sub.SubmissionID)
		}
		return appendStatusHistory(tx, sub.SubmissionID, sub.Status, req.ActorID)
	})
	if err != nil {
		return ClaimResult{OperationResult: failResult(err)}
	}

	// Best-effort side effects: the claim is already committed, so a failing
	// collaborator is logged and swallowed.
	pageName := submissionWikiPageName(sub.SubmissionID)
	if err := appendWikiNote(s.wiki, pageName, spec.note, req.ActorID, "Claim note"); err != nil {
		log.Printf("claim: wiki note for submission %d failed: %v", sub.SubmissionID, err)
	}
	if req.Subscribe && sub.TopicID != nil {
		if err := s.topics.WatchTopic(*sub.TopicID, req.ActorID, true); err != nil {
			log.Printf("claim: topic watch for submission %d failed: %v", sub.SubmissionID, err)
		}
	}

	return ClaimResult{OperationResult: okResult(), Status: spec.target}
}
