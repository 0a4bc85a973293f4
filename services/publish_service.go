package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tasboard/config"
	"tasboard/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublishService executes the terminal accept action: it converts a
// submission into a Publication inside one atomic transaction and leaves
// everything downstream to the outbox.
type PublishService struct {
	db          *gorm.DB
	wiki        WikiPages
	obsoletions *ObsoletionService
}

func NewPublishService(db *gorm.DB, wiki WikiPages, obsoletions *ObsoletionService) *PublishService {
	if db == nil {
		db = config.DB
	}
	if obsoletions == nil {
		obsoletions = NewObsoletionService(db)
	}
	return &PublishService{db: db, wiki: wiki, obsoletions: obsoletions}
}

// PublishRequest carries everything the publisher supplies on top of the
// submission snapshot.
type PublishRequest struct {
	SubmissionID         int
	ActorID              int
	MovieFileName        string
	OnlineWatchingUrl    string
	AlternateWatchingUrl string
	MirrorSiteUrl        string
	MovieDescription     string
	MovieToObsolete      *int
	FlagIDs              []int
	TagIDs               []int
}

// PublishResult is the outcome of a publish call.
type PublishResult struct {
	OperationResult
	PublicationID int `json:"publication_id"`
}

// Publish validates its preconditions against the latest persisted rows,
// then builds and commits the publication atomically. Pre-commit failure
// rolls everything back; the enqueued outbox tasks are the only downstream
// coupling and cannot unwind the commit.
func (s *PublishService) Publish(req PublishRequest) (result PublishResult) {
	defer guardOperation("publish", &result.OperationResult)

	sub, err := s.loadPublishableSubmission(req)
	if err != nil {
		return PublishResult{OperationResult: failResult(err)}
	}

	var publicationID int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		id, err := s.publishTx(tx, sub, req)
		publicationID = id
		return err
	})
	if err != nil {
		return PublishResult{OperationResult: failResult(err)}
	}

	return PublishResult{OperationResult: okResult(), PublicationID: publicationID}
}

// loadPublishableSubmission checks every precondition before any mutation:
// the submission exists and is mid publication handoff with its catalog
// references assigned, the movie filename is unused, and an obsoletion
// target, if named, resolves.
func (s *PublishService) loadPublishableSubmission(req PublishRequest) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal") }).
		Preload("Authors.User").
		First(&sub, "submission_id = ?", req.SubmissionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: submission %d", ErrNotFound, req.SubmissionID)
		}
		return nil, err
	}

	if sub.Status != models.StatusPublicationUnderway {
		return nil, fmt.Errorf("%w: submission %d is %s, not %s",
			ErrPreconditionFailed, sub.SubmissionID, sub.Status, models.StatusPublicationUnderway)
	}
	if sub.GameID == nil || sub.GameVersionID == nil || sub.GameGoalID == nil || sub.IntendedClassID == nil {
		return nil, fmt.Errorf("%w: submission %d is not fully catalogued", ErrPreconditionFailed, sub.SubmissionID)
	}
	if strings.TrimSpace(req.MovieFileName) == "" {
		return nil, fmt.Errorf("%w: movie file name is required", ErrValidationFailed)
	}
	if strings.TrimSpace(req.OnlineWatchingUrl) == "" {
		return nil, fmt.Errorf("%w: a primary streaming URL is required", ErrValidationFailed)
	}

	var taken int64
	if err := s.db.Model(&models.Publication{}).
		Where("movie_file_name = ?", req.MovieFileName).
		Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, fmt.Errorf("%w: movie file name %q is already used by another publication",
			ErrPreconditionFailed, req.MovieFileName)
	}

	if req.MovieToObsolete != nil {
		var target models.Publication
		err := s.db.Select("publication_id").First(&target, "publication_id = ?", *req.MovieToObsolete).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: publication %d", ErrNotFound, *req.MovieToObsolete)
			}
			return nil, err
		}
	}

	return &sub, nil
}

func (s *PublishService) publishTx(tx *gorm.DB, sub *models.Submission, req PublishRequest) (int, error) {
	// Copy, not move: the submission keeps its archived movie; the
	// publication gets its own storage row.
	var source models.MovieStorage
	if err := tx.First(&source, "storage_key = ?", sub.MovieStorageKey).Error; err != nil {
		return 0, fmt.Errorf("movie storage for submission %d: %w", sub.SubmissionID, err)
	}
	storage := models.MovieStorage{
		StorageKey: uuid.NewString(),
		Bytes:      append([]byte(nil), source.Bytes...),
		CreatedAt:  time.Now(),
	}
	if err := tx.Create(&storage).Error; err != nil {
		return 0, err
	}

	pub := models.Publication{
		SubmissionID:      sub.SubmissionID,
		GameID:            *sub.GameID,
		GameVersionID:     *sub.GameVersionID,
		GameGoalID:        *sub.GameGoalID,
		ClassID:           *sub.IntendedClassID,
		SystemID:          sub.SystemID,
		SystemFrameRateID: sub.SystemFrameRateID,
		Frames:            sub.Frames,
		RerecordCount:     sub.RerecordCount,
		EmulatorVersion:   sub.EmulatorVersion,
		MovieFileName:     req.MovieFileName,
		CreatedAt:         time.Now(),
	}
	for _, a := range sub.Authors {
		pub.Authors = append(pub.Authors, models.PublicationAuthor{
			UserID:  a.UserID,
			Ordinal: a.Ordinal,
		})
	}
	pub.Urls = buildUrls(req)
	for _, id := range req.FlagIDs {
		pub.Flags = append(pub.Flags, models.PublicationFlag{FlagID: id})
	}
	for _, id := range req.TagIDs {
		pub.Tags = append(pub.Tags, models.PublicationTag{TagID: id})
	}
	pub.Files = []models.PublicationFile{{
		Path:       req.MovieFileName,
		Type:       models.FileTypeMovie,
		StorageKey: storage.StorageKey,
	}}

	// Two-phase save: the title embeds the publication id, which only
	// exists after the first insert.
	if err := tx.Create(&pub).Error; err != nil {
		return 0, err
	}
	title, err := s.deriveTitle(tx, &pub, sub)
	if err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Publication{}).
		Where("publication_id = ?", pub.PublicationID).
		Update("title", title).Error; err != nil {
		return 0, err
	}
	pub.Title = title

	if _, err := s.wiki.Add(publicationWikiPageName(pub.PublicationID), req.MovieDescription, req.ActorID, "Movie published"); err != nil {
		return 0, fmt.Errorf("wiki page creation for publication %d failed: %v", pub.PublicationID, err)
	}

	updated, err := updateSubmissionIfUnchanged(tx, sub, map[string]any{
		"status": models.StatusPublished,
	})
	if err != nil {
		return 0, err
	}
	if !updated {
		return 0, fmt.Errorf("%w: submission %d changed while publishing", ErrPreconditionFailed, sub.SubmissionID)
	}
	if err := appendStatusHistory(tx, sub.SubmissionID, sub.Status, req.ActorID); err != nil {
		return 0, err
	}

	if req.MovieToObsolete != nil {
		if err := s.obsoletions.obsoleteWithTx(tx, *req.MovieToObsolete, pub.PublicationID); err != nil {
			return 0, err
		}
	}

	if err := s.enqueueDownstream(tx, sub, &pub); err != nil {
		return 0, err
	}

	return pub.PublicationID, nil
}

func buildUrls(req PublishRequest) []models.PublicationUrl {
	urls := []models.PublicationUrl{{
		Url:  req.OnlineWatchingUrl,
		Type: models.LinkTypeStreaming,
	}}
	if strings.TrimSpace(req.AlternateWatchingUrl) != "" {
		urls = append(urls, models.PublicationUrl{
			Url:         req.AlternateWatchingUrl,
			Type:        models.LinkTypeStreaming,
			DisplayName: "Alternate encode",
		})
	}
	if strings.TrimSpace(req.MirrorSiteUrl) != "" {
		urls = append(urls, models.PublicationUrl{
			Url:  req.MirrorSiteUrl,
			Type: models.LinkTypeMirror,
		})
	}
	return urls
}

// deriveTitle builds "#id: authors' Game Goal" from the assigned id and the
// catalog rows. The baseline goal (empty display name) is omitted.
func (s *PublishService) deriveTitle(tx *gorm.DB, pub *models.Publication, sub *models.Submission) (string, error) {
	var game models.Game
	if err := tx.First(&game, "game_id = ?", pub.GameID).Error; err != nil {
		return "", fmt.Errorf("game %d: %w", pub.GameID, err)
	}
	var goal models.GameGoal
	if err := tx.First(&goal, "goal_id = ?", pub.GameGoalID).Error; err != nil {
		return "", fmt.Errorf("goal %d: %w", pub.GameGoalID, err)
	}

	title := fmt.Sprintf("#%d: %s's %s", pub.PublicationID, authorList(sub.Authors), game.DisplayName)
	if goal.DisplayName != "" {
		title += " \"" + goal.DisplayName + "\""
	}
	return title, nil
}

func authorList(authors []models.SubmissionAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.User.UserName)
	}
	switch len(names) {
	case 0:
		return "unknown"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " & " + names[len(names)-1]
	}
}

// enqueueDownstream writes the post-commit work as outbox rows in the same
// transaction: role grants for the authors, the automation announcement, and
// a sync per watchable URL. The worker decides per URL whether the host is
// recognized.
func (s *PublishService) enqueueDownstream(tx *gorm.DB, sub *models.Submission, pub *models.Publication) error {
	authorIDs := make([]int, 0, len(pub.Authors))
	for _, a := range pub.Authors {
		authorIDs = append(authorIDs, a.UserID)
	}
	if err := enqueueOutboxTask(tx, models.OutboxKindRoleGrant, roleGrantPayload{
		AuthorIDs:        authorIDs,
		PublicationTitle: pub.Title,
	}); err != nil {
		return err
	}

	if err := enqueueOutboxTask(tx, models.OutboxKindAutomationPost, automationPostPayload{
		SubmissionID:  sub.SubmissionID,
		PublicationID: pub.PublicationID,
	}); err != nil {
		return err
	}

	for _, u := range pub.StreamingUrls() {
		if err := enqueueOutboxTask(tx, models.OutboxKindVideoSync, videoSyncPayload{
			PublicationID: pub.PublicationID,
			Url:           u.Url,
			Title:         pub.Title,
		}); err != nil {
			return err
		}
	}
	return nil
}
