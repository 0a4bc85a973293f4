package services

import (
	"errors"
	"fmt"

	"tasboard/config"
	"tasboard/models"

	"gorm.io/gorm"
)

// ObsoletionService maintains and queries the obsoletes / obsoleted-by
// relationship between publications.
type ObsoletionService struct {
	db *gorm.DB
}

func NewObsoletionService(db *gorm.DB) *ObsoletionService {
	if db == nil {
		db = config.DB
	}
	return &ObsoletionService{db: db}
}

// ObsoleteResult is the outcome of a standalone obsoletion.
type ObsoleteResult struct {
	OperationResult
}

// PublicationNode is a non-obsolete publication together with every
// publication in its obsoletion chain.
type PublicationNode struct {
	models.Publication
	Obsoletes []models.Publication `json:"obsoletes,omitempty"`
}

// ObsoleteWith marks toObsoleteID as superseded by obsoletingID and enqueues
// an independent re-sync for every streaming URL of the obsoleted
// publication.
func (s *ObsoletionService) ObsoleteWith(toObsoleteID, obsoletingID int) (result ObsoleteResult) {
	defer guardOperation("obsolete", &result.OperationResult)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.obsoleteWithTx(tx, toObsoleteID, obsoletingID)
	})
	if err != nil {
		return ObsoleteResult{OperationResult: failResult(err)}
	}
	return ObsoleteResult{OperationResult: okResult()}
}

// obsoleteWithTx runs the obsoletion inside the caller's transaction; the
// publish operation uses it inline.
func (s *ObsoletionService) obsoleteWithTx(tx *gorm.DB, toObsoleteID, obsoletingID int) error {
	var target models.Publication
	err := tx.Preload("Urls").Preload("Authors").
		First(&target, "publication_id = ?", toObsoleteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: publication %d", ErrNotFound, toObsoleteID)
		}
		return err
	}

	var obsoleting models.Publication
	if err := tx.First(&obsoleting, "publication_id = ?", obsoletingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: publication %d", ErrNotFound, obsoletingID)
		}
		return err
	}

	if target.GameID != obsoleting.GameID {
		return fmt.Errorf("%w: publication %d belongs to a different game than %d",
			ErrPreconditionFailed, obsoletingID, toObsoleteID)
	}
	if toObsoleteID == obsoletingID {
		return fmt.Errorf("%w: a publication cannot obsolete itself", ErrPreconditionFailed)
	}
	if err := s.checkNoCycle(tx, toObsoleteID, obsoletingID); err != nil {
		return err
	}

	res := tx.Model(&models.Publication{}).
		Where("publication_id = ?", toObsoleteID).
		Update("obsoleted_by_id", obsoletingID)
	if res.Error != nil {
		return res.Error
	}

	// One re-sync task per recognized-host streaming URL; each is dispatched
	// independently so one failing host never blocks the rest.
	for _, u := range target.StreamingUrls() {
		err := enqueueOutboxTask(tx, models.OutboxKindVideoSync, videoSyncPayload{
			PublicationID: target.PublicationID,
			Url:           u.Url,
			Title:         target.Title,
			Obsoleted:     true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// checkNoCycle rejects an edge that would close a loop: walking the
// obsoleted-by chain upward from the obsoleting publication must never reach
// the publication being obsoleted.
func (s *ObsoletionService) checkNoCycle(tx *gorm.DB, toObsoleteID, obsoletingID int) error {
	seen := map[int]struct{}{}
	current := obsoletingID
	for {
		if current == toObsoleteID {
			return fmt.Errorf("%w: obsoleting %d with %d would create a cycle",
				ErrPreconditionFailed, toObsoleteID, obsoletingID)
		}
		if _, ok := seen[current]; ok {
			return nil // pre-existing loop elsewhere; the new edge is not part of it
		}
		seen[current] = struct{}{}

		var row models.Publication
		err := tx.Select("publication_id", "obsoleted_by_id").
			First(&row, "publication_id = ?", current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if row.ObsoletedByID == nil {
			return nil
		}
		current = *row.ObsoletedByID
	}
}

// ForGame loads every publication of a game and attaches each non-obsolete
// root's obsoletion chain. The whole set is indexed once by ObsoletedByID so
// the attach pass is linear in the number of publications.
func (s *ObsoletionService) ForGame(gameID int) ([]PublicationNode, error) {
	var pubs []models.Publication
	err := s.db.Preload("Urls").Preload("Authors").
		Where("game_id = ?", gameID).
		Order("publication_id").
		Find(&pubs).Error
	if err != nil {
		return nil, err
	}
	return attachObsoletes(pubs), nil
}

// ForGameByPublication resolves the publication's game and returns ForGame
// for it.
func (s *ObsoletionService) ForGameByPublication(publicationID int) ([]PublicationNode, error) {
	var pub models.Publication
	if err := s.db.Select("publication_id", "game_id").First(&pub, "publication_id = ?", publicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: publication %d", ErrNotFound, publicationID)
		}
		return nil, err
	}
	return s.ForGame(pub.GameID)
}

// attachObsoletes partitions publications into roots and obsoleted children,
// then gathers each root's transitive chain by walking a single
// children-by-obsoleter index. Every publication is visited once.
func attachObsoletes(pubs []models.Publication) []PublicationNode {
	children := make(map[int][]models.Publication, len(pubs))
	var roots []models.Publication
	for _, p := range pubs {
		if p.ObsoletedByID == nil {
			roots = append(roots, p)
		}
	}
	for _, p := range pubs {
		if p.ObsoletedByID != nil {
			children[*p.ObsoletedByID] = append(children[*p.ObsoletedByID], p)
		}
	}

	nodes := make([]PublicationNode, 0, len(roots))
	for _, root := range roots {
		node := PublicationNode{Publication: root}
		queue := children[root.PublicationID]
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			node.Obsoletes = append(node.Obsoletes, next)
			queue = append(queue, children[next.PublicationID]...)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
