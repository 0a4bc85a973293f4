package services

import (
	"testing"

	"tasboard/models"
)

func TestObsoleteWithRewiresAndEnqueuesSyncs(t *testing.T) {
	db := newTestDB(t)
	svc := NewObsoletionService(db)

	older := seedPublication(t, db, 1, "old.bk2", nil,
		"https://video.example/watch/a",
		"https://video.example/watch/b")
	db.Create(&models.PublicationUrl{PublicationID: older.PublicationID, Url: "https://mirror.example/old", Type: models.LinkTypeMirror})
	newer := seedPublication(t, db, 1, "new.bk2", nil, "https://video.example/watch/c")

	result := svc.ObsoleteWith(older.PublicationID, newer.PublicationID)
	if !result.Success {
		t.Fatalf("obsolete failed: %v", *result.ErrorMessage)
	}

	var after models.Publication
	db.First(&after, "publication_id = ?", older.PublicationID)
	if after.ObsoletedByID == nil || *after.ObsoletedByID != newer.PublicationID {
		t.Fatalf("obsoleted-by not set: %v", after.ObsoletedByID)
	}

	// One independent task per streaming url; the mirror url is not synced.
	var tasks []models.OutboxTask
	db.Where("kind = ?", models.OutboxKindVideoSync).Find(&tasks)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 sync tasks, got %d", len(tasks))
	}
}

func TestObsoleteWithRejectsCycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewObsoletionService(db)

	a := seedPublication(t, db, 1, "a.bk2", nil)
	b := seedPublication(t, db, 1, "b.bk2", nil)
	c := seedPublication(t, db, 1, "c.bk2", nil)

	if r := svc.ObsoleteWith(a.PublicationID, b.PublicationID); !r.Success {
		t.Fatalf("a<-b failed: %v", *r.ErrorMessage)
	}
	if r := svc.ObsoleteWith(b.PublicationID, c.PublicationID); !r.Success {
		t.Fatalf("b<-c failed: %v", *r.ErrorMessage)
	}

	// c transitively obsoletes a; closing the loop must fail.
	r := svc.ObsoleteWith(c.PublicationID, a.PublicationID)
	if r.Success {
		t.Fatal("cycle should be rejected")
	}
	if r.Failure != FailurePreconditionFailed {
		t.Fatalf("expected precondition failure, got %s", r.Failure)
	}

	var untouched models.Publication
	db.First(&untouched, "publication_id = ?", c.PublicationID)
	if untouched.ObsoletedByID != nil {
		t.Fatalf("rejected edge was written: %v", untouched.ObsoletedByID)
	}
}

func TestObsoleteWithRejectsDifferentGame(t *testing.T) {
	db := newTestDB(t)
	svc := NewObsoletionService(db)

	a := seedPublication(t, db, 1, "a.bk2", nil)
	b := seedPublication(t, db, 2, "b.bk2", nil)

	r := svc.ObsoleteWith(a.PublicationID, b.PublicationID)
	if r.Success || r.Failure != FailurePreconditionFailed {
		t.Fatalf("cross-game obsoletion should fail, got %+v", r.OperationResult)
	}
}

func TestObsoleteWithMissingTarget(t *testing.T) {
	db := newTestDB(t)
	svc := NewObsoletionService(db)
	a := seedPublication(t, db, 1, "a.bk2", nil)

	r := svc.ObsoleteWith(9999, a.PublicationID)
	if r.Success || r.Failure != FailureNotFound {
		t.Fatalf("expected not-found, got %+v", r.OperationResult)
	}
}

func TestForGameAttachesChains(t *testing.T) {
	db := newTestDB(t)
	svc := NewObsoletionService(db)

	// Chain: v1 <- v2 <- v3 (v3 current), plus an independent current run.
	v3 := seedPublication(t, db, 1, "v3.bk2", nil)
	v2 := seedPublication(t, db, 1, "v2.bk2", &v3.PublicationID)
	v1 := seedPublication(t, db, 1, "v1.bk2", &v2.PublicationID)
	other := seedPublication(t, db, 1, "other.bk2", nil)
	seedPublication(t, db, 2, "unrelated.bk2", nil)

	nodes, err := svc.ForGame(1)
	if err != nil {
		t.Fatalf("ForGame: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(nodes))
	}

	byID := map[int]PublicationNode{}
	for _, n := range nodes {
		byID[n.PublicationID] = n
	}
	chain := byID[v3.PublicationID]
	if len(chain.Obsoletes) != 2 {
		t.Fatalf("expected transitive chain of 2, got %+v", chain.Obsoletes)
	}
	got := map[int]bool{}
	for _, p := range chain.Obsoletes {
		got[p.PublicationID] = true
	}
	if !got[v1.PublicationID] || !got[v2.PublicationID] {
		t.Fatalf("chain members wrong: %v", got)
	}
	if len(byID[other.PublicationID].Obsoletes) != 0 {
		t.Fatalf("independent root should have no chain")
	}
}

// attachObsoletes does one index build plus one visit per publication, so a
// long pure chain stays linear.
func TestAttachObsoletesLinearOnLongChain(t *testing.T) {
	const n = 1000
	pubs := make([]models.Publication, 0, n)
	for i := 1; i <= n; i++ {
		p := models.Publication{PublicationID: i}
		if i < n {
			next := i + 1
			p.ObsoletedByID = &next
		}
		pubs = append(pubs, p)
	}

	nodes := attachObsoletes(pubs)
	if len(nodes) != 1 {
		t.Fatalf("expected a single root, got %d", len(nodes))
	}
	if len(nodes[0].Obsoletes) != n-1 {
		t.Fatalf("expected %d chained publications, got %d", n-1, len(nodes[0].Obsoletes))
	}
}

func TestForGameByPublication(t *testing.T) {
	db := newTestDB(t)
	svc := NewObsoletionService(db)
	a := seedPublication(t, db, 7, "a.bk2", nil)
	seedPublication(t, db, 7, "b.bk2", &a.PublicationID)

	nodes, err := svc.ForGameByPublication(a.PublicationID)
	if err != nil {
		t.Fatalf("ForGameByPublication: %v", err)
	}
	if len(nodes) != 1 || len(nodes[0].Obsoletes) != 1 {
		t.Fatalf("unexpected graph: %+v", nodes)
	}

	if _, err := svc.ForGameByPublication(9999); err == nil {
		t.Fatal("missing publication should error")
	}
}
