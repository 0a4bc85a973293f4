package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"tasboard/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.GameSystem{},
		&models.GameSystemFrameRate{},
		&models.Game{},
		&models.GameVersion{},
		&models.GameGoal{},
		&models.PublicationClass{},
		&models.Flag{},
		&models.Tag{},
		&models.RejectionReason{},
		&models.MovieStorage{},
		&models.Submission{},
		&models.SubmissionAuthor{},
		&models.SubmissionStatusHistory{},
		&models.Publication{},
		&models.PublicationAuthor{},
		&models.PublicationUrl{},
		&models.PublicationFlag{},
		&models.PublicationTag{},
		&models.PublicationFile{},
		&models.OutboxTask{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// --- collaborator fakes -----------------------------------------------------

type fakeWiki struct {
	pages    map[string]string
	addCalls []string
	addErr   error
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{pages: map[string]string{}}
}

func (w *fakeWiki) Add(pageName, markup string, authorID int, revisionMessage string) (WikiPage, error) {
	if w.addErr != nil {
		return WikiPage{}, w.addErr
	}
	w.pages[pageName] = markup
	w.addCalls = append(w.addCalls, pageName)
	return WikiPage{Name: pageName, Markup: markup}, nil
}

func (w *fakeWiki) Page(pageName string) (*WikiPage, error) {
	markup, ok := w.pages[pageName]
	if !ok {
		return nil, nil
	}
	return &WikiPage{Name: pageName, Markup: markup}, nil
}

type watchedTopic struct {
	TopicID int
	UserID  int
	Enabled bool
}

type fakeTopics struct {
	watched []watchedTopic
	err     error
}

func (f *fakeTopics) WatchTopic(topicID, userID int, enabled bool) error {
	if f.err != nil {
		return f.err
	}
	f.watched = append(f.watched, watchedTopic{topicID, userID, enabled})
	return nil
}

type fakeVideoSync struct {
	recognized func(url string) bool
	synced     []VideoDescriptor
	err        error
}

func (f *fakeVideoSync) IsRecognizedUrl(url string) bool {
	if f.recognized == nil {
		return true
	}
	return f.recognized(url)
}

func (f *fakeVideoSync) Sync(video VideoDescriptor) error {
	if f.err != nil {
		return f.err
	}
	f.synced = append(f.synced, video)
	return nil
}

type roleGrant struct {
	AuthorIDs []int
	Title     string
}

type fakeRoles struct {
	grants []roleGrant
	err    error
}

func (f *fakeRoles) AssignAutoAssignableRolesByPublication(authorIDs []int, publicationTitle string) error {
	if f.err != nil {
		return f.err
	}
	f.grants = append(f.grants, roleGrant{authorIDs, publicationTitle})
	return nil
}

type automationPost struct {
	SubmissionID  int
	PublicationID int
}

type fakeAutomation struct {
	posts []automationPost
	err   error
}

func (f *fakeAutomation) PostSubmissionPublished(submissionID, publicationID int) error {
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, automationPost{submissionID, publicationID})
	return nil
}

type fakeParser struct {
	result     MovieParseResult
	err        error
	parseCalls int
	zipCalls   int
	lastBytes  []byte
	lastName   string
}

func (f *fakeParser) Parse(fileBytes []byte, fileName string) (MovieParseResult, error) {
	f.parseCalls++
	f.lastBytes = fileBytes
	f.lastName = fileName
	return f.result, f.err
}

func (f *fakeParser) ParseZip(fileBytes []byte) (MovieParseResult, error) {
	f.zipCalls++
	f.lastBytes = fileBytes
	return f.result, f.err
}

func parsedOK() MovieParseResult {
	return MovieParseResult{
		Success:       true,
		SystemCode:    "NES",
		Frames:        21600,
		RerecordCount: 4242,
		RegionCode:    "ntsc",
		Hashes:        map[string]string{"sha1": "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		FileExtension: "bk2",
	}
}

var errBoom = errors.New("boom")

// --- seed helpers -----------------------------------------------------------

func seedUser(t *testing.T, db *gorm.DB, id int, name string) models.User {
	t.Helper()
	u := models.User{UserID: id, UserName: name, Email: name + "@example.org", CreatedAt: time.Now()}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func seedSystem(t *testing.T, db *gorm.DB) (models.GameSystem, models.GameSystemFrameRate) {
	t.Helper()
	sys := models.GameSystem{Code: "NES", DisplayName: "Nintendo Entertainment System"}
	if err := db.Create(&sys).Error; err != nil {
		t.Fatalf("seed system: %v", err)
	}
	rate := models.GameSystemFrameRate{SystemID: sys.SystemID, FrameRate: 60.0988, RegionCode: "ntsc"}
	if err := db.Create(&rate).Error; err != nil {
		t.Fatalf("seed frame rate: %v", err)
	}
	return sys, rate
}

func seedCatalog(t *testing.T, db *gorm.DB, systemID int) (models.Game, models.GameVersion, models.GameGoal, models.PublicationClass) {
	t.Helper()
	game := models.Game{DisplayName: "Mega Quest", CreatedAt: time.Now()}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("seed game: %v", err)
	}
	version := models.GameVersion{GameID: game.GameID, SystemID: systemID, Name: "USA v1.0", RegionCode: "ntsc"}
	if err := db.Create(&version).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}
	goal := models.GameGoal{GameID: game.GameID, DisplayName: "100%"}
	if err := db.Create(&goal).Error; err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	class := models.PublicationClass{Name: "Standard", Weight: 1}
	if err := db.Create(&class).Error; err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return game, version, goal, class
}

type submissionSeed struct {
	Status      models.SubmissionStatus
	SubmitterID int
	AuthorIDs   []int
	JudgeID     *int
	PublisherID *int
	Catalogued  bool
	TopicID     *int
	SubmittedAt time.Time
}

func seedSubmission(t *testing.T, db *gorm.DB, seed submissionSeed) models.Submission {
	t.Helper()

	sys, rate := seedSystem(t, db)
	storage := models.MovieStorage{StorageKey: fmt.Sprintf("storage-%d", time.Now().UnixNano()), Bytes: []byte("PK\x03\x04movie"), CreatedAt: time.Now()}
	if err := db.Create(&storage).Error; err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	submittedAt := seed.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().Add(-200 * time.Hour)
	}

	sub := models.Submission{
		Status:            seed.Status,
		SubmitterID:       seed.SubmitterID,
		JudgeID:           seed.JudgeID,
		PublisherID:       seed.PublisherID,
		SystemID:          sys.SystemID,
		SystemFrameRateID: rate.FrameRateID,
		GameName:          "Mega Quest",
		GoalName:          "100%",
		Frames:            21600,
		RerecordCount:     4242,
		MovieExtension:    "bk2",
		MovieHash:         "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		MovieStorageKey:   storage.StorageKey,
		EmulatorVersion:   "BizHawk 2.9",
		TopicID:           seed.TopicID,
		CreatedAt:         submittedAt,
	}
	if seed.Catalogued {
		game, version, goal, class := seedCatalog(t, db, sys.SystemID)
		sub.GameID = &game.GameID
		sub.GameVersionID = &version.VersionID
		sub.GameGoalID = &goal.GoalID
		sub.IntendedClassID = &class.ClassID
	}
	for i, userID := range seed.AuthorIDs {
		sub.Authors = append(sub.Authors, models.SubmissionAuthor{UserID: userID, Ordinal: i})
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return sub
}

func seedPublication(t *testing.T, db *gorm.DB, gameID int, fileName string, obsoletedBy *int, streamingUrls ...string) models.Publication {
	t.Helper()
	pub := models.Publication{
		SubmissionID:  999,
		GameID:        gameID,
		GameVersionID: 1,
		GameGoalID:    1,
		ClassID:       1,
		SystemID:      1,
		MovieFileName: fileName,
		Title:         fileName,
		ObsoletedByID: obsoletedBy,
		CreatedAt:     time.Now(),
	}
	for _, u := range streamingUrls {
		pub.Urls = append(pub.Urls, models.PublicationUrl{Url: u, Type: models.LinkTypeStreaming})
	}
	if err := db.Create(&pub).Error; err != nil {
		t.Fatalf("seed publication %s: %v", fileName, err)
	}
	return pub
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
