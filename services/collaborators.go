package services

// MovieParseResult is the contract every movie-format parser fulfills. The
// byte-level parsers themselves live behind the MovieParser interface; this
// engine only consumes their results.
type MovieParseResult struct {
	Success           bool
	Errors            []string
	Warnings          []string
	SystemCode        string
	Frames            int
	RerecordCount     int
	RegionCode        string
	FrameRateOverride *float64
	Hashes            map[string]string
	Annotations       string
	FileExtension     string
}

// MovieParser dispatches uploaded movie bytes to the format parsers.
type MovieParser interface {
	Parse(fileBytes []byte, fileName string) (MovieParseResult, error)
	ParseZip(fileBytes []byte) (MovieParseResult, error)
}

// WikiPage is the slice of a wiki page this engine reads and writes.
type WikiPage struct {
	Name   string
	Markup string
}

// WikiPages is the wiki collaborator: revisioned markup pages for
// submissions and publications.
type WikiPages interface {
	Add(pageName, markup string, authorID int, revisionMessage string) (WikiPage, error)
	Page(pageName string) (*WikiPage, error)
}

// TopicWatcher subscribes users to forum discussion topics.
type TopicWatcher interface {
	WatchTopic(topicID, userID int, enabled bool) error
}

// VideoDescriptor is what the external video-sync collaborator needs to
// mirror a publication's streaming entry.
type VideoDescriptor struct {
	PublicationID int
	Url           string
	Title         string
	Obsoleted     bool
}

// VideoSync mirrors publication metadata to recognized video hosts.
type VideoSync interface {
	IsRecognizedUrl(url string) bool
	Sync(video VideoDescriptor) error
}

// AutomationAgent is the opaque notification capability invoked after a
// publication commits.
type AutomationAgent interface {
	PostSubmissionPublished(submissionID, publicationID int) error
}

// RoleGrantor grants authors any roles they newly qualify for after a
// publication.
type RoleGrantor interface {
	AssignAutoAssignableRolesByPublication(authorIDs []int, publicationTitle string) error
}
