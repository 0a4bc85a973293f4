package models

import "time"

// Link types for publication URLs.
const (
	LinkTypeStreaming = "streaming"
	LinkTypeMirror    = "mirror"
)

// Publication file types.
const (
	FileTypeMovie      = "movie"
	FileTypeScreenshot = "screenshot"
)

// Publication represents the publications table. A publication keeps a
// one-way link back to its source submission; the submission persists for
// audit but stops transitioning once published. ObsoletedByID, when set,
// references another publication of the same game.
type Publication struct {
	PublicationID     int        `gorm:"primaryKey;column:publication_id" json:"publication_id"`
	SubmissionID      int        `gorm:"column:submission_id" json:"submission_id"`
	GameID            int        `gorm:"column:game_id" json:"game_id"`
	GameVersionID     int        `gorm:"column:game_version_id" json:"game_version_id"`
	GameGoalID        int        `gorm:"column:game_goal_id" json:"game_goal_id"`
	ClassID           int        `gorm:"column:class_id" json:"class_id"`
	SystemID          int        `gorm:"column:system_id" json:"system_id"`
	SystemFrameRateID int        `gorm:"column:system_frame_rate_id" json:"system_frame_rate_id"`
	Frames            int        `gorm:"column:frames" json:"frames"`
	RerecordCount     int        `gorm:"column:rerecord_count" json:"rerecord_count"`
	EmulatorVersion   string     `gorm:"column:emulator_version" json:"emulator_version"`
	MovieFileName     string     `gorm:"column:movie_file_name" json:"movie_file_name"`
	Title             string     `gorm:"column:title" json:"title"`
	ObsoletedByID     *int       `gorm:"column:obsoleted_by_id" json:"obsoleted_by_id,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`

	// Relations
	Game    *Game               `gorm:"foreignKey:GameID" json:"game,omitempty"`
	System  *GameSystem         `gorm:"foreignKey:SystemID" json:"system,omitempty"`
	Authors []PublicationAuthor `gorm:"foreignKey:PublicationID;references:PublicationID" json:"authors,omitempty"`
	Urls    []PublicationUrl    `gorm:"foreignKey:PublicationID;references:PublicationID" json:"urls,omitempty"`
	Flags   []PublicationFlag   `gorm:"foreignKey:PublicationID;references:PublicationID" json:"flags,omitempty"`
	Tags    []PublicationTag    `gorm:"foreignKey:PublicationID;references:PublicationID" json:"tags,omitempty"`
	Files   []PublicationFile   `gorm:"foreignKey:PublicationID;references:PublicationID" json:"files,omitempty"`
}

func (Publication) TableName() string {
	return "publications"
}

// StreamingUrls returns the publication's URLs of streaming type, in stored order.
func (p *Publication) StreamingUrls() []PublicationUrl {
	var out []PublicationUrl
	for _, u := range p.Urls {
		if u.Type == LinkTypeStreaming {
			out = append(out, u)
		}
	}
	return out
}

// PublicationAuthor represents the publication_authors table.
type PublicationAuthor struct {
	PublicationID int  `gorm:"primaryKey;column:publication_id" json:"publication_id"`
	UserID        int  `gorm:"primaryKey;column:user_id" json:"user_id"`
	Ordinal       int  `gorm:"column:ordinal" json:"ordinal"`
	User          User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (PublicationAuthor) TableName() string {
	return "publication_authors"
}

// PublicationUrl represents the publication_urls table.
type PublicationUrl struct {
	UrlID         int    `gorm:"primaryKey;column:url_id" json:"url_id"`
	PublicationID int    `gorm:"column:publication_id" json:"publication_id"`
	Url           string `gorm:"column:url" json:"url"`
	Type          string `gorm:"column:type" json:"type"`
	DisplayName   string `gorm:"column:display_name" json:"display_name"`
}

func (PublicationUrl) TableName() string {
	return "publication_urls"
}

// PublicationFlag links a publication to a flag from the flags lookup table.
type PublicationFlag struct {
	PublicationID int `gorm:"primaryKey;column:publication_id" json:"publication_id"`
	FlagID        int `gorm:"primaryKey;column:flag_id" json:"flag_id"`
}

func (PublicationFlag) TableName() string {
	return "publication_flags"
}

// PublicationTag links a publication to a tag from the tags lookup table.
type PublicationTag struct {
	PublicationID int `gorm:"primaryKey;column:publication_id" json:"publication_id"`
	TagID         int `gorm:"primaryKey;column:tag_id" json:"tag_id"`
}

func (PublicationTag) TableName() string {
	return "publication_tags"
}

// PublicationFile represents the publication_files table. The movie file row
// points at a MovieStorage record holding the canonical zipped bytes.
type PublicationFile struct {
	FileID        int    `gorm:"primaryKey;column:file_id" json:"file_id"`
	PublicationID int    `gorm:"column:publication_id" json:"publication_id"`
	Path          string `gorm:"column:path" json:"path"`
	Type          string `gorm:"column:type" json:"type"`
	StorageKey    string `gorm:"column:storage_key" json:"storage_key"`
}

func (PublicationFile) TableName() string {
	return "publication_files"
}

// PublicationClass represents the publication_classes table (intended class
// on submissions, assigned class on publications).
type PublicationClass struct {
	ClassID int     `gorm:"primaryKey;column:class_id" json:"class_id"`
	Name    string  `gorm:"column:name" json:"name"`
	Weight  float64 `gorm:"column:weight" json:"weight"`
}

func (PublicationClass) TableName() string {
	return "publication_classes"
}

// Flag represents the flags lookup table.
type Flag struct {
	FlagID int    `gorm:"primaryKey;column:flag_id" json:"flag_id"`
	Name   string `gorm:"column:name" json:"name"`
	Token  string `gorm:"column:token" json:"token"`
}

func (Flag) TableName() string {
	return "flags"
}

// Tag represents the tags lookup table.
type Tag struct {
	TagID       int    `gorm:"primaryKey;column:tag_id" json:"tag_id"`
	Code        string `gorm:"column:code" json:"code"`
	DisplayName string `gorm:"column:display_name" json:"display_name"`
}

func (Tag) TableName() string {
	return "tags"
}
