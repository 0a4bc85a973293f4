package models

import "time"

// SubmissionStatus enumerates the lifecycle states of a submission.
type SubmissionStatus int

const (
	StatusNew SubmissionStatus = iota
	StatusDelayed
	StatusNeedsMoreInfo
	StatusJudgingUnderway
	StatusAccepted
	StatusPublicationUnderway
	StatusPublished
	StatusRejected
	StatusCancelled
	StatusPlayground
)

var statusNames = map[SubmissionStatus]string{
	StatusNew:                 "New",
	StatusDelayed:             "Delayed",
	StatusNeedsMoreInfo:       "Needs More Info",
	StatusJudgingUnderway:     "Judging Underway",
	StatusAccepted:            "Accepted",
	StatusPublicationUnderway: "Publication Underway",
	StatusPublished:           "Published",
	StatusRejected:            "Rejected",
	StatusCancelled:           "Cancelled",
	StatusPlayground:          "Playground",
}

func (s SubmissionStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// AllStatuses returns every defined status in declaration order.
func AllStatuses() []SubmissionStatus {
	return []SubmissionStatus{
		StatusNew,
		StatusDelayed,
		StatusNeedsMoreInfo,
		StatusJudgingUnderway,
		StatusAccepted,
		StatusPublicationUnderway,
		StatusPublished,
		StatusRejected,
		StatusCancelled,
		StatusPlayground,
	}
}

// CanBeJudged reports whether a submission in this status is still awaiting
// a verdict, which is what the judging-window countdown applies to.
func (s SubmissionStatus) CanBeJudged() bool {
	switch s {
	case StatusNew, StatusDelayed, StatusNeedsMoreInfo, StatusJudgingUnderway:
		return true
	}
	return false
}

// Submission represents the submissions table. Once the status reaches
// Published the row is frozen; further edits happen on the Publication.
type Submission struct {
	SubmissionID      int              `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	Status            SubmissionStatus `gorm:"column:status" json:"status"`
	SubmitterID       int              `gorm:"column:submitter_id" json:"submitter_id"`
	JudgeID           *int             `gorm:"column:judge_id" json:"judge_id,omitempty"`
	PublisherID       *int             `gorm:"column:publisher_id" json:"publisher_id,omitempty"`
	GameID            *int             `gorm:"column:game_id" json:"game_id,omitempty"`
	GameVersionID     *int             `gorm:"column:game_version_id" json:"game_version_id,omitempty"`
	GameGoalID        *int             `gorm:"column:game_goal_id" json:"game_goal_id,omitempty"`
	IntendedClassID   *int             `gorm:"column:intended_class_id" json:"intended_class_id,omitempty"`
	SystemID          int              `gorm:"column:system_id" json:"system_id"`
	SystemFrameRateID int              `gorm:"column:system_frame_rate_id" json:"system_frame_rate_id"`
	GameName          string           `gorm:"column:game_name" json:"game_name"`
	GoalName          string           `gorm:"column:goal_name" json:"goal_name"`
	Frames            int              `gorm:"column:frames" json:"frames"`
	RerecordCount     int              `gorm:"column:rerecord_count" json:"rerecord_count"`
	MovieExtension    string           `gorm:"column:movie_extension" json:"movie_extension"`
	MovieHash         string           `gorm:"column:movie_hash" json:"movie_hash"`
	MovieStorageKey   string           `gorm:"column:movie_storage_key" json:"movie_storage_key"`
	EmulatorVersion   string           `gorm:"column:emulator_version" json:"emulator_version"`
	Annotations       string           `gorm:"column:annotations" json:"annotations"`
	TopicID           *int             `gorm:"column:topic_id" json:"topic_id,omitempty"`
	RejectionReasonID *int             `gorm:"column:rejection_reason_id" json:"rejection_reason_id,omitempty"`
	Version           int              `gorm:"column:version" json:"version"`
	CreatedAt         time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         *time.Time       `gorm:"column:updated_at" json:"updated_at,omitempty"`

	// Relations
	Submitter *User              `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`
	Judge     *User              `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
	Publisher *User              `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	System    *GameSystem        `gorm:"foreignKey:SystemID" json:"system,omitempty"`
	Authors   []SubmissionAuthor `gorm:"foreignKey:SubmissionID;references:SubmissionID" json:"authors,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// IsAuthorOrSubmitter reports whether userID submitted or co-authored s.
// Authors must be preloaded for the author half of the check.
func (s *Submission) IsAuthorOrSubmitter(userID int) bool {
	if s.SubmitterID == userID {
		return true
	}
	for _, a := range s.Authors {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// SubmissionAuthor represents the submission_authors table. Ordinal preserves
// the author order the submitter chose.
type SubmissionAuthor struct {
	SubmissionID int  `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	UserID       int  `gorm:"primaryKey;column:user_id" json:"user_id"`
	Ordinal      int  `gorm:"column:ordinal" json:"ordinal"`
	User         User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SubmissionAuthor) TableName() string {
	return "submission_authors"
}
