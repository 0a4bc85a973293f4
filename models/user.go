package models

import "time"

// User carries the identity facts this engine consumes. Authentication and
// account management live elsewhere; only the resolved permission facts of
// an acting user reach the operations here.
type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserName  string     `gorm:"column:user_name;unique" json:"user_name"`
	Email     string     `gorm:"column:email" json:"email"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Permission is a single capability fact about an actor.
type Permission string

const (
	PermissionJudgeSubmissions         Permission = "judge-submissions"
	PermissionPublishMovies            Permission = "publish-movies"
	PermissionOverrideSubmissionStatus Permission = "override-submission-status"
)

// PermissionSet is the set of permissions an actor holds.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}
