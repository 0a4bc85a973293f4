package models

import "time"

// Game represents the games table.
type Game struct {
	GameID       int        `gorm:"primaryKey;column:game_id" json:"game_id"`
	DisplayName  string     `gorm:"column:display_name" json:"display_name"`
	Abbreviation *string    `gorm:"column:abbreviation" json:"abbreviation,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`

	Versions []GameVersion `gorm:"foreignKey:GameID;references:GameID" json:"versions,omitempty"`
	Goals    []GameGoal    `gorm:"foreignKey:GameID;references:GameID" json:"goals,omitempty"`
}

func (Game) TableName() string {
	return "games"
}

// GameVersion represents the game_versions table (a concrete release of a
// game on one system, e.g. a regional cartridge revision).
type GameVersion struct {
	VersionID   int     `gorm:"primaryKey;column:version_id" json:"version_id"`
	GameID      int     `gorm:"column:game_id" json:"game_id"`
	SystemID    int     `gorm:"column:system_id" json:"system_id"`
	Name        string  `gorm:"column:name" json:"name"`
	Md5         *string `gorm:"column:md5" json:"md5,omitempty"`
	Sha1        *string `gorm:"column:sha1" json:"sha1,omitempty"`
	RegionCode  string  `gorm:"column:region_code" json:"region_code"`
}

func (GameVersion) TableName() string {
	return "game_versions"
}

// GameGoal represents the game_goals table. The baseline goal has an empty
// display name and is omitted from publication titles.
type GameGoal struct {
	GoalID      int    `gorm:"primaryKey;column:goal_id" json:"goal_id"`
	GameID      int    `gorm:"column:game_id" json:"game_id"`
	DisplayName string `gorm:"column:display_name" json:"display_name"`
}

func (GameGoal) TableName() string {
	return "game_goals"
}
