package models

// GameSystem represents the game_systems table. Code is the short parser
// system code ("NES", "Genesis", ...).
type GameSystem struct {
	SystemID    int    `gorm:"primaryKey;column:system_id" json:"system_id"`
	Code        string `gorm:"column:code;unique" json:"code"`
	DisplayName string `gorm:"column:display_name" json:"display_name"`

	FrameRates []GameSystemFrameRate `gorm:"foreignKey:SystemID;references:SystemID" json:"frame_rates,omitempty"`
}

func (GameSystem) TableName() string {
	return "game_systems"
}

// GameSystemFrameRate represents the game_system_frame_rates table. The
// (system, frame rate, region) triple is unique; Preliminary marks rates
// created on the fly from a parser override rather than curated defaults.
type GameSystemFrameRate struct {
	FrameRateID int     `gorm:"primaryKey;column:frame_rate_id" json:"frame_rate_id"`
	SystemID    int     `gorm:"column:system_id;uniqueIndex:idx_system_rate_region" json:"system_id"`
	FrameRate   float64 `gorm:"column:frame_rate;uniqueIndex:idx_system_rate_region" json:"frame_rate"`
	RegionCode  string  `gorm:"column:region_code;uniqueIndex:idx_system_rate_region" json:"region_code"`
	Preliminary bool    `gorm:"column:preliminary" json:"preliminary"`
}

func (GameSystemFrameRate) TableName() string {
	return "game_system_frame_rates"
}
