package models

// RejectionReason represents the rejection_reasons lookup table.
type RejectionReason struct {
	ReasonID    int    `gorm:"primaryKey;column:reason_id" json:"reason_id"`
	DisplayName string `gorm:"column:display_name" json:"display_name"`
}

func (RejectionReason) TableName() string {
	return "rejection_reasons"
}
