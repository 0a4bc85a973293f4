package models

import "time"

// MovieStorage represents the movie_storage table: canonical zip-wrapped
// movie bytes keyed by an opaque storage key. Publishing copies the bytes
// into a fresh row rather than sharing the submission's row, so the
// submission archive stays intact for audit.
type MovieStorage struct {
	StorageKey string    `gorm:"primaryKey;column:storage_key" json:"storage_key"`
	Bytes      []byte    `gorm:"column:bytes" json:"-"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (MovieStorage) TableName() string {
	return "movie_storage"
}
