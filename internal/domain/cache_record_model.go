package domain

import "time"

// CacheRecord is the SQL row backing the database key-value store.
type CacheRecord struct {
	Key       string    `gorm:"column:cache_key;primaryKey;size:255"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CacheRecord) TableName() string {
	return "cache_records"
}
