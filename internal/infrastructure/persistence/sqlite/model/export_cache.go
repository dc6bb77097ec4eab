package model

// ExportCacheEntry holds one rendered export keyed by fiscal-year label.
// Timestamps are RFC3339Nano text; a zero-value expires_at means no TTL.
type ExportCacheEntry struct {
	Key       string `gorm:"column:key;primaryKey;type:text"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
	ExpiresAt string `gorm:"column:expires_at;type:text;not null;default:''"`
}

func (ExportCacheEntry) TableName() string {
	return "export_cache"
}
