package model

// StatusKV backs the best-effort incident status cache.
type StatusKV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (StatusKV) TableName() string {
	return "status_kv"
}
