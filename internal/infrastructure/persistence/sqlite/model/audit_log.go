package model

import "time"

// AuditLog rows are append-only: the repository exposes no update or delete
// for them, and the ordered sequence per incident is its canonical history.
type AuditLog struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	IncidentID  int64     `gorm:"column:incident_id;not null;index"`
	ActorID     int64     `gorm:"column:actor_id;not null"`
	FromStatus  *string   `gorm:"column:from_status;type:text"`
	ToStatus    string    `gorm:"column:to_status;type:text;not null"`
	PayloadDiff *string   `gorm:"column:payload_diff;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
