package model

import "time"

type Incident struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ReporterID          int64     `gorm:"column:reporter_id;not null;index"`
	PatientIdentifier   *string   `gorm:"column:patient_identifier;type:text;index"`
	OccurredAt          time.Time `gorm:"column:occurred_at;not null"`
	LocationID          *int64    `gorm:"column:location_id"`
	DepartmentID        *int64    `gorm:"column:department_id"`
	FreeTextDescription string    `gorm:"column:free_text_description;type:text;not null"`
	HarmIndicator       *string   `gorm:"column:harm_indicator;type:text"`
	AttachmentsJSON     *string   `gorm:"column:attachments;type:text"`
	Status              string    `gorm:"column:status;type:text;not null;index"`
	PredictedCategory   *string   `gorm:"column:predicted_category;type:text"`
	PredictedConfidence *float64  `gorm:"column:predicted_confidence"`
	ModelVersion        *string   `gorm:"column:model_version;type:text"`
	PJDecision          *string   `gorm:"column:pj_decision;type:text"`
	PJNotes             *string   `gorm:"column:pj_notes;type:text"`
	MutuDecision        *string   `gorm:"column:mutu_decision;type:text"`
	MutuNotes           *string   `gorm:"column:mutu_notes;type:text"`
	FinalCategory       *string   `gorm:"column:final_category;type:text"`
	CreatedAt           time.Time `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time `gorm:"column:updated_at;not null"`
	Version             int       `gorm:"column:version;not null;default:1"`
}

func (Incident) TableName() string {
	return "incidents"
}
