package ports

import (
	"context"
	"errors"
	"time"

	"insiden/internal/domain/incident"
)

var (
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrStaleIncident signals a lost compare-and-set race: the incident's
	// status or version changed between read and write. The enclosing unit
	// of work must roll back.
	ErrStaleIncident = errors.New("incident was modified concurrently")
)

// IncidentRecord is the repository view of an incident row.
type IncidentRecord struct {
	ID                  int64
	ReporterID          int64
	PatientIdentifier   *string
	OccurredAt          time.Time
	LocationID          *int64
	DepartmentID        *int64
	FreeTextDescription string
	HarmIndicator       *string
	Attachments         []string

	Status              incident.IncidentStatus
	PredictedCategory   *incident.IncidentCategory
	PredictedConfidence *float64
	ModelVersion        *string
	PJDecision          *incident.IncidentCategory
	PJNotes             *string
	MutuDecision        *incident.IncidentCategory
	MutuNotes           *string
	FinalCategory       *incident.IncidentCategory

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// AuditRecord is one immutable row of an incident's transition history.
type AuditRecord struct {
	ID          int64
	IncidentID  int64
	ActorID     int64
	FromStatus  *incident.IncidentStatus
	ToStatus    incident.IncidentStatus
	PayloadDiff string
	CreatedAt   time.Time
}

type AuditLogCreate struct {
	IncidentID  int64
	ActorID     int64
	FromStatus  *incident.IncidentStatus
	ToStatus    incident.IncidentStatus
	PayloadDiff string
}

type IncidentFilter struct {
	Status     *incident.IncidentStatus
	ReporterID int64
	Offset     int
	Limit      int
}

type IncidentRepository interface {
	// CreateIncident inserts a new draft and returns it with identity and
	// timestamps filled in.
	CreateIncident(ctx context.Context, rec IncidentRecord) (IncidentRecord, error)

	GetIncident(ctx context.Context, id int64) (IncidentRecord, error)
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]IncidentRecord, int64, error)

	// UpdateIncidentCAS writes all mutable fields of rec guarded by its
	// pre-mutation Status and Version (compare-and-set). The stored version
	// is incremented; rec.Version must hold the version read at load time.
	// Returns ErrStaleIncident when the guard matches no row.
	UpdateIncidentCAS(ctx context.Context, rec IncidentRecord, expectedStatus incident.IncidentStatus) (IncidentRecord, error)

	// AppendAuditLog inserts one immutable audit row. There is no update or
	// delete counterpart.
	AppendAuditLog(ctx context.Context, input AuditLogCreate) error
	ListAuditLogs(ctx context.Context, incidentID int64) ([]AuditRecord, error)
}
