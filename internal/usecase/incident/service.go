package incident

import (
	"context"
	"errors"
	"time"

	"insiden/internal/ports"
)

var (
	// ErrDescriptionTooShort rejects drafts below the minimum free-text
	// length required by the reporting form.
	ErrDescriptionTooShort = errors.New("free text description must be at least 10 characters")

	// ErrNotDraft rejects free-form edits once an incident has left DRAFT.
	ErrNotDraft = errors.New("only draft incidents can be edited")

	// ErrAccessDenied rejects reads of incidents the actor neither reported
	// nor reviews.
	ErrAccessDenied = errors.New("access denied")
)

const minDescriptionLength = 10

// Service orchestrates the incident lifecycle: each operation validates the
// transition, mutates the incident, invokes the classifier where relevant and
// appends an audit record, all inside one unit of work.
type Service struct {
	repo       ports.IncidentRepository
	uow        ports.UnitOfWork
	classifier ports.Classifier
	cache      ports.Cache
}

// NewService wires the lifecycle usecases with repository, unit of work,
// classifier and optional cache.
func NewService(repo ports.IncidentRepository, uow ports.UnitOfWork, classifier ports.Classifier, cache ports.Cache) *Service {
	return &Service{
		repo:       repo,
		uow:        uow,
		classifier: classifier,
		cache:      cache,
	}
}

type CreateDraftInput struct {
	Actor               ports.Actor
	PatientIdentifier   *string
	OccurredAt          *time.Time
	LocationID          *int64
	DepartmentID        *int64
	FreeTextDescription string
	HarmIndicator       *string
	Attachments         []string
}

// UpdateDraftInput carries partial edits: nil pointers leave the stored value
// untouched.
type UpdateDraftInput struct {
	IncidentID          int64
	Actor               ports.Actor
	PatientIdentifier   *string
	OccurredAt          *time.Time
	LocationID          *int64
	DepartmentID        *int64
	FreeTextDescription *string
	HarmIndicator       *string
	Attachments         []string
}

type SubmitInput struct {
	IncidentID int64
	Actor      ports.Actor
}

type ReviewInput struct {
	IncidentID int64
	Actor      ports.Actor
	Category   string
	Notes      *string
}

type CloseInput struct {
	IncidentID int64
	Actor      ports.Actor
}

type ListInput struct {
	Actor   ports.Actor
	Status  *string
	Page    int
	PerPage int
}

type ListOutput struct {
	Items   []ports.IncidentRecord
	Page    int
	PerPage int
	Total   int64
}

// IncidentDetail is an incident together with its ordered audit trail.
type IncidentDetail struct {
	Incident ports.IncidentRecord
	Audit    []ports.AuditRecord
}

func (s *Service) setCacheBestEffort(ctx context.Context, key string, value string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}

func (s *Service) ensureDeps() error {
	if s.repo == nil {
		return errors.New("incident repository is required")
	}
	if s.uow == nil {
		return errors.New("incident unit of work is required")
	}
	return nil
}
