package incident

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// CreateDraft opens a new incident report in DRAFT for the reporting actor
// and records the creation event in the audit trail.
func (s *Service) CreateDraft(ctx context.Context, input CreateDraftInput) (ports.IncidentRecord, error) {
	if ctx == nil {
		return ports.IncidentRecord{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.IncidentRecord{}, errs.Wrap(err, "check context")
	}
	if err := s.ensureDeps(); err != nil {
		return ports.IncidentRecord{}, err
	}

	if !domainincident.HasAnyRole(input.Actor.Roles, domainincident.RolePerawat) {
		return ports.IncidentRecord{}, fmt.Errorf("%w: reporting requires role %s",
			domainincident.ErrInsufficientRole, domainincident.RolePerawat)
	}
	if !validDescription(input.FreeTextDescription) {
		return ports.IncidentRecord{}, ErrDescriptionTooShort
	}

	occurredAt := time.Now().UTC()
	if input.OccurredAt != nil {
		occurredAt = input.OccurredAt.UTC()
	}

	var created ports.IncidentRecord
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.CreateIncident(txCtx, ports.IncidentRecord{
			ReporterID:          input.Actor.ID,
			PatientIdentifier:   input.PatientIdentifier,
			OccurredAt:          occurredAt,
			LocationID:          input.LocationID,
			DepartmentID:        input.DepartmentID,
			FreeTextDescription: input.FreeTextDescription,
			HarmIndicator:       input.HarmIndicator,
			Attachments:         input.Attachments,
			Status:              domainincident.StatusDraft,
		})
		if err != nil {
			return err
		}

		return appendAuditTx(txCtx, s.repo, created.ID, input.Actor.ID, nil, domainincident.StatusDraft,
			map[string]any{"reporter_id": input.Actor.ID})
	}); err != nil {
		return ports.IncidentRecord{}, err
	}

	s.setCacheBestEffort(ctx, cacheStatusKey(created.ID), domainincident.StatusDraft.String())
	return created, nil
}
