package incident

import (
	"context"
	"errors"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// UpdateDraft applies free-form edits to an incident still in DRAFT. Only the
// original reporter may edit, and only while the incident has not been
// submitted.
func (s *Service) UpdateDraft(ctx context.Context, input UpdateDraftInput) (ports.IncidentRecord, error) {
	if ctx == nil {
		return ports.IncidentRecord{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.IncidentRecord{}, errs.Wrap(err, "check context")
	}
	if err := s.ensureDeps(); err != nil {
		return ports.IncidentRecord{}, err
	}

	if input.FreeTextDescription != nil && !validDescription(*input.FreeTextDescription) {
		return ports.IncidentRecord{}, ErrDescriptionTooShort
	}

	var updated ports.IncidentRecord
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		rec, err := s.repo.GetIncident(txCtx, input.IncidentID)
		if err != nil {
			return err
		}
		if rec.ReporterID != input.Actor.ID {
			return domainincident.ErrNotReporter
		}
		if rec.Status != domainincident.StatusDraft {
			return ErrNotDraft
		}

		if input.PatientIdentifier != nil {
			rec.PatientIdentifier = input.PatientIdentifier
		}
		if input.OccurredAt != nil {
			rec.OccurredAt = input.OccurredAt.UTC()
		}
		if input.LocationID != nil {
			rec.LocationID = input.LocationID
		}
		if input.DepartmentID != nil {
			rec.DepartmentID = input.DepartmentID
		}
		if input.FreeTextDescription != nil {
			rec.FreeTextDescription = *input.FreeTextDescription
		}
		if input.HarmIndicator != nil {
			rec.HarmIndicator = input.HarmIndicator
		}
		if input.Attachments != nil {
			rec.Attachments = input.Attachments
		}

		updated, err = s.repo.UpdateIncidentCAS(txCtx, rec, domainincident.StatusDraft)
		return err
	}); err != nil {
		return ports.IncidentRecord{}, err
	}

	return updated, nil
}
