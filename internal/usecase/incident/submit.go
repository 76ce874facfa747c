package incident

import (
	"context"
	"errors"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// Submit moves a draft to SUBMITTED: it validates the transition, invokes the
// classifier on the free-text description, records the prediction on the
// incident and appends the audit entry with the full prediction payload. Only
// the original reporter may submit.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (ports.IncidentRecord, error) {
	if ctx == nil {
		return ports.IncidentRecord{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.IncidentRecord{}, errs.Wrap(err, "check context")
	}
	if err := s.ensureDeps(); err != nil {
		return ports.IncidentRecord{}, err
	}
	if s.classifier == nil {
		return ports.IncidentRecord{}, errors.New("classifier is required")
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

		previous := rec.Status
		if err := domainincident.EnsureTransition(previous, domainincident.StatusSubmitted, input.Actor.Roles); err != nil {
			return err
		}

		prediction := s.classifier.Predict(txCtx, rec.FreeTextDescription, departmentMetadata(rec.DepartmentID))
		rec.PredictedCategory = &prediction.Category
		rec.PredictedConfidence = &prediction.Confidence
		rec.ModelVersion = &prediction.ModelVersion
		rec.Status = domainincident.StatusSubmitted

		updated, err = s.repo.UpdateIncidentCAS(txCtx, rec, previous)
		if err != nil {
			return err
		}

		return appendAuditTx(txCtx, s.repo, rec.ID, input.Actor.ID, &previous, domainincident.StatusSubmitted,
			map[string]any{"prediction": map[string]any{
				"category":      prediction.Category.String(),
				"confidence":    prediction.Confidence,
				"model_version": prediction.ModelVersion,
			}})
	}); err != nil {
		return ports.IncidentRecord{}, err
	}

	s.setCacheBestEffort(ctx, cacheStatusKey(updated.ID), domainincident.StatusSubmitted.String())
	return updated, nil
}
