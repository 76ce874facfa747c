package incident

import (
	"context"
	"errors"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// PJReview records the unit supervisor's first-level decision: it sets the PJ
// decision and notes, mirrors the decision into the final category and moves
// the incident to PJ_REVIEWED.
func (s *Service) PJReview(ctx context.Context, input ReviewInput) (ports.IncidentRecord, error) {
	if ctx == nil {
		return ports.IncidentRecord{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.IncidentRecord{}, errs.Wrap(err, "check context")
	}
	if err := s.ensureDeps(); err != nil {
		return ports.IncidentRecord{}, err
	}

	category, err := domainincident.ParseCategory(input.Category)
	if err != nil {
		return ports.IncidentRecord{}, err
	}
	notes := derefNotes(input.Notes)

	var updated ports.IncidentRecord
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		rec, err := s.repo.GetIncident(txCtx, input.IncidentID)
		if err != nil {
			return err
		}

		previous := rec.Status
		if err := domainincident.EnsureTransition(previous, domainincident.StatusPJReviewed, input.Actor.Roles); err != nil {
			return err
		}

		rec.PJDecision = &category
		rec.FinalCategory = &category
		rec.Status = domainincident.StatusPJReviewed
		rec.PJNotes = nil
		if notes != "" {
			rec.PJNotes = &notes
		}

		updated, err = s.repo.UpdateIncidentCAS(txCtx, rec, previous)
		if err != nil {
			return err
		}

		return appendAuditTx(txCtx, s.repo, rec.ID, input.Actor.ID, &previous, domainincident.StatusPJReviewed,
			map[string]any{"pj_decision": category.String(), "notes": notes})
	}); err != nil {
		return ports.IncidentRecord{}, err
	}

	s.setCacheBestEffort(ctx, cacheStatusKey(updated.ID), domainincident.StatusPJReviewed.String())
	return updated, nil
}
