package incident

import (
	"context"
	"errors"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// MutuReview records the quality team's second-level decision and moves the
// incident to MUTU_REVIEWED. The Mutu decision overwrites the final category
// set by PJ: Mutu has final say. Both decisions stay reconstructable from the
// audit trail.
func (s *Service) MutuReview(ctx context.Context, input ReviewInput) (ports.IncidentRecord, error) {
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
		if err := domainincident.EnsureTransition(previous, domainincident.StatusMutuReviewed, input.Actor.Roles); err != nil {
			return err
		}

		rec.MutuDecision = &category
		rec.FinalCategory = &category
		rec.Status = domainincident.StatusMutuReviewed
		rec.MutuNotes = nil
		if notes != "" {
			rec.MutuNotes = &notes
		}

		updated, err = s.repo.UpdateIncidentCAS(txCtx, rec, previous)
		if err != nil {
			return err
		}

		return appendAuditTx(txCtx, s.repo, rec.ID, input.Actor.ID, &previous, domainincident.StatusMutuReviewed,
			map[string]any{"mutu_decision": category.String(), "notes": notes})
	}); err != nil {
		return ports.IncidentRecord{}, err
	}

	s.setCacheBestEffort(ctx, cacheStatusKey(updated.ID), domainincident.StatusMutuReviewed.String())
	return updated, nil
}
