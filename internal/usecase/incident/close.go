package incident

import (
	"context"
	"errors"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// Close moves a fully reviewed incident to CLOSED. Beyond the transition
// check it enforces the business invariant that a final category exists;
// after closing no field is ever mutated again.
func (s *Service) Close(ctx context.Context, input CloseInput) (ports.IncidentRecord, error) {
	if ctx == nil {
		return ports.IncidentRecord{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.IncidentRecord{}, errs.Wrap(err, "check context")
	}
	if err := s.ensureDeps(); err != nil {
		return ports.IncidentRecord{}, err
	}

	var updated ports.IncidentRecord
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		rec, err := s.repo.GetIncident(txCtx, input.IncidentID)
		if err != nil {
			return err
		}

		previous := rec.Status
		if err := domainincident.EnsureTransition(previous, domainincident.StatusClosed, input.Actor.Roles); err != nil {
			return err
		}
		if rec.FinalCategory == nil {
			return domainincident.ErrFinalCategoryMissing
		}

		rec.Status = domainincident.StatusClosed

		updated, err = s.repo.UpdateIncidentCAS(txCtx, rec, previous)
		if err != nil {
			return err
		}

		return appendAuditTx(txCtx, s.repo, rec.ID, input.Actor.ID, &previous, domainincident.StatusClosed, nil)
	}); err != nil {
		return ports.IncidentRecord{}, err
	}

	s.setCacheBestEffort(ctx, cacheStatusKey(updated.ID), domainincident.StatusClosed.String())
	return updated, nil
}
