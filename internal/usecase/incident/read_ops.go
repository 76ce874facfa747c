package incident

import (
	"context"
	"errors"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
)

// GetIncident returns one incident with its ordered audit trail. Reporters
// see their own incidents; reviewer roles (pj, mutu, admin) see all.
func (s *Service) GetIncident(ctx context.Context, id int64, actor ports.Actor) (IncidentDetail, error) {
	if ctx == nil {
		return IncidentDetail{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return IncidentDetail{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return IncidentDetail{}, errors.New("incident repository is required")
	}

	rec, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return IncidentDetail{}, err
	}
	if rec.ReporterID != actor.ID && !domainincident.IsReviewer(actor.Roles) {
		return IncidentDetail{}, ErrAccessDenied
	}

	audit, err := s.repo.ListAuditLogs(ctx, id)
	if err != nil {
		return IncidentDetail{}, err
	}

	return IncidentDetail{Incident: rec, Audit: audit}, nil
}

// ListIncidents returns a page of incidents. Actors holding only the
// reporting role are scoped to their own reports.
func (s *Service) ListIncidents(ctx context.Context, input ListInput) (ListOutput, error) {
	if ctx == nil {
		return ListOutput{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ListOutput{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return ListOutput{}, errors.New("incident repository is required")
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	filter := ports.IncidentFilter{
		Offset: (page - 1) * perPage,
		Limit:  perPage,
	}
	if !domainincident.IsReviewer(input.Actor.Roles) {
		filter.ReporterID = input.Actor.ID
	}
	if input.Status != nil {
		status, err := domainincident.ParseStatus(*input.Status)
		if err != nil {
			return ListOutput{}, err
		}
		filter.Status = &status
	}

	items, total, err := s.repo.ListIncidents(ctx, filter)
	if err != nil {
		return ListOutput{}, err
	}

	return ListOutput{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}

// IncidentStatusHint reads the cached status of an incident; it may lag the
// database and is only for display surfaces such as the review console.
func (s *Service) IncidentStatusHint(ctx context.Context, id int64) (string, bool) {
	if s.cache == nil || ctx == nil {
		return "", false
	}
	value, found, err := s.cache.Get(ctx, cacheStatusKey(id))
	if err != nil || !found {
		return "", false
	}
	return value, true
}
