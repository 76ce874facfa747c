package api

import (
	"net/http"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/ports"
)

type categoryView struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type referenceView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func toReferenceViews(items []ports.ReferenceItem) []referenceView {
	views := make([]referenceView, 0, len(items))
	for _, item := range items {
		views = append(views, referenceView{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
		})
	}
	return views
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories := domainincident.AllCategories()
	views := make([]categoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, categoryView{
			Code:        category.String(),
			Name:        category.String(),
			Description: category.Description(),
		})
	}

	writeData(ctx, w, http.StatusOK, "Incident categories", views)
}

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := s.users.ListDepartments(ctx)
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, "Departments", toReferenceViews(items))
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := s.users.ListLocations(ctx)
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}
	writeData(ctx, w, http.StatusOK, "Locations", toReferenceViews(items))
}
