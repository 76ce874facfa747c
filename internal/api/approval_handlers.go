package api

import (
	"encoding/json"
	"net/http"

	incidentusecase "insiden/internal/usecase/incident"
)

type reviewPayload struct {
	Category string  `json:"category"`
	Notes    *string `json:"notes"`
}

func (s *Server) handlePJReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	id, ok := incidentIDParam(r)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "incident_not_found", "Incident not found")
		return
	}

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, http.StatusUnprocessableEntity, "validation_error", "Invalid request body")
		return
	}

	reviewed, err := s.incidents.PJReview(ctx, incidentusecase.ReviewInput{
		IncidentID: id,
		Actor:      actor,
		Category:   payload.Category,
		Notes:      payload.Notes,
	})
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, "PJ review recorded", toIncidentView(reviewed))
}

func (s *Server) handleMutuReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	id, ok := incidentIDParam(r)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "incident_not_found", "Incident not found")
		return
	}

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, http.StatusUnprocessableEntity, "validation_error", "Invalid request body")
		return
	}

	reviewed, err := s.incidents.MutuReview(ctx, incidentusecase.ReviewInput{
		IncidentID: id,
		Actor:      actor,
		Category:   payload.Category,
		Notes:      payload.Notes,
	})
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, "Mutu review recorded", toIncidentView(reviewed))
}

func (s *Server) handleCloseIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	id, ok := incidentIDParam(r)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "incident_not_found", "Incident not found")
		return
	}

	closed, err := s.incidents.Close(ctx, incidentusecase.CloseInput{IncidentID: id, Actor: actor})
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, "Incident closed", toIncidentView(closed))
}
