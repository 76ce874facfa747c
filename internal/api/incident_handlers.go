package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"insiden/internal/ports"
	incidentusecase "insiden/internal/usecase/incident"
)

type incidentPayload struct {
	PatientIdentifier   *string    `json:"patient_identifier"`
	OccurredAt          *time.Time `json:"occurred_at"`
	LocationID          *int64     `json:"location_id"`
	DepartmentID        *int64     `json:"department_id"`
	FreeTextDescription *string    `json:"free_text_description"`
	HarmIndicator       *string    `json:"harm_indicator"`
	Attachments         []string   `json:"attachments"`
}

type incidentView struct {
	ID                  int64      `json:"id"`
	ReporterID          int64      `json:"reporter_id"`
	PatientIdentifier   *string    `json:"patient_identifier"`
	OccurredAt          time.Time  `json:"occurred_at"`
	LocationID          *int64     `json:"location_id"`
	DepartmentID        *int64     `json:"department_id"`
	FreeTextDescription string     `json:"free_text_description"`
	HarmIndicator       *string    `json:"harm_indicator"`
	Attachments         []string   `json:"attachments"`
	Status              string     `json:"status"`
	PredictedCategory   *string    `json:"predicted_category"`
	PredictedConfidence *float64   `json:"predicted_confidence"`
	ModelVersion        *string    `json:"model_version"`
	PJDecision          *string    `json:"pj_decision"`
	PJNotes             *string    `json:"pj_notes"`
	MutuDecision        *string    `json:"mutu_decision"`
	MutuNotes           *string    `json:"mutu_notes"`
	FinalCategory       *string    `json:"final_category"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type auditView struct {
	ID          int64           `json:"id"`
	ActorID     int64           `json:"actor_id"`
	FromStatus  *string         `json:"from_status"`
	ToStatus    string          `json:"to_status"`
	PayloadDiff json.RawMessage `json:"payload_diff,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type incidentDetailView struct {
	incidentView
	AuditLogs []auditView `json:"audit_logs"`
}

type incidentListView struct {
	Items   []incidentView `json:"items"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Total   int64          `json:"total"`
}

func toIncidentView(rec ports.IncidentRecord) incidentView {
	view := incidentView{
		ID:                  rec.ID,
		ReporterID:          rec.ReporterID,
		PatientIdentifier:   rec.PatientIdentifier,
		OccurredAt:          rec.OccurredAt,
		LocationID:          rec.LocationID,
		DepartmentID:        rec.DepartmentID,
		FreeTextDescription: rec.FreeTextDescription,
		HarmIndicator:       rec.HarmIndicator,
		Attachments:         rec.Attachments,
		Status:              rec.Status.String(),
		PredictedConfidence: rec.PredictedConfidence,
		ModelVersion:        rec.ModelVersion,
		PJNotes:             rec.PJNotes,
		MutuNotes:           rec.MutuNotes,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
	if rec.PredictedCategory != nil {
		value := rec.PredictedCategory.String()
		view.PredictedCategory = &value
	}
	if rec.PJDecision != nil {
		value := rec.PJDecision.String()
		view.PJDecision = &value
	}
	if rec.MutuDecision != nil {
		value := rec.MutuDecision.String()
		view.MutuDecision = &value
	}
	if rec.FinalCategory != nil {
		value := rec.FinalCategory.String()
		view.FinalCategory = &value
	}
	return view
}

func toAuditViews(records []ports.AuditRecord) []auditView {
	views := make([]auditView, 0, len(records))
	for _, rec := range records {
		view := auditView{
			ID:        rec.ID,
			ActorID:   rec.ActorID,
			ToStatus:  rec.ToStatus.String(),
			CreatedAt: rec.CreatedAt,
		}
		if rec.FromStatus != nil {
			value := rec.FromStatus.String()
			view.FromStatus = &value
		}
		if rec.PayloadDiff != "" {
			view.PayloadDiff = json.RawMessage(rec.PayloadDiff)
		}
		views = append(views, view)
	}
	return views
}

func incidentIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "incidentID"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	var payload incidentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, http.StatusUnprocessableEntity, "validation_error", "Invalid request body")
		return
	}

	description := ""
	if payload.FreeTextDescription != nil {
		description = *payload.FreeTextDescription
	}

	created, err := s.incidents.CreateDraft(ctx, incidentusecase.CreateDraftInput{
		Actor:               actor,
		PatientIdentifier:   payload.PatientIdentifier,
		OccurredAt:          payload.OccurredAt,
		LocationID:          payload.LocationID,
		DepartmentID:        payload.DepartmentID,
		FreeTextDescription: description,
		HarmIndicator:       payload.HarmIndicator,
		Attachments:         payload.Attachments,
	})
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusCreated, "Incident draft created", toIncidentView(created))
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	id, ok := incidentIDParam(r)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "incident_not_found", "Incident not found")
		return
	}

	var payload incidentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, http.StatusUnprocessableEntity, "validation_error", "Invalid request body")
		return
	}

	updated, err := s.incidents.UpdateDraft(ctx, incidentusecase.UpdateDraftInput{
		IncidentID:          id,
		Actor:               actor,
		PatientIdentifier:   payload.PatientIdentifier,
		OccurredAt:          payload.OccurredAt,
		LocationID:          payload.LocationID,
		DepartmentID:        payload.DepartmentID,
		FreeTextDescription: payload.FreeTextDescription,
		HarmIndicator:       payload.HarmIndicator,
		Attachments:         payload.Attachments,
	})
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, "Incident updated", toIncidentView(updated))
}

func (s *Server) handleSubmitIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	id, ok := incidentIDParam(r)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "incident_not_found", "Incident not found")
		return
	}

	submitted, err := s.incidents.Submit(ctx, incidentusecase.SubmitInput{IncidentID: id, Actor: actor})
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, "Incident submitted. Prediction generated.", toIncidentView(submitted))
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	input := incidentusecase.ListInput{
		Actor:   actor,
		Page:    parseIntDefault(r.URL.Query().Get("page"), 1),
		PerPage: parseIntDefault(r.URL.Query().Get("per_page"), 20),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		input.Status = &status
	}

	out, err := s.incidents.ListIncidents(ctx, input)
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	items := make([]incidentView, 0, len(out.Items))
	for _, rec := range out.Items {
		items = append(items, toIncidentView(rec))
	}

	writeData(ctx, w, http.StatusOK, "Incidents fetched", incidentListView{
		Items:   items,
		Page:    out.Page,
		PerPage: out.PerPage,
		Total:   out.Total,
	})
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := actorFromContext(ctx)

	id, ok := incidentIDParam(r)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "incident_not_found", "Incident not found")
		return
	}

	detail, err := s.incidents.GetIncident(ctx, id, actor)
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, "Incident detail", incidentDetailView{
		incidentView: toIncidentView(detail.Incident),
		AuditLogs:    toAuditViews(detail.Audit),
	})
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
