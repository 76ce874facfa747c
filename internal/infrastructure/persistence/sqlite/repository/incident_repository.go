package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/infrastructure/persistence/sqlite/model"
	"insiden/internal/ports"
)

type IncidentRepository struct {
	db *gorm.DB
}

var _ ports.IncidentRepository = (*IncidentRepository)(nil)

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *IncidentRepository) CreateIncident(ctx context.Context, rec ports.IncidentRecord) (ports.IncidentRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.IncidentRecord{}, err
	}

	row, err := toIncidentRow(rec)
	if err != nil {
		return ports.IncidentRecord{}, err
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Version = 1

	if err := db.Create(&row).Error; err != nil {
		return ports.IncidentRecord{}, errs.Wrap(err, "insert incident")
	}
	return mapIncident(row)
}

func (r *IncidentRepository) GetIncident(ctx context.Context, id int64) (ports.IncidentRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.IncidentRecord{}, err
	}

	var row model.Incident
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IncidentRecord{}, ports.ErrIncidentNotFound
		}
		return ports.IncidentRecord{}, errs.Wrap(err, "query incident by id")
	}
	return mapIncident(row)
}

func (r *IncidentRepository) ListIncidents(ctx context.Context, filter ports.IncidentFilter) ([]ports.IncidentRecord, int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := db.Model(&model.Incident{})
	if filter.ReporterID != 0 {
		query = query.Where("reporter_id = ?", filter.ReporterID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(err, "count incidents")
	}

	query = query.Order("created_at desc, id desc")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Incident
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, errs.Wrap(err, "query incidents")
	}

	items := make([]ports.IncidentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := mapIncident(row)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, nil
}

// UpdateIncidentCAS applies the mutated record guarded by the status and
// version the caller read inside the same transaction. Zero affected rows
// means another writer won the race.
func (r *IncidentRepository) UpdateIncidentCAS(ctx context.Context, rec ports.IncidentRecord, expectedStatus incident.IncidentStatus) (ports.IncidentRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.IncidentRecord{}, err
	}

	row, err := toIncidentRow(rec)
	if err != nil {
		return ports.IncidentRecord{}, err
	}
	row.UpdatedAt = time.Now().UTC()

	res := db.Model(&model.Incident{}).
		Where("id = ? AND status = ? AND version = ?", rec.ID, expectedStatus.String(), rec.Version).
		Updates(map[string]any{
			"patient_identifier":    row.PatientIdentifier,
			"occurred_at":           row.OccurredAt,
			"location_id":           row.LocationID,
			"department_id":         row.DepartmentID,
			"free_text_description": row.FreeTextDescription,
			"harm_indicator":        row.HarmIndicator,
			"attachments":           row.AttachmentsJSON,
			"status":                row.Status,
			"predicted_category":    row.PredictedCategory,
			"predicted_confidence":  row.PredictedConfidence,
			"model_version":         row.ModelVersion,
			"pj_decision":           row.PJDecision,
			"pj_notes":              row.PJNotes,
			"mutu_decision":         row.MutuDecision,
			"mutu_notes":            row.MutuNotes,
			"final_category":        row.FinalCategory,
			"updated_at":            row.UpdatedAt,
			"version":               gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return ports.IncidentRecord{}, errs.Wrap(res.Error, "update incident")
	}
	if res.RowsAffected == 0 {
		// Distinguish "gone" from "raced" for the caller.
		var count int64
		if err := db.Model(&model.Incident{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
			return ports.IncidentRecord{}, errs.Wrap(err, "recheck incident existence")
		}
		if count == 0 {
			return ports.IncidentRecord{}, ports.ErrIncidentNotFound
		}
		return ports.IncidentRecord{}, ports.ErrStaleIncident
	}

	return r.GetIncident(ctx, rec.ID)
}

func (r *IncidentRepository) AppendAuditLog(ctx context.Context, input ports.AuditLogCreate) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.AuditLog{
		IncidentID: input.IncidentID,
		ActorID:    input.ActorID,
		ToStatus:   input.ToStatus.String(),
		CreatedAt:  time.Now().UTC(),
	}
	if input.FromStatus != nil {
		from := input.FromStatus.String()
		row.FromStatus = &from
	}
	if input.PayloadDiff != "" {
		diff := input.PayloadDiff
		row.PayloadDiff = &diff
	}

	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert audit log")
	}
	return nil
}

func (r *IncidentRepository) ListAuditLogs(ctx context.Context, incidentID int64) ([]ports.AuditRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.AuditLog
	if err := db.
		Where("incident_id = ?", incidentID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query audit logs")
	}

	items := make([]ports.AuditRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := mapAuditLog(row)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

func toIncidentRow(rec ports.IncidentRecord) (model.Incident, error) {
	row := model.Incident{
		ID:                  rec.ID,
		ReporterID:          rec.ReporterID,
		PatientIdentifier:   rec.PatientIdentifier,
		OccurredAt:          rec.OccurredAt.UTC(),
		LocationID:          rec.LocationID,
		DepartmentID:        rec.DepartmentID,
		FreeTextDescription: rec.FreeTextDescription,
		HarmIndicator:       rec.HarmIndicator,
		Status:              rec.Status.String(),
		PredictedConfidence: rec.PredictedConfidence,
		ModelVersion:        rec.ModelVersion,
		PJNotes:             rec.PJNotes,
		MutuNotes:           rec.MutuNotes,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
		Version:             rec.Version,
	}

	row.PredictedCategory = categoryColumn(rec.PredictedCategory)
	row.PJDecision = categoryColumn(rec.PJDecision)
	row.MutuDecision = categoryColumn(rec.MutuDecision)
	row.FinalCategory = categoryColumn(rec.FinalCategory)

	if len(rec.Attachments) > 0 {
		encoded, err := json.Marshal(rec.Attachments)
		if err != nil {
			return model.Incident{}, errs.Wrap(err, "encode attachments")
		}
		value := string(encoded)
		row.AttachmentsJSON = &value
	}

	return row, nil
}

func mapIncident(row model.Incident) (ports.IncidentRecord, error) {
	status, err := incident.ParseStatus(row.Status)
	if err != nil {
		return ports.IncidentRecord{}, errs.Wrapf(err, "incident %d has invalid status", row.ID)
	}

	rec := ports.IncidentRecord{
		ID:                  row.ID,
		ReporterID:          row.ReporterID,
		PatientIdentifier:   row.PatientIdentifier,
		OccurredAt:          row.OccurredAt,
		LocationID:          row.LocationID,
		DepartmentID:        row.DepartmentID,
		FreeTextDescription: row.FreeTextDescription,
		HarmIndicator:       row.HarmIndicator,
		Status:              status,
		PredictedConfidence: row.PredictedConfidence,
		ModelVersion:        row.ModelVersion,
		PJNotes:             row.PJNotes,
		MutuNotes:           row.MutuNotes,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
		Version:             row.Version,
	}

	if rec.PredictedCategory, err = categoryValue(row.PredictedCategory); err != nil {
		return ports.IncidentRecord{}, errs.Wrapf(err, "incident %d predicted_category", row.ID)
	}
	if rec.PJDecision, err = categoryValue(row.PJDecision); err != nil {
		return ports.IncidentRecord{}, errs.Wrapf(err, "incident %d pj_decision", row.ID)
	}
	if rec.MutuDecision, err = categoryValue(row.MutuDecision); err != nil {
		return ports.IncidentRecord{}, errs.Wrapf(err, "incident %d mutu_decision", row.ID)
	}
	if rec.FinalCategory, err = categoryValue(row.FinalCategory); err != nil {
		return ports.IncidentRecord{}, errs.Wrapf(err, "incident %d final_category", row.ID)
	}

	if row.AttachmentsJSON != nil && *row.AttachmentsJSON != "" {
		if err := json.Unmarshal([]byte(*row.AttachmentsJSON), &rec.Attachments); err != nil {
			return ports.IncidentRecord{}, errs.Wrapf(err, "decode attachments of incident %d", row.ID)
		}
	}

	return rec, nil
}

func mapAuditLog(row model.AuditLog) (ports.AuditRecord, error) {
	toStatus, err := incident.ParseStatus(row.ToStatus)
	if err != nil {
		return ports.AuditRecord{}, errs.Wrapf(err, "audit log %d to_status", row.ID)
	}

	rec := ports.AuditRecord{
		ID:         row.ID,
		IncidentID: row.IncidentID,
		ActorID:    row.ActorID,
		ToStatus:   toStatus,
		CreatedAt:  row.CreatedAt,
	}
	if row.FromStatus != nil {
		fromStatus, err := incident.ParseStatus(*row.FromStatus)
		if err != nil {
			return ports.AuditRecord{}, errs.Wrapf(err, "audit log %d from_status", row.ID)
		}
		rec.FromStatus = &fromStatus
	}
	if row.PayloadDiff != nil {
		rec.PayloadDiff = *row.PayloadDiff
	}
	return rec, nil
}

func categoryColumn(category *incident.IncidentCategory) *string {
	if category == nil {
		return nil
	}
	value := category.String()
	return &value
}

func categoryValue(column *string) (*incident.IncidentCategory, error) {
	if column == nil || *column == "" {
		return nil, nil
	}
	category, err := incident.ParseCategory(*column)
	if err != nil {
		return nil, err
	}
	return &category, nil
}
