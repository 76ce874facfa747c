package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"

	"insiden/internal/domain/incident"
	"insiden/internal/infrastructure/persistence/sqlite/model"
	"insiden/internal/ports"
)

func setupIncidentRepository(t *testing.T) *IncidentRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "incidents.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Incident{}, &model.AuditLog{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewIncidentRepository(db)
}

func draftIncident(reporterID int64, description string) ports.IncidentRecord {
	return ports.IncidentRecord{
		ReporterID:          reporterID,
		OccurredAt:          time.Now().UTC().Add(-time.Hour),
		FreeTextDescription: description,
		Status:              incident.StatusDraft,
	}
}

func TestCreateAndGetIncident(t *testing.T) {
	repo := setupIncidentRepository(t)
	ctx := context.Background()

	patient := "RM-0042"
	rec := draftIncident(7, "Pasien jatuh di kamar mandi")
	rec.PatientIdentifier = &patient
	rec.Attachments = []string{"foto1.jpg", "foto2.jpg"}

	created, err := repo.CreateIncident(ctx, rec)
	if err != nil {
		t.Fatalf("CreateIncident() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("CreateIncident() did not assign an id")
	}
	if created.Version != 1 {
		t.Fatalf("CreateIncident() version = %d, want 1", created.Version)
	}

	got, err := repo.GetIncident(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetIncident() error = %v", err)
	}
	if got.Status != incident.StatusDraft {
		t.Fatalf("GetIncident() status = %s", got.Status)
	}
	if got.PatientIdentifier == nil || *got.PatientIdentifier != patient {
		t.Fatalf("GetIncident() patient identifier = %v", got.PatientIdentifier)
	}
	if diff := cmp.Diff(rec.Attachments, got.Attachments); diff != "" {
		t.Fatalf("GetIncident() attachments mismatch (-want +got):\n%s", diff)
	}
}

func TestGetIncidentNotFound(t *testing.T) {
	repo := setupIncidentRepository(t)

	_, err := repo.GetIncident(context.Background(), 12345)
	if !errors.Is(err, ports.ErrIncidentNotFound) {
		t.Fatalf("GetIncident() error = %v, want ErrIncidentNotFound", err)
	}
}

func TestUpdateIncidentCAS(t *testing.T) {
	repo := setupIncidentRepository(t)
	ctx := context.Background()

	created, err := repo.CreateIncident(ctx, draftIncident(7, "Salah pemberian obat"))
	if err != nil {
		t.Fatalf("CreateIncident() error = %v", err)
	}

	category := incident.CategoryKNC
	confidence := 0.55
	version := "fallback-rule-0.1"
	created.Status = incident.StatusSubmitted
	created.PredictedCategory = &category
	created.PredictedConfidence = &confidence
	created.ModelVersion = &version

	updated, err := repo.UpdateIncidentCAS(ctx, created, incident.StatusDraft)
	if err != nil {
		t.Fatalf("UpdateIncidentCAS() error = %v", err)
	}
	if updated.Status != incident.StatusSubmitted {
		t.Fatalf("UpdateIncidentCAS() status = %s", updated.Status)
	}
	if updated.Version != created.Version+1 {
		t.Fatalf("UpdateIncidentCAS() version = %d, want %d", updated.Version, created.Version+1)
	}
	if updated.PredictedCategory == nil || *updated.PredictedCategory != incident.CategoryKNC {
		t.Fatalf("UpdateIncidentCAS() predicted category = %v", updated.PredictedCategory)
	}
}

func TestUpdateIncidentCASStaleVersion(t *testing.T) {
	repo := setupIncidentRepository(t)
	ctx := context.Background()

	created, err := repo.CreateIncident(ctx, draftIncident(7, "Pasien hampir jatuh"))
	if err != nil {
		t.Fatalf("CreateIncident() error = %v", err)
	}

	// First writer wins.
	first := created
	first.Status = incident.StatusSubmitted
	if _, err := repo.UpdateIncidentCAS(ctx, first, incident.StatusDraft); err != nil {
		t.Fatalf("UpdateIncidentCAS() first error = %v", err)
	}

	// Second writer still holds the stale read.
	second := created
	second.Status = incident.StatusSubmitted
	_, err = repo.UpdateIncidentCAS(ctx, second, incident.StatusDraft)
	if !errors.Is(err, ports.ErrStaleIncident) {
		t.Fatalf("UpdateIncidentCAS() second error = %v, want ErrStaleIncident", err)
	}
}

func TestUpdateIncidentCASMissingRow(t *testing.T) {
	repo := setupIncidentRepository(t)

	ghost := draftIncident(7, "tidak pernah disimpan")
	ghost.ID = 999
	ghost.Version = 1
	_, err := repo.UpdateIncidentCAS(context.Background(), ghost, incident.StatusDraft)
	if !errors.Is(err, ports.ErrIncidentNotFound) {
		t.Fatalf("UpdateIncidentCAS() error = %v, want ErrIncidentNotFound", err)
	}
}

func TestListIncidentsFilters(t *testing.T) {
	repo := setupIncidentRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.CreateIncident(ctx, draftIncident(1, "laporan perawat satu")); err != nil {
			t.Fatalf("CreateIncident() error = %v", err)
		}
	}
	other, err := repo.CreateIncident(ctx, draftIncident(2, "laporan perawat dua"))
	if err != nil {
		t.Fatalf("CreateIncident() error = %v", err)
	}
	other.Status = incident.StatusSubmitted
	if _, err := repo.UpdateIncidentCAS(ctx, other, incident.StatusDraft); err != nil {
		t.Fatalf("UpdateIncidentCAS() error = %v", err)
	}

	items, total, err := repo.ListIncidents(ctx, ports.IncidentFilter{ReporterID: 1})
	if err != nil {
		t.Fatalf("ListIncidents() error = %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("ListIncidents(reporter=1) total = %d len = %d", total, len(items))
	}

	status := incident.StatusSubmitted
	items, total, err = repo.ListIncidents(ctx, ports.IncidentFilter{Status: &status})
	if err != nil {
		t.Fatalf("ListIncidents() error = %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != other.ID {
		t.Fatalf("ListIncidents(status=SUBMITTED) = %v total = %d", items, total)
	}

	items, total, err = repo.ListIncidents(ctx, ports.IncidentFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListIncidents() error = %v", err)
	}
	if total != 4 || len(items) != 2 {
		t.Fatalf("ListIncidents(limit=2) total = %d len = %d", total, len(items))
	}
}

func TestAuditLogsAreOrderedAndImmutable(t *testing.T) {
	repo := setupIncidentRepository(t)
	ctx := context.Background()

	created, err := repo.CreateIncident(ctx, draftIncident(7, "Pasien jatuh saat transfer"))
	if err != nil {
		t.Fatalf("CreateIncident() error = %v", err)
	}

	if err := repo.AppendAuditLog(ctx, ports.AuditLogCreate{
		IncidentID: created.ID,
		ActorID:    7,
		ToStatus:   incident.StatusDraft,
	}); err != nil {
		t.Fatalf("AppendAuditLog() error = %v", err)
	}
	from := incident.StatusDraft
	if err := repo.AppendAuditLog(ctx, ports.AuditLogCreate{
		IncidentID:  created.ID,
		ActorID:     7,
		FromStatus:  &from,
		ToStatus:    incident.StatusSubmitted,
		PayloadDiff: `{"prediction":{"category":"KPCS"}}`,
	}); err != nil {
		t.Fatalf("AppendAuditLog() error = %v", err)
	}

	logs, err := repo.ListAuditLogs(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("ListAuditLogs() len = %d", len(logs))
	}
	if logs[0].FromStatus != nil || logs[0].ToStatus != incident.StatusDraft {
		t.Fatalf("ListAuditLogs()[0] = %+v", logs[0])
	}
	if logs[1].FromStatus == nil || *logs[1].FromStatus != incident.StatusDraft {
		t.Fatalf("ListAuditLogs()[1] from = %v", logs[1].FromStatus)
	}
	if logs[1].PayloadDiff == "" {
		t.Fatalf("ListAuditLogs()[1] payload diff is empty")
	}
	if logs[0].ID >= logs[1].ID {
		t.Fatalf("ListAuditLogs() not ordered by id: %d >= %d", logs[0].ID, logs[1].ID)
	}
}
