package incident

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/infrastructure/cache"
	"insiden/internal/infrastructure/classifier"
	"insiden/internal/infrastructure/persistence/sqlite/model"
	"insiden/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "insiden/internal/infrastructure/persistence/sqlite/uow"
	"insiden/internal/ports"
)

var (
	perawat = ports.Actor{ID: 1, Email: "perawat@rsua.local", Roles: []string{domainincident.RolePerawat}}
	pj      = ports.Actor{ID: 2, Email: "pj@rsua.local", Roles: []string{domainincident.RolePJ}}
	mutu    = ports.Actor{ID: 3, Email: "mutu@rsua.local", Roles: []string{domainincident.RoleMutu}}
	admin   = ports.Actor{ID: 4, Email: "admin@rsua.local", Roles: []string{domainincident.RoleAdmin}}
)

type fixture struct {
	service *Service
	repo    ports.IncidentRepository
}

func setupService(t *testing.T) fixture {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "workflow.sqlite")
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
	if err := db.AutoMigrate(&model.Incident{}, &model.AuditLog{}, &model.StatusKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	repo := repository.NewIncidentRepository(db)
	service := NewService(
		repo,
		sqliteuow.NewUnitOfWork(db),
		classifier.New(context.Background(), "", "fallback-rule-0.1"),
		cache.NewSQLiteCache(db),
	)
	return fixture{service: service, repo: repo}
}

func createDraft(t *testing.T, f fixture, description string) ports.IncidentRecord {
	t.Helper()

	created, err := f.service.CreateDraft(context.Background(), CreateDraftInput{
		Actor:               perawat,
		FreeTextDescription: description,
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	return created
}

func TestCreateDraft(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Pasien jatuh dari tempat tidur malam hari")
	if created.Status != domainincident.StatusDraft {
		t.Fatalf("CreateDraft() status = %s", created.Status)
	}
	if created.ReporterID != perawat.ID {
		t.Fatalf("CreateDraft() reporter = %d", created.ReporterID)
	}

	logs, err := f.repo.ListAuditLogs(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("audit rows after create = %d, want 1", len(logs))
	}
	if logs[0].FromStatus != nil || logs[0].ToStatus != domainincident.StatusDraft {
		t.Fatalf("creation audit row = %+v", logs[0])
	}

	if hint, ok := f.service.IncidentStatusHint(ctx, created.ID); !ok || hint != "DRAFT" {
		t.Fatalf("IncidentStatusHint() = %q, %v", hint, ok)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.service.CreateDraft(ctx, CreateDraftInput{
		Actor:               perawat,
		FreeTextDescription: "  pendek  ",
	})
	if !errors.Is(err, ErrDescriptionTooShort) {
		t.Fatalf("CreateDraft() error = %v, want ErrDescriptionTooShort", err)
	}

	_, err = f.service.CreateDraft(ctx, CreateDraftInput{
		Actor:               pj,
		FreeTextDescription: "deskripsi cukup panjang untuk lolos",
	})
	if !errors.Is(err, domainincident.ErrInsufficientRole) {
		t.Fatalf("CreateDraft() error = %v, want ErrInsufficientRole", err)
	}
}

func TestUpdateDraft(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Salah pemberian dosis obat pasien")

	harm := "tidak ada cedera"
	updated, err := f.service.UpdateDraft(ctx, UpdateDraftInput{
		IncidentID:    created.ID,
		Actor:         perawat,
		HarmIndicator: &harm,
	})
	if err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}
	if updated.HarmIndicator == nil || *updated.HarmIndicator != harm {
		t.Fatalf("UpdateDraft() harm indicator = %v", updated.HarmIndicator)
	}
	if updated.FreeTextDescription != created.FreeTextDescription {
		t.Fatalf("UpdateDraft() description changed: %q", updated.FreeTextDescription)
	}

	// Draft edits are field changes, not transitions.
	logs, err := f.repo.ListAuditLogs(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("audit rows after edit = %d, want 1", len(logs))
	}

	other := ports.Actor{ID: 99, Roles: []string{domainincident.RolePerawat}}
	if _, err := f.service.UpdateDraft(ctx, UpdateDraftInput{IncidentID: created.ID, Actor: other}); !errors.Is(err, domainincident.ErrNotReporter) {
		t.Fatalf("UpdateDraft() by stranger error = %v, want ErrNotReporter", err)
	}
}

func TestSubmitRunsClassifier(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Pasien jatuh di kamar mandi bangsal B")

	submitted, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: perawat})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if submitted.Status != domainincident.StatusSubmitted {
		t.Fatalf("Submit() status = %s", submitted.Status)
	}
	if submitted.PredictedCategory == nil || *submitted.PredictedCategory != domainincident.CategoryKPCS {
		t.Fatalf("Submit() predicted category = %v", submitted.PredictedCategory)
	}
	if submitted.PredictedConfidence == nil || *submitted.PredictedConfidence != 0.6 {
		t.Fatalf("Submit() predicted confidence = %v", submitted.PredictedConfidence)
	}
	if submitted.ModelVersion == nil || *submitted.ModelVersion != "fallback-rule-0.1" {
		t.Fatalf("Submit() model version = %v", submitted.ModelVersion)
	}

	logs, err := f.repo.ListAuditLogs(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("audit rows after submit = %d, want 2", len(logs))
	}
	var diff map[string]map[string]any
	if err := json.Unmarshal([]byte(logs[1].PayloadDiff), &diff); err != nil {
		t.Fatalf("decode payload diff: %v", err)
	}
	if diff["prediction"]["category"] != "KPCS" {
		t.Fatalf("payload diff prediction = %v", diff["prediction"])
	}
}

func TestSubmitRequiresReporter(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Hampir salah identifikasi pasien")

	other := ports.Actor{ID: 42, Roles: []string{domainincident.RolePerawat}}
	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: other}); !errors.Is(err, domainincident.ErrNotReporter) {
		t.Fatalf("Submit() error = %v, want ErrNotReporter", err)
	}
}

func TestFullLifecycleToClosed(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Reaksi transfusi berat pada pasien kamar 12")
	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: perawat}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	notes := "eskalasi ke tim mutu"
	reviewed, err := f.service.PJReview(ctx, ReviewInput{
		IncidentID: created.ID,
		Actor:      pj,
		Category:   "KTD",
		Notes:      &notes,
	})
	if err != nil {
		t.Fatalf("PJReview() error = %v", err)
	}
	if reviewed.Status != domainincident.StatusPJReviewed {
		t.Fatalf("PJReview() status = %s", reviewed.Status)
	}
	if reviewed.FinalCategory == nil || *reviewed.FinalCategory != domainincident.CategoryKTD {
		t.Fatalf("PJReview() final category = %v", reviewed.FinalCategory)
	}

	// Mutu's decision overwrites PJ's final category.
	confirmed, err := f.service.MutuReview(ctx, ReviewInput{
		IncidentID: created.ID,
		Actor:      mutu,
		Category:   "Sentinel",
	})
	if err != nil {
		t.Fatalf("MutuReview() error = %v", err)
	}
	if confirmed.Status != domainincident.StatusMutuReviewed {
		t.Fatalf("MutuReview() status = %s", confirmed.Status)
	}
	if confirmed.FinalCategory == nil || *confirmed.FinalCategory != domainincident.CategorySentinel {
		t.Fatalf("MutuReview() final category = %v", confirmed.FinalCategory)
	}
	if confirmed.PJDecision == nil || *confirmed.PJDecision != domainincident.CategoryKTD {
		t.Fatalf("MutuReview() erased pj decision: %v", confirmed.PJDecision)
	}

	closed, err := f.service.Close(ctx, CloseInput{IncidentID: created.ID, Actor: mutu})
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if closed.Status != domainincident.StatusClosed {
		t.Fatalf("Close() status = %s", closed.Status)
	}

	logs, err := f.repo.ListAuditLogs(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	// One row per lifecycle event: create, submit, pj, mutu, close.
	if len(logs) != 5 {
		t.Fatalf("audit rows after close = %d, want 5", len(logs))
	}
	if logs[4].FromStatus == nil || *logs[4].FromStatus != domainincident.StatusMutuReviewed {
		t.Fatalf("close audit from = %v", logs[4].FromStatus)
	}
	if logs[4].ToStatus != domainincident.StatusClosed {
		t.Fatalf("close audit to = %s", logs[4].ToStatus)
	}

	if hint, ok := f.service.IncidentStatusHint(ctx, created.ID); !ok || hint != "CLOSED" {
		t.Fatalf("IncidentStatusHint() = %q, %v", hint, ok)
	}
}

func TestMutuReviewBeforePJReviewFails(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Obat kadaluarsa hampir diberikan")
	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: perawat}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	_, err := f.service.MutuReview(ctx, ReviewInput{IncidentID: created.ID, Actor: mutu, Category: "KNC"})
	if !errors.Is(err, domainincident.ErrInvalidStateTransition) {
		t.Fatalf("MutuReview() error = %v, want ErrInvalidStateTransition", err)
	}
	var detail *domainincident.InvalidTransitionError
	if !errors.As(err, &detail) {
		t.Fatalf("MutuReview() error lacks transition detail")
	}
	if detail.Current != domainincident.StatusSubmitted || detail.Attempted != domainincident.StatusMutuReviewed {
		t.Fatalf("transition detail = %s -> %s", detail.Current, detail.Attempted)
	}

	// The failed attempt must leave no trace.
	got, err := f.repo.GetIncident(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetIncident() error = %v", err)
	}
	if got.Status != domainincident.StatusSubmitted {
		t.Fatalf("status after failed review = %s", got.Status)
	}
	logs, err := f.repo.ListAuditLogs(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListAuditLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("audit rows after failed review = %d, want 2", len(logs))
	}
}

func TestReviewRequiresRole(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Pasien tergelincir di koridor utama")
	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: perawat}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	_, err := f.service.PJReview(ctx, ReviewInput{IncidentID: created.ID, Actor: perawat, Category: "KTC"})
	if !errors.Is(err, domainincident.ErrInsufficientRole) {
		t.Fatalf("PJReview() by perawat error = %v, want ErrInsufficientRole", err)
	}
}

func TestCloseRequiresFinalCategory(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Insiden tanpa kategori final untuk uji tutup")
	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: perawat}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := f.service.PJReview(ctx, ReviewInput{IncidentID: created.ID, Actor: pj, Category: "KTC"}); err != nil {
		t.Fatalf("PJReview() error = %v", err)
	}
	if _, err := f.service.MutuReview(ctx, ReviewInput{IncidentID: created.ID, Actor: mutu, Category: "KTC"}); err != nil {
		t.Fatalf("MutuReview() error = %v", err)
	}

	// Simulate a legacy row that reached MUTU_REVIEWED without a final
	// category.
	rec, err := f.repo.GetIncident(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetIncident() error = %v", err)
	}
	rec.FinalCategory = nil
	if _, err := f.repo.UpdateIncidentCAS(ctx, rec, domainincident.StatusMutuReviewed); err != nil {
		t.Fatalf("UpdateIncidentCAS() error = %v", err)
	}

	_, err = f.service.Close(ctx, CloseInput{IncidentID: created.ID, Actor: mutu})
	if !errors.Is(err, domainincident.ErrFinalCategoryMissing) {
		t.Fatalf("Close() error = %v, want ErrFinalCategoryMissing", err)
	}
}

func TestAdminMayClose(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Dokumentasi insiden untuk penutupan admin")
	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: perawat}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := f.service.PJReview(ctx, ReviewInput{IncidentID: created.ID, Actor: pj, Category: "KNC"}); err != nil {
		t.Fatalf("PJReview() error = %v", err)
	}
	if _, err := f.service.MutuReview(ctx, ReviewInput{IncidentID: created.ID, Actor: mutu, Category: "KNC"}); err != nil {
		t.Fatalf("MutuReview() error = %v", err)
	}

	closed, err := f.service.Close(ctx, CloseInput{IncidentID: created.ID, Actor: admin})
	if err != nil {
		t.Fatalf("Close() by admin error = %v", err)
	}
	if closed.Status != domainincident.StatusClosed {
		t.Fatalf("Close() status = %s", closed.Status)
	}
}

func TestClosedIncidentIsImmutable(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Lifecycle lengkap untuk uji imutabilitas")
	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: created.ID, Actor: perawat}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := f.service.PJReview(ctx, ReviewInput{IncidentID: created.ID, Actor: pj, Category: "KTC"}); err != nil {
		t.Fatalf("PJReview() error = %v", err)
	}
	if _, err := f.service.MutuReview(ctx, ReviewInput{IncidentID: created.ID, Actor: mutu, Category: "KTC"}); err != nil {
		t.Fatalf("MutuReview() error = %v", err)
	}
	if _, err := f.service.Close(ctx, CloseInput{IncidentID: created.ID, Actor: mutu}); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := f.service.Close(ctx, CloseInput{IncidentID: created.ID, Actor: mutu}); !errors.Is(err, domainincident.ErrInvalidStateTransition) {
		t.Fatalf("second Close() error = %v, want ErrInvalidStateTransition", err)
	}
	if _, err := f.service.UpdateDraft(ctx, UpdateDraftInput{IncidentID: created.ID, Actor: perawat}); !errors.Is(err, ErrNotDraft) {
		t.Fatalf("UpdateDraft() after close error = %v, want ErrNotDraft", err)
	}
}

func TestGetIncidentVisibility(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created := createDraft(t, f, "Laporan pribadi perawat pertama shift malam")

	if _, err := f.service.GetIncident(ctx, created.ID, perawat); err != nil {
		t.Fatalf("GetIncident() by reporter error = %v", err)
	}
	if _, err := f.service.GetIncident(ctx, created.ID, pj); err != nil {
		t.Fatalf("GetIncident() by reviewer error = %v", err)
	}

	stranger := ports.Actor{ID: 77, Roles: []string{domainincident.RolePerawat}}
	if _, err := f.service.GetIncident(ctx, created.ID, stranger); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("GetIncident() by stranger error = %v, want ErrAccessDenied", err)
	}

	if _, err := f.service.GetIncident(ctx, 424242, perawat); !errors.Is(err, ports.ErrIncidentNotFound) {
		t.Fatalf("GetIncident() missing error = %v, want ErrIncidentNotFound", err)
	}
}

func TestListIncidentsScoping(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	first := createDraft(t, f, "Laporan pertama milik perawat utama")
	createDraft(t, f, "Laporan kedua milik perawat utama")

	otherReporter := ports.Actor{ID: 8, Roles: []string{domainincident.RolePerawat}}
	if _, err := f.service.CreateDraft(ctx, CreateDraftInput{
		Actor:               otherReporter,
		FreeTextDescription: "Laporan milik perawat lainnya",
	}); err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	mine, err := f.service.ListIncidents(ctx, ListInput{Actor: perawat})
	if err != nil {
		t.Fatalf("ListIncidents() error = %v", err)
	}
	if mine.Total != 2 {
		t.Fatalf("ListIncidents() reporter total = %d, want 2", mine.Total)
	}

	all, err := f.service.ListIncidents(ctx, ListInput{Actor: mutu})
	if err != nil {
		t.Fatalf("ListIncidents() error = %v", err)
	}
	if all.Total != 3 {
		t.Fatalf("ListIncidents() reviewer total = %d, want 3", all.Total)
	}

	if _, err := f.service.Submit(ctx, SubmitInput{IncidentID: first.ID, Actor: perawat}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	status := "submitted"
	filtered, err := f.service.ListIncidents(ctx, ListInput{Actor: mutu, Status: &status})
	if err != nil {
		t.Fatalf("ListIncidents() error = %v", err)
	}
	if filtered.Total != 1 || len(filtered.Items) != 1 || filtered.Items[0].ID != first.ID {
		t.Fatalf("ListIncidents(status) = %+v", filtered)
	}

	badStatus := "ARCHIVED"
	if _, err := f.service.ListIncidents(ctx, ListInput{Actor: mutu, Status: &badStatus}); !errors.Is(err, domainincident.ErrUnknownStatus) {
		t.Fatalf("ListIncidents(bad status) error = %v, want ErrUnknownStatus", err)
	}

	paged, err := f.service.ListIncidents(ctx, ListInput{Actor: mutu, Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("ListIncidents() error = %v", err)
	}
	if paged.Page != 2 || paged.PerPage != 2 || len(paged.Items) != 1 {
		t.Fatalf("ListIncidents(page=2) = page %d per %d len %d", paged.Page, paged.PerPage, len(paged.Items))
	}
}

func TestSubmitDeterministicAcrossRetries(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	description := "Pasien jatuh saat dipindahkan ke brankar"
	first := createDraft(t, f, description)
	second := createDraft(t, f, description)

	submittedFirst, err := f.service.Submit(ctx, SubmitInput{IncidentID: first.ID, Actor: perawat})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	submittedSecond, err := f.service.Submit(ctx, SubmitInput{IncidentID: second.ID, Actor: perawat})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if *submittedFirst.PredictedCategory != *submittedSecond.PredictedCategory ||
		*submittedFirst.PredictedConfidence != *submittedSecond.PredictedConfidence ||
		*submittedFirst.ModelVersion != *submittedSecond.ModelVersion {
		t.Fatalf("identical descriptions produced different predictions: %+v vs %+v",
			submittedFirst, submittedSecond)
	}
}
