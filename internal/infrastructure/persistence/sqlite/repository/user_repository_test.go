package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"

	"insiden/internal/infrastructure/persistence/sqlite/model"
	"insiden/internal/ports"
)

func setupUserRepository(t *testing.T) *UserRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "users.sqlite")
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
	if err := db.AutoMigrate(&model.User{}, &model.Role{}, &model.UserRole{}, &model.Department{}, &model.Location{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewUserRepository(db)
}

func TestCreateUserAttachesRoles(t *testing.T) {
	repo := setupUserRepository(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, ports.UserCreate{
		Email:          "Perawat@RSUA.local",
		FullName:       "Perawat Demo",
		HashedPassword: "hashed",
		Roles:          []string{"Perawat", "perawat", "pj"},
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if created.Email != "perawat@rsua.local" {
		t.Fatalf("CreateUser() email = %s", created.Email)
	}
	if !created.IsActive {
		t.Fatalf("CreateUser() is_active = false")
	}
	if diff := cmp.Diff([]string{"perawat", "pj"}, created.Roles); diff != "" {
		t.Fatalf("CreateUser() roles mismatch (-want +got):\n%s", diff)
	}

	byEmail, err := repo.GetUserByEmail(ctx, " PERAWAT@rsua.local ")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("GetUserByEmail() id = %d, want %d", byEmail.ID, created.ID)
	}

	byID, err := repo.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if len(byID.Roles) != 2 {
		t.Fatalf("GetUserByID() roles = %v", byID.Roles)
	}
}

func TestGetUserNotFound(t *testing.T) {
	repo := setupUserRepository(t)

	if _, err := repo.GetUserByEmail(context.Background(), "nobody@rsua.local"); !errors.Is(err, ports.ErrUserNotFound) {
		t.Fatalf("GetUserByEmail() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetUserByID(context.Background(), 404); !errors.Is(err, ports.ErrUserNotFound) {
		t.Fatalf("GetUserByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestEnsureReferenceRowsAreIdempotent(t *testing.T) {
	repo := setupUserRepository(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.EnsureRole(ctx, "mutu", "Tim mutu"); err != nil {
			t.Fatalf("EnsureRole() error = %v", err)
		}
		if err := repo.EnsureDepartment(ctx, "IGD", ""); err != nil {
			t.Fatalf("EnsureDepartment() error = %v", err)
		}
		if err := repo.EnsureLocation(ctx, "Gedung A Lantai 1", ""); err != nil {
			t.Fatalf("EnsureLocation() error = %v", err)
		}
	}

	departments, err := repo.ListDepartments(ctx)
	if err != nil {
		t.Fatalf("ListDepartments() error = %v", err)
	}
	if len(departments) != 1 || departments[0].Name != "IGD" {
		t.Fatalf("ListDepartments() = %v", departments)
	}

	locations, err := repo.ListLocations(ctx)
	if err != nil {
		t.Fatalf("ListLocations() error = %v", err)
	}
	if len(locations) != 1 {
		t.Fatalf("ListLocations() = %v", locations)
	}
}
