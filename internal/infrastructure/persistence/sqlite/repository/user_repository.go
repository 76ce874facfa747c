package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/infrastructure/persistence/sqlite/model"
	"insiden/internal/ports"
)

type UserRepository struct {
	db *gorm.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (ports.UserRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.UserRecord{}, err
	}

	var row model.User
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserRecord{}, ports.ErrUserNotFound
		}
		return ports.UserRecord{}, errs.Wrap(err, "query user by id")
	}
	return r.withRoles(db, row)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (ports.UserRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.UserRecord{}, err
	}

	var row model.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserRecord{}, ports.ErrUserNotFound
		}
		return ports.UserRecord{}, errs.Wrap(err, "query user by email")
	}
	return r.withRoles(db, row)
}

func (r *UserRepository) CreateUser(ctx context.Context, input ports.UserCreate) (ports.UserRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.UserRecord{}, err
	}

	now := time.Now().UTC()
	row := model.User{
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		FullName:       strings.TrimSpace(input.FullName),
		HashedPassword: input.HashedPassword,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if row.Email == "" {
		return ports.UserRecord{}, errors.New("email is required")
	}

	if err := db.Create(&row).Error; err != nil {
		return ports.UserRecord{}, errs.Wrap(err, "insert user")
	}

	for _, name := range incident.NormalizeRoles(input.Roles) {
		role, err := r.ensureRoleRow(db, name, "")
		if err != nil {
			return ports.UserRecord{}, err
		}
		link := model.UserRole{UserID: row.ID, RoleID: role.ID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return ports.UserRecord{}, errs.Wrap(err, "link user role")
		}
	}

	return r.withRoles(db, row)
}

func (r *UserRepository) EnsureRole(ctx context.Context, name string, description string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = r.ensureRoleRow(db, name, description)
	return err
}

func (r *UserRepository) EnsureDepartment(ctx context.Context, name string, description string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Department{Name: strings.TrimSpace(name)}
	if description != "" {
		row.Description = &description
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert department")
	}
	return nil
}

func (r *UserRepository) EnsureLocation(ctx context.Context, name string, description string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Location{Name: strings.TrimSpace(name)}
	if description != "" {
		row.Description = &description
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert location")
	}
	return nil
}

func (r *UserRepository) ListDepartments(ctx context.Context) ([]ports.ReferenceItem, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Department
	if err := db.Order("name asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query departments")
	}

	items := make([]ports.ReferenceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ReferenceItem{
			ID:          row.ID,
			Name:        row.Name,
			Description: derefString(row.Description),
		})
	}
	return items, nil
}

func (r *UserRepository) ListLocations(ctx context.Context) ([]ports.ReferenceItem, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Location
	if err := db.Order("name asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query locations")
	}

	items := make([]ports.ReferenceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ReferenceItem{
			ID:          row.ID,
			Name:        row.Name,
			Description: derefString(row.Description),
		})
	}
	return items, nil
}

func (r *UserRepository) ensureRoleRow(db *gorm.DB, name string, description string) (model.Role, error) {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	if cleaned == "" {
		return model.Role{}, errors.New("role name is required")
	}

	row := model.Role{Name: cleaned}
	if description != "" {
		row.Description = &description
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return model.Role{}, errs.Wrap(err, "upsert role")
	}

	// Re-read: OnConflict DoNothing leaves ID zero when the row existed.
	if err := db.Where("name = ?", cleaned).Take(&row).Error; err != nil {
		return model.Role{}, errs.Wrap(err, "query role by name")
	}
	return row, nil
}

func (r *UserRepository) withRoles(db *gorm.DB, row model.User) (ports.UserRecord, error) {
	var names []string
	if err := db.Model(&model.Role{}).
		Select("roles.name").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", row.ID).
		Order("roles.name asc").
		Scan(&names).Error; err != nil {
		return ports.UserRecord{}, errs.Wrap(err, "query user roles")
	}

	return ports.UserRecord{
		ID:             row.ID,
		Email:          row.Email,
		FullName:       row.FullName,
		HashedPassword: row.HashedPassword,
		IsActive:       row.IsActive,
		Roles:          names,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
