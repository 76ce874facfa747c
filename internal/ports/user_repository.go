package ports

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type UserRecord struct {
	ID             int64
	Email          string
	FullName       string
	HashedPassword string
	IsActive       bool
	Roles          []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type UserCreate struct {
	Email          string
	FullName       string
	HashedPassword string
	Roles          []string
}

type ReferenceItem struct {
	ID          int64
	Name        string
	Description string
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	// CreateUser inserts a user and attaches the named roles, creating any
	// role rows that do not exist yet.
	CreateUser(ctx context.Context, input UserCreate) (UserRecord, error)

	EnsureRole(ctx context.Context, name string, description string) error
	EnsureDepartment(ctx context.Context, name string, description string) error
	EnsureLocation(ctx context.Context, name string, description string) error
	ListDepartments(ctx context.Context) ([]ReferenceItem, error)
	ListLocations(ctx context.Context) ([]ReferenceItem, error)
}
