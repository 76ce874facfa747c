package model

import "time"

type User struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Email          string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	FullName       string    `gorm:"column:full_name;type:text;not null;index"`
	HashedPassword string    `gorm:"column:hashed_password;type:text;not null"`
	IsActive       bool      `gorm:"column:is_active;not null;default:1"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string `gorm:"column:description;type:text"`
}

func (Role) TableName() string {
	return "roles"
}

type UserRole struct {
	UserID int64 `gorm:"column:user_id;primaryKey"`
	RoleID int64 `gorm:"column:role_id;primaryKey"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
