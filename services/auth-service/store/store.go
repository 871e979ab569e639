// Package store persists identity provider accounts in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/auth-service/models"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Migrate() error {
	if err := s.db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Create inserts u. A taken email or NIK is ErrConflict.
func (s *Users) Create(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("user %s: %w", u.Email, sentinel.ErrConflict)
	default:
		return fmt.Errorf("failed to save user: %w", err)
	}
}

func (s *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *Users) ByID(ctx context.Context, id string) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Users) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	switch {
	case err == nil:
		return &u, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("user: %w", sentinel.ErrNotFound)
	default:
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
}

// Ping reports whether the database answers.
func (s *Users) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
