// Package store is the persistence adapter for users and verification codes.
// Callers describe what they want with the typed queries in query.go and
// never touch gorm directly.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitwise74/recipe-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrOwnerNotFound = errors.New("verification code owner not found")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindUser loads a user without the password hash
func (s *Store) FindUser(ctx context.Context, q UserQuery) (*model.User, error) {
	var u model.User

	err := q.scopeUser(s.db.WithContext(ctx).Omit("password")).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

// FindCredentials is the only read that includes the password hash
func (s *Store) FindCredentials(ctx context.Context, q UserQuery) (*model.User, error) {
	var u model.User

	err := q.scopeUser(s.db.WithContext(ctx)).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}

	return &u, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64

	err := UserByEmail{Email: email}.
		scopeUser(s.db.WithContext(ctx).Model(&model.User{})).
		Count(&n).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to check if email is registered, %w", err)
	}

	return n > 0, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return translate(err)
	}

	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hash)
	if r.Error != nil {
		return fmt.Errorf("failed to update password, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) UpdateRole(ctx context.Context, userID, role string) (*model.User, error) {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("role", role)
	if r.Error != nil {
		return nil, fmt.Errorf("failed to update role, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.FindUser(ctx, UserByID{ID: userID})
}

// UserUpdate lists the fields a bulk update sets. Nil fields are left alone.
type UserUpdate struct {
	Role          *string
	EmailVerified *bool
}

func (u UserUpdate) fields() map[string]any {
	fields := map[string]any{}

	if u.Role != nil {
		fields["role"] = *u.Role
	}

	if u.EmailVerified != nil {
		fields["email_verified"] = *u.EmailVerified
	}

	return fields
}

// UpdateUsers applies u to every user in ids with a single statement and
// returns how many rows were changed
func (s *Store) UpdateUsers(ctx context.Context, ids []string, u UserUpdate) (int64, error) {
	fields := u.fields()
	if len(ids) == 0 || len(fields) == 0 {
		return 0, nil
	}

	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id IN ?", ids).
		Updates(fields)
	if r.Error != nil {
		return 0, fmt.Errorf("failed to update users, %w", r.Error)
	}

	return r.RowsAffected, nil
}

// DeleteUser removes the user together with any verification code it owns
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.OTP{}).Error; err != nil {
			return fmt.Errorf("failed to delete verification codes, %w", err)
		}

		r := tx.Where("id = ?", userID).Delete(&model.User{})
		if r.Error != nil {
			return fmt.Errorf("failed to delete user, %w", r.Error)
		}

		if r.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// ListUsers returns one page of users, newest first, plus the total number
// of users matching the filter
func (s *Store) ListUsers(ctx context.Context, f UserFilter, limit int) ([]model.User, int64, error) {
	var total int64

	if err := f.scope(s.db.WithContext(ctx).Model(&model.User{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users, %w", err)
	}

	page := max(f.Page, 1)
	users := []model.User{}

	err := f.scope(s.db.WithContext(ctx).Omit("password")).
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).
		Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users, %w", err)
	}

	return users, total, nil
}

// UpsertOTP stores o as the only code of its email, replacing any previous one
func (s *Store) UpsertOTP(ctx context.Context, o *model.OTP) error {
	o.Email = NormalizeEmail(o.Email)

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "code", "expires_at", "updated_at"}),
		}).
		Create(o).
		Error
	if err != nil {
		return fmt.Errorf("failed to store verification code, %w", err)
	}

	return nil
}

func (s *Store) FindOTP(ctx context.Context, q OTPQuery) (*model.OTP, error) {
	var o model.OTP

	if err := q.scopeOTP(s.db.WithContext(ctx)).First(&o).Error; err != nil {
		return nil, translate(err)
	}

	return &o, nil
}

// ConsumeOTP deletes the matched code and marks its owner as verified in one
// transaction. Only one caller can ever consume a given row, a concurrent or
// repeated attempt gets ErrNotFound.
func (s *Store) ConsumeOTP(ctx context.Context, q OTPQuery) (*model.User, error) {
	var user model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o model.OTP
		if err := q.scopeOTP(tx).First(&o).Error; err != nil {
			return translate(err)
		}

		var owner int64
		if err := tx.Model(&model.User{}).Where("id = ?", o.UserID).Count(&owner).Error; err != nil {
			return fmt.Errorf("failed to look up code owner, %w", err)
		}

		if owner == 0 {
			return ErrOwnerNotFound
		}

		r := tx.Where("id = ?", o.ID).Delete(&model.OTP{})
		if r.Error != nil {
			return fmt.Errorf("failed to delete verification code, %w", r.Error)
		}

		if r.RowsAffected != 1 {
			return ErrNotFound
		}

		if err := tx.Model(&model.User{}).
			Where("id = ?", o.UserID).
			Update("email_verified", true).
			Error; err != nil {
			return fmt.Errorf("failed to mark user as verified, %w", err)
		}

		if err := tx.Omit("password").Where("id = ?", o.UserID).First(&user).Error; err != nil {
			return translate(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// DeleteExpiredOTPs purges codes that can no longer be matched
func (s *Store) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	r := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.OTP{})
	if r.Error != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes, %w", r.Error)
	}

	return r.RowsAffected, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
