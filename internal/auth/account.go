package auth

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/internal/store"
)

type ChangePasswordInput struct {
	Current string `json:"currentPassword"`
	New     string `json:"newPassword"`
}

// Profile returns the full user record of userID, password excluded
func (s *Service) Profile(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.store.FindUser(ctx, store.UserByID{ID: userID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, persistence(err)
	}

	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) (Result, error) {
	u, err := s.store.FindCredentials(ctx, store.UserByID{ID: userID})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrUserNotFound, msgPasswordFailed)
		}

		return fail(persistence(err), msgPasswordFailed)
	}

	ok, err := s.hasher.Verify(u.PasswordHash, in.Current)
	if err != nil {
		return fail(fmt.Errorf("failed to verify password, %w", err), msgPasswordFailed)
	}

	if !ok {
		return fail(ErrIncorrectPassword, msgPasswordFailed)
	}

	hash, err := s.hasher.Hash(in.New)
	if err != nil {
		return fail(fmt.Errorf("failed to hash password, %w", err), msgPasswordFailed)
	}

	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrUserNotFound, msgPasswordFailed)
		}

		return fail(persistence(err), msgPasswordFailed)
	}

	return Result{Success: true}, nil
}

// DeleteAccount removes the signed in user and ends their session
func (s *Service) DeleteAccount(ctx context.Context, jar session.Jar, userID string) (Result, error) {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrUserNotFound, msgDeleteFailed)
		}

		return fail(persistence(err), msgDeleteFailed)
	}

	jar.Clear()

	return Result{Success: true}, nil
}
