package auth

import (
	"context"
	"errors"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
)

const usersPageSize = 10

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalUsers  int64 `json:"totalUsers"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

type UserPage struct {
	Users      []model.User `json:"users"`
	Pagination Pagination   `json:"pagination"`
}

func (s *Service) ListUsers(ctx context.Context, f store.UserFilter) (*UserPage, error) {
	f.Page = max(f.Page, 1)

	users, total, err := s.store.ListUsers(ctx, f, usersPageSize)
	if err != nil {
		return nil, persistence(err)
	}

	pages := int((total + usersPageSize - 1) / usersPageSize)

	return &UserPage{
		Users: users,
		Pagination: Pagination{
			CurrentPage: f.Page,
			TotalPages:  pages,
			TotalUsers:  total,
			HasNextPage: f.Page < pages,
			HasPrevPage: f.Page > 1,
			Limit:       usersPageSize,
		},
	}, nil
}

func (s *Service) ChangeRole(ctx context.Context, userID, role string) (Result, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return fail(ErrInvalidRole, msgRoleFailed)
	}

	if _, err := s.store.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrUserNotFound, msgRoleFailed)
		}

		return fail(persistence(err), msgRoleFailed)
	}

	return Result{Success: true, UserID: userID}, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string) (Result, error) {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrUserNotFound, msgUserDelFailed)
		}

		return fail(persistence(err), msgUserDelFailed)
	}

	return Result{Success: true, UserID: userID}, nil
}

type BulkUpdateInput struct {
	UserIDs       []string `json:"userIds"`
	Role          *string  `json:"role"`
	EmailVerified *bool    `json:"emailVerified"`
}

type BulkUpdateResult struct {
	Result
	ModifiedCount int64 `json:"modifiedCount"`
}

// BulkUpdateUsers sets the role and/or verification flag of every listed user
func (s *Service) BulkUpdateUsers(ctx context.Context, in BulkUpdateInput) (BulkUpdateResult, error) {
	if len(in.UserIDs) == 0 {
		res, err := fail(ErrNoUsersSelected, msgBulkFailed)
		return BulkUpdateResult{Result: res}, err
	}

	if in.Role == nil && in.EmailVerified == nil {
		res, err := fail(ErrEmptyUpdate, msgBulkFailed)
		return BulkUpdateResult{Result: res}, err
	}

	if in.Role != nil && *in.Role != model.RoleUser && *in.Role != model.RoleAdmin {
		res, err := fail(ErrInvalidRole, msgBulkFailed)
		return BulkUpdateResult{Result: res}, err
	}

	n, err := s.store.UpdateUsers(ctx, in.UserIDs, store.UserUpdate{
		Role:          in.Role,
		EmailVerified: in.EmailVerified,
	})
	if err != nil {
		res, err := fail(persistence(err), msgBulkFailed)
		return BulkUpdateResult{Result: res}, err
	}

	return BulkUpdateResult{Result: Result{Success: true}, ModifiedCount: n}, nil
}
