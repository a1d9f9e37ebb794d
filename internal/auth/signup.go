package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers an unverified account and mails it a verification code.
// No session is started, the user has to verify first.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (Result, error) {
	email := store.NormalizeEmail(in.Email)

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return fail(persistence(err), msgSignUpFailed)
	}

	if exists {
		return fail(ErrDuplicateEmail, msgSignUpFailed)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fail(fmt.Errorf("failed to hash password, %w", err), msgSignUpFailed)
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return fail(fmt.Errorf("failed to generate user ID, %w", err), msgSignUpFailed)
	}

	u := &model.User{
		ID:            userID,
		Name:          strings.TrimSpace(in.Name),
		Email:         email,
		PasswordHash:  hash,
		Image:         model.DefaultImage,
		ImageID:       model.DefaultImageID,
		Provider:      model.ProviderCredentials,
		Role:          model.RoleUser,
		EmailVerified: false,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		// Lost a race against another sign up with the same email
		if errors.Is(err, store.ErrDuplicate) {
			return fail(ErrDuplicateEmail, msgSignUpFailed)
		}

		return fail(persistence(err), msgSignUpFailed)
	}

	code, err := s.issueOTP(ctx, u)
	if err != nil {
		return fail(err, msgSignUpFailed)
	}

	s.dispatch(ctx, email, code)

	return Result{Success: true, UserID: userID}, nil
}
