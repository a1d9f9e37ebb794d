package auth

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/internal/store"
)

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn starts a session for a verified account. An unverified account gets
// a fresh code mailed instead and the caller is told to verify.
func (s *Service) SignIn(ctx context.Context, jar session.Jar, in SignInInput) (Result, error) {
	u, err := s.store.FindCredentials(ctx, store.UserByEmail{Email: in.Email})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Unknown emails look exactly like wrong passwords from the outside
			return Result{Error: Message(ErrInvalidCredentials, msgSignInFailed)}, ErrUserNotFound
		}

		return fail(persistence(err), msgSignInFailed)
	}

	ok, err := s.hasher.Verify(u.PasswordHash, in.Password)
	if err != nil {
		return fail(fmt.Errorf("failed to verify password, %w", err), msgSignInFailed)
	}

	if !ok {
		return fail(ErrInvalidCredentials, msgSignInFailed)
	}

	if !u.EmailVerified {
		code, err := s.issueOTP(ctx, u)
		if err != nil {
			return fail(err, msgSignInFailed)
		}

		s.dispatch(ctx, u.Email, code)

		return Result{
			Error:               Message(ErrEmailNotVerified, msgSignInFailed),
			RequireVerification: true,
		}, ErrEmailNotVerified
	}

	if err := s.startSession(jar, u.ID); err != nil {
		return fail(err, msgSignInFailed)
	}

	return Result{Success: true, UserID: u.ID}, nil
}
