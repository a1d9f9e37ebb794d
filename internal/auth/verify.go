package auth

import (
	"context"
	"errors"

	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/internal/store"
)

type VerifyInput struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ResendInput struct {
	Email string `json:"email"`
}

// VerifyEmail consumes a live code, marks its owner verified and signs them in
func (s *Service) VerifyEmail(ctx context.Context, jar session.Jar, in VerifyInput) (Result, error) {
	u, err := s.store.ConsumeOTP(ctx, store.OTPByEmailAndCode{
		Email: in.Email,
		Code:  in.Code,
		Now:   s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(ErrInvalidOrExpiredCode, msgVerifyFailed)
		case errors.Is(err, store.ErrOwnerNotFound):
			return fail(ErrUserNotFound, msgVerifyFailed)
		default:
			return fail(persistence(err), msgVerifyFailed)
		}
	}

	if err := s.startSession(jar, u.ID); err != nil {
		return fail(err, msgVerifyFailed)
	}

	return Result{Success: true, UserID: u.ID}, nil
}

// ResendVerification replaces the live code of an account with a new one, so
// only the most recent code ever works
func (s *Service) ResendVerification(ctx context.Context, in ResendInput) (Result, error) {
	u, err := s.store.FindUser(ctx, store.UserByEmail{Email: in.Email})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(ErrUserNotFound, msgResendFailed)
		}

		return fail(persistence(err), msgResendFailed)
	}

	code, err := s.issueOTP(ctx, u)
	if err != nil {
		return fail(err, msgResendFailed)
	}

	s.dispatch(ctx, u.Email, code)

	return Result{Success: true}, nil
}
