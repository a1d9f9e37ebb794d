// Package auth implements the account flows: sign up, sign in, email
// verification, refresh and sign out, plus account and user management.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitwise74/recipe-api/internal/mail"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/security"

	"go.uber.org/zap"
)

const dispatchTimeout = time.Minute

// Result is what every flow reports back. On failure Error holds a message
// that is safe to show to the user.
type Result struct {
	Success             bool   `json:"success"`
	Error               string `json:"error,omitempty"`
	RequireVerification bool   `json:"requireVerification,omitempty"`
	UserID              string `json:"userId,omitempty"`
}

type Store interface {
	FindUser(ctx context.Context, q store.UserQuery) (*model.User, error)
	FindCredentials(ctx context.Context, q store.UserQuery) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	UpdateRole(ctx context.Context, userID, role string) (*model.User, error)
	UpdateUsers(ctx context.Context, ids []string, u store.UserUpdate) (int64, error)
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, f store.UserFilter, limit int) ([]model.User, int64, error)
	UpsertOTP(ctx context.Context, o *model.OTP) error
	ConsumeOTP(ctx context.Context, q store.OTPQuery) (*model.User, error)
}

type Hasher interface {
	Hash(p string) (string, error)
	Verify(digest, p string) (bool, error)
}

type TokenIssuer interface {
	Sign(subject string, ttl time.Duration) (string, error)
	Verify(token string) security.Verification
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	OTPTTL     time.Duration
}

type Service struct {
	store  Store
	hasher Hasher
	tokens TokenIssuer
	mailer mail.Dispatcher
	cfg    Config

	now     func() time.Time
	newCode func() (string, error)

	// In flight verification mail
	wg sync.WaitGroup
}

func New(st Store, h Hasher, t TokenIssuer, m mail.Dispatcher, cfg Config) *Service {
	return &Service{
		store:   st,
		hasher:  h,
		tokens:  t,
		mailer:  m,
		cfg:     cfg,
		now:     time.Now,
		newCode: security.GenerateOTP,
	}
}

// WithClock replaces the clock used for code expiry and session lifetimes
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Wait blocks until every background mail dispatch has returned
func (s *Service) Wait() {
	s.wg.Wait()
}

// issueOTP replaces whatever code u had with a fresh one
func (s *Service) issueOTP(ctx context.Context, u *model.User) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", err
	}

	err = s.store.UpsertOTP(ctx, &model.OTP{
		UserID:    u.ID,
		Email:     u.Email,
		Code:      code,
		ExpiresAt: s.now().Add(s.cfg.OTPTTL),
	})
	if err != nil {
		return "", persistence(err)
	}

	return code, nil
}

// dispatch sends the code without holding up the request. Delivery failures
// are logged, the account and code stay as they are.
func (s *Service) dispatch(ctx context.Context, email, code string) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()

		if err := s.mailer.Dispatch(ctx, email, code); err != nil {
			zap.L().Error("Failed to dispatch verification email",
				zap.String("email", email),
				zap.Error(fmt.Errorf("%w, %w", ErrEmailDispatch, err)),
			)
		}
	}()
}

// startSession mints a fresh token pair for userID and writes both cookies
func (s *Service) startSession(jar session.Jar, userID string) error {
	access, err := s.tokens.Sign(userID, s.cfg.AccessTTL)
	if err != nil {
		return fmt.Errorf("failed to generate access token, %w", err)
	}

	refresh, err := s.tokens.Sign(userID, s.cfg.RefreshTTL)
	if err != nil {
		return fmt.Errorf("failed to generate refresh token, %w", err)
	}

	jar.SetAuthCookies(access, refresh)

	return nil
}
