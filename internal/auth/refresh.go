package auth

import (
	"context"
	"errors"

	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/internal/store"
)

// Refresh trades a refresh token for a brand new token pair. A missing,
// invalid or expired token and a deleted account all come back as
// ErrTokenInvalid, which callers must not explain any further.
func (s *Service) Refresh(ctx context.Context, jar session.Jar, refreshToken string) (*session.Session, error) {
	v := s.tokens.Verify(refreshToken)
	if !v.Valid {
		return nil, ErrTokenInvalid
	}

	u, err := s.store.FindUser(ctx, store.UserByID{ID: v.Subject})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenInvalid
		}

		return nil, persistence(err)
	}

	if err := s.startSession(jar, u.ID); err != nil {
		return nil, err
	}

	return session.New(u, s.now().Add(s.cfg.AccessTTL)), nil
}

// SignOut expires both session cookies. Signing out twice is the same as once.
func (s *Service) SignOut(jar session.Jar) {
	jar.Clear()
}
