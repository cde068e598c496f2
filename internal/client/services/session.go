package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/remote"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/logging"
)

// Identity is the engine surface the session service works against.
type Identity interface {
	Session() *models.AuthSession
	SignedIn(ctx context.Context, s models.AuthSession) error
	SignedOut(ctx context.Context) error
	ContinueAsGuest(ctx context.Context) error
	IsGuest() bool
	SyncNow(ctx context.Context) error
}

// SessionService defines sign-in, sign-out and guest mode.
//
// A successful sign-in is persisted and followed by one immediate sync.
// Failure of that sync is kept in engine state and logged; the sign-in
// itself still succeeds.
type SessionService interface {
	SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignInWithApple(ctx context.Context, identityToken string) (*models.AuthSession, error)
	SignInWithGoogle(ctx context.Context, identityToken string) (*models.AuthSession, error)
	SignOut(ctx context.Context) error
	ContinueAsGuest(ctx context.Context) error
	Current() *models.AuthSession
	IsGuest() bool
}

type sessionService struct {
	remote   remote.Client
	identity Identity
	log      logging.Logger
}

func NewSessionService(rc remote.Client, identity Identity, log logging.Logger) SessionService {
	if log == nil {
		log = logging.Nop()
	}
	return &sessionService{remote: rc, identity: identity, log: log.With("component", "session")}
}

func (s *sessionService) SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return s.signIn(ctx, "email", func() (*models.AuthSession, error) {
		return s.remote.SignInWithEmail(ctx, email, password)
	})
}

func (s *sessionService) SignInWithApple(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	if strings.TrimSpace(identityToken) == "" {
		return nil, fmt.Errorf("%w: identity token is required", common.ErrValidation)
	}
	return s.signIn(ctx, "apple", func() (*models.AuthSession, error) {
		return s.remote.SignInWithApple(ctx, identityToken)
	})
}

func (s *sessionService) SignInWithGoogle(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	if strings.TrimSpace(identityToken) == "" {
		return nil, fmt.Errorf("%w: identity token is required", common.ErrValidation)
	}
	return s.signIn(ctx, "google", func() (*models.AuthSession, error) {
		return s.remote.SignInWithGoogle(ctx, identityToken)
	})
}

func (s *sessionService) signIn(ctx context.Context, method string, auth func() (*models.AuthSession, error)) (*models.AuthSession, error) {
	if s.remote == nil {
		return nil, remote.ErrNotConfigured
	}

	sess, err := auth()
	if err != nil {
		return nil, fmt.Errorf("sign in with %s: %w", method, err)
	}
	if err := s.identity.SignedIn(ctx, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.log.Info(ctx, "signed in", "method", method, "user_id", sess.User.ID, "provider", sess.Provider)

	if err := s.identity.SyncNow(ctx); err != nil && !errors.Is(err, common.ErrNoSession) {
		s.log.Warn(ctx, "initial sync after sign in failed", "error", err)
	}
	return sess, nil
}

// SignOut forgets the session. Local entries and pending changes stay.
func (s *sessionService) SignOut(ctx context.Context) error {
	if err := s.identity.SignedOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.log.Info(ctx, "signed out")
	return nil
}

func (s *sessionService) ContinueAsGuest(ctx context.Context) error {
	if s.identity.Session() != nil {
		return fmt.Errorf("%w: already signed in", common.ErrValidation)
	}
	return s.identity.ContinueAsGuest(ctx)
}

func (s *sessionService) Current() *models.AuthSession { return s.identity.Session() }

func (s *sessionService) IsGuest() bool { return s.identity.IsGuest() }
