// Package services contains server-side business logic. UserService handles
// registration, email login and identity provider login, and issues access
// tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/cryptox"
	"github.com/dmitrijs2005/threeline/internal/dbx"
	"github.com/dmitrijs2005/threeline/internal/logging"
	"github.com/dmitrijs2005/threeline/internal/server/auth"
	"github.com/dmitrijs2005/threeline/internal/server/config"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/repomanager"
)

// MinPasswordLength applies to registration only.
const MinPasswordLength = 8

// ErrProviderDisabled is returned for identity providers without a key.
var ErrProviderDisabled = errors.New("identity provider not configured")

// IdentityVerifier checks an identity token of one provider.
type IdentityVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// AuthResult is a signed-in user and their access token.
type AuthResult struct {
	AccessToken string
	User        models.User
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	verifiers   map[string]IdentityVerifier
	clock       common.Clock
	ids         common.IDGenerator
	log         logging.Logger

	jwtSecret      []byte
	accessTokenTTL time.Duration
}

// NewUserService constructs a UserService. verifiers is keyed by provider
// name (models.ProviderApple, models.ProviderGoogle); missing entries
// disable that provider.
func NewUserService(m repomanager.RepositoryManager, cfg *config.Config, verifiers map[string]IdentityVerifier,
	clock common.Clock, ids common.IDGenerator, log logging.Logger) *UserService {
	if log == nil {
		log = logging.Nop()
	}
	return &UserService{
		repomanager:    m,
		verifiers:      verifiers,
		clock:          clock,
		ids:            ids,
		log:            log,
		jwtSecret:      []byte(cfg.SecretKey),
		accessTokenTTL: cfg.AccessTokenTTL.Duration,
	}
}

// Register creates an email account and signs it in.
func (s *UserService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len([]rune(password)) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: s.ids.New(), Email: email, PasswordHash: hash}
	if _, err := s.repomanager.Users(s.repomanager.Conn()).Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login verifies email credentials. Unknown emails and wrong passwords
// both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, common.ErrInvalidCredentials
	}

	ok, err := cryptox.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return s.issue(user)
}

// LoginWithIdentity signs in with an identity token. The first login of a
// subject links it to the account with the same verified email, or to a
// new account.
func (s *UserService) LoginWithIdentity(ctx context.Context, provider, token string) (*AuthResult, error) {
	v, ok := s.verifiers[provider]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderDisabled, provider)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: identity token is required", common.ErrValidation)
	}

	id, err := v.Verify(token)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.repomanager.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err = repo.GetByIdentity(ctx, provider, id.Subject)
		if err == nil || !errors.Is(err, common.ErrNotFound) {
			return err
		}

		user = nil
		if id.Email != "" {
			user, err = repo.GetByEmail(ctx, id.Email)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
		}
		if user == nil {
			user = &models.User{ID: s.ids.New(), Email: id.Email}
			if _, err := repo.Create(ctx, user); err != nil {
				return err
			}
			s.log.Info(ctx, "user registered", "user_id", user.ID, "provider", provider)
		}
		return repo.LinkIdentity(ctx, models.Identity{Provider: provider, Subject: id.Subject, UserID: user.ID})
	})
	if err != nil {
		return nil, fmt.Errorf("%s login: %w", provider, err)
	}
	return s.issue(user)
}

// Authenticate resolves a bearer access token to a user id.
func (s *UserService) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret, s.clock.Now())
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenTTL, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: *user}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", common.ErrValidation, email)
	}
	return strings.ToLower(email), nil
}
