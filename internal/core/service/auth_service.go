package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// HashPassword returns the bcrypt hash of password. A cost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticator checks a handle/secret pair against the stored password hash.
type Authenticator struct {
	repo ports.IdentityRepository
}

func NewAuthenticator(repo ports.IdentityRepository) *Authenticator {
	return &Authenticator{repo: repo}
}

// Verify returns the identity owning username when password matches. Unknown
// handles and wrong secrets are both reported as ErrInvalidCredentials.
func (a *Authenticator) Verify(ctx context.Context, username, password string) (*domain.Identity, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := a.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	// Identities added without a password cannot log in.
	if identity.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return identity, nil
}

// AuthService implements bearer-token login and logout for HTTP callers.
type AuthService struct {
	auth        *Authenticator
	tokens      ports.TokenCodec
	revocations ports.Revocations
	latency     ports.Latency
	log         zerolog.Logger
}

func NewAuthService(
	auth *Authenticator,
	tokens ports.TokenCodec,
	revocations ports.Revocations,
	latency ports.Latency,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		auth:        auth,
		tokens:      tokens,
		revocations: revocations,
		latency:     latency,
		log:         log,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if err := s.latency.Wait(ctx, ports.OpLogin); err != nil {
		return nil, err
	}

	identity, err := s.auth.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Warn().Str("username", username).Msg("login rejected")
		}
		return nil, err
	}

	snapshot := identity.Snapshot()
	token, session, err := s.tokens.Issue(snapshot)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("identity_id", snapshot.ID).Str("role", string(snapshot.Role)).Msg("login succeeded")

	return &ports.LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Identity:  snapshot,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.latency.Wait(ctx, ports.OpLogout); err != nil {
		return err
	}

	session, ok := domain.SessionFromContext(ctx)
	if !ok || session.TokenID == "" {
		return nil
	}

	if err := s.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("identity_id", session.Identity.ID).Msg("logout")
	return nil
}
