// Package auth provides password authentication, bearer token sessions and
// the password reset flow.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/repository"
	"github.com/dquezada/titula/internal/role"
)

// ServiceConfig holds the auth service settings.
type ServiceConfig struct {
	SessionMaxAge int           // session lifetime in seconds
	ResetTokenTTL time.Duration // password reset token lifetime
	BcryptCost    int
}

// Service implements the authentication business logic.
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	resetRepo   repository.ResetTokenRepository
	config      ServiceConfig
}

// NewService builds a Service.
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	resetRepo repository.ResetTokenRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		config:      config,
	}
}

// Login verifies the credentials and issues an opaque bearer token.
// Every failure path returns the same invalid-credentials error so the
// response does not reveal whether the username exists.
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return session, nil
}

// Logout deletes the session behind the token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// IdentityByToken resolves a bearer token to the holder's identity.
// Roles are returned in canonical normalized form. An unknown or expired
// token yields a nil identity with no error; the caller decides policy.
func (s *Service) IdentityByToken(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return &model.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    role.Normalize(user.Roles),
	}, nil
}

// ForgotPassword issues a one-shot password reset token for the account
// behind the email. Only the token's hash is stored. An unknown email
// returns an empty token with no error, so responses stay uniform.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		slog.Warn("password reset requested for unknown email")
		return "", nil
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	reset := &model.PasswordResetToken{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.config.ResetTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return "", fmt.Errorf("failed to save reset token: %w", err)
	}

	slog.Info("password reset token issued", slog.String("user_id", user.ID))
	return token, nil
}

// ResetPassword consumes a reset token, replaces the password and revokes
// every existing session of the account.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return model.NewInvalidResetTokenError()
	}

	reset, err := s.resetRepo.Consume(ctx, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if reset == nil {
		return model.NewInvalidResetTokenError()
	}

	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// A reset invalidates any token issued before it.
	if err := s.sessionRepo.DeleteByUserID(ctx, reset.UserID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	slog.Info("password reset completed", slog.String("user_id", reset.UserID))
	return nil
}

// createSession creates and persists a session.
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.Session{
		ID:        token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateToken generates a cryptographically secure opaque token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken hashes a reset token for storage.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
