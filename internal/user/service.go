// Package user provides the admin-facing account management logic.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dquezada/titula/internal/auth"
	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/repository"
	"github.com/dquezada/titula/internal/role"
	"github.com/dquezada/titula/internal/security"
)

// ServiceConfig holds the user service settings.
type ServiceConfig struct {
	BcryptCost int
}

// Service implements account management: create, update, delete, and the
// profile photo workflow.
type Service struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	photoFetcher security.PhotoFetcherService
	config       ServiceConfig
}

// NewService builds a Service.
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	photoFetcher security.PhotoFetcherService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		photoFetcher: photoFetcher,
		config:       config,
	}
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Roles    []string
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// Create registers a new account. Roles are normalized and must all belong
// to the configured vocabulary; username and email must be free.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.User, error) {
	roles, err := validRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.FindByUsername(ctx, in.Username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if existing != nil {
		return nil, model.NewDuplicateUsernameError(in.Username)
	}
	if existing, err := s.userRepo.FindByEmail(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if existing != nil {
		return nil, model.NewDuplicateUsernameError(in.Email)
	}

	hash, err := auth.HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Any("roles", user.Roles),
	)

	return user, nil
}

// UpdateInput carries the mutable account fields.
type UpdateInput struct {
	Username string
	Email    string
	FullName string
	Roles    []string
}

// Update rewrites an account's profile fields and role set.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	roles, err := validRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = in.Email
	user.FullName = in.FullName
	user.Roles = roles
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Delete removes an account and revokes its sessions.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted", slog.String("user_id", id))
	return nil
}

// SetPhotoFromURL downloads the photo at the given URL and stores it on
// the account.
func (s *Service) SetPhotoFromURL(ctx context.Context, id, photoURL string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	data, mime, err := s.photoFetcher.FetchPhoto(ctx, photoURL)
	if err != nil {
		if errors.Is(err, security.ErrPhotoBlocked) {
			return model.NewPhotoBlockedError()
		}
		return model.NewPhotoFetchFailedError(err.Error())
	}

	if err := s.userRepo.UpdatePhoto(ctx, id, data, mime); err != nil {
		return fmt.Errorf("failed to store photo: %w", err)
	}

	slog.Info("profile photo updated",
		slog.String("user_id", id),
		slog.String("mime", mime),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// GetPhoto returns the account's stored photo, or nil when absent.
func (s *Service) GetPhoto(ctx context.Context, id string) (*model.ProfilePhoto, error) {
	photo, err := s.userRepo.FindPhoto(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}
	return photo, nil
}

// validRoles normalizes the raw role list and rejects anything outside the
// configured vocabulary. At least one role is required.
func validRoles(raw []string) ([]string, error) {
	roles := role.Normalize(raw)
	if len(roles) == 0 {
		return nil, model.NewUnknownRoleError("(none)")
	}
	for _, r := range roles {
		if !role.IsKnown(r) {
			return nil, model.NewUnknownRoleError(r)
		}
	}
	return roles, nil
}
