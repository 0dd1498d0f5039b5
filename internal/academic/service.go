// Package academic provides the period and career management logic.
package academic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/repository"
)

// Service implements academic period and career management.
type Service struct {
	periodRepo repository.PeriodRepository
	careerRepo repository.CareerRepository
}

// NewService builds a Service.
func NewService(periodRepo repository.PeriodRepository, careerRepo repository.CareerRepository) *Service {
	return &Service{
		periodRepo: periodRepo,
		careerRepo: careerRepo,
	}
}

// ListPeriods returns all periods, newest first.
func (s *Service) ListPeriods(ctx context.Context) ([]*model.Period, error) {
	return s.periodRepo.List(ctx)
}

// ActivePeriod returns the active period, or nil when none is active.
func (s *Service) ActivePeriod(ctx context.Context) (*model.Period, error) {
	return s.periodRepo.FindActive(ctx)
}

// CreatePeriod registers a new academic period.
func (s *Service) CreatePeriod(ctx context.Context, name string, startsAt, endsAt time.Time) (*model.Period, error) {
	if name == "" {
		return nil, &model.APIError{
			Code:     "INVALID_PERIOD",
			Message:  "The period name is required.",
			Category: "validation",
			Action:   "Provide a period name.",
		}
	}
	if !startsAt.Before(endsAt) {
		return nil, &model.APIError{
			Code:     "INVALID_PERIOD",
			Message:  "The period start must be before its end.",
			Category: "validation",
			Action:   "Check the period dates.",
		}
	}

	p := &model.Period{
		ID:        uuid.New().String(),
		Name:      name,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Active:    false,
		CreatedAt: time.Now(),
	}
	if err := s.periodRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create period: %w", err)
	}

	slog.Info("period created", slog.String("period_id", p.ID), slog.String("name", p.Name))
	return p, nil
}

// UpdatePeriod rewrites a period's name and range.
func (s *Service) UpdatePeriod(ctx context.Context, id, name string, startsAt, endsAt time.Time) (*model.Period, error) {
	p, err := s.getPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if !startsAt.Before(endsAt) {
		return nil, &model.APIError{
			Code:     "INVALID_PERIOD",
			Message:  "The period start must be before its end.",
			Category: "validation",
			Action:   "Check the period dates.",
		}
	}

	p.Name = name
	p.StartsAt = startsAt
	p.EndsAt = endsAt
	if err := s.periodRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update period: %w", err)
	}
	return p, nil
}

// ActivatePeriod marks one period active; every other period is
// deactivated in the same transaction.
func (s *Service) ActivatePeriod(ctx context.Context, id string) error {
	if _, err := s.getPeriod(ctx, id); err != nil {
		return err
	}
	if err := s.periodRepo.Activate(ctx, id); err != nil {
		return fmt.Errorf("failed to activate period: %w", err)
	}
	slog.Info("period activated", slog.String("period_id", id))
	return nil
}

// DeletePeriod removes a period.
func (s *Service) DeletePeriod(ctx context.Context, id string) error {
	if _, err := s.getPeriod(ctx, id); err != nil {
		return err
	}
	if err := s.periodRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	return nil
}

func (s *Service) getPeriod(ctx context.Context, id string) (*model.Period, error) {
	p, err := s.periodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find period: %w", err)
	}
	if p == nil {
		return nil, &model.APIError{
			Code:     model.ErrCodePeriodNotFound,
			Message:  fmt.Sprintf("Period not found: %s", id),
			Category: "academic",
			Action:   "Check the period identifier.",
		}
	}
	return p, nil
}

// ListCareers returns all careers ordered by name.
func (s *Service) ListCareers(ctx context.Context) ([]*model.Career, error) {
	return s.careerRepo.List(ctx)
}

// CreateCareer registers a new career.
func (s *Service) CreateCareer(ctx context.Context, name string) (*model.Career, error) {
	if name == "" {
		return nil, &model.APIError{
			Code:     "INVALID_CAREER",
			Message:  "The career name is required.",
			Category: "validation",
			Action:   "Provide a career name.",
		}
	}

	c := &model.Career{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.careerRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create career: %w", err)
	}
	return c, nil
}

// UpdateCareer renames a career.
func (s *Service) UpdateCareer(ctx context.Context, id, name string) (*model.Career, error) {
	c, err := s.getCareer(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	if err := s.careerRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update career: %w", err)
	}
	return c, nil
}

// DeleteCareer removes a career.
func (s *Service) DeleteCareer(ctx context.Context, id string) error {
	if _, err := s.getCareer(ctx, id); err != nil {
		return err
	}
	if err := s.careerRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete career: %w", err)
	}
	return nil
}

func (s *Service) getCareer(ctx context.Context, id string) (*model.Career, error) {
	c, err := s.careerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find career: %w", err)
	}
	if c == nil {
		return nil, &model.APIError{
			Code:     model.ErrCodeCareerNotFound,
			Message:  fmt.Sprintf("Career not found: %s", id),
			Category: "academic",
			Action:   "Check the career identifier.",
		}
	}
	return c, nil
}
