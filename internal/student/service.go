// Package student provides the student tracking logic: registration,
// tutor assignment, incidents/observations and project assignment.
package student

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/repository"
	"github.com/dquezada/titula/internal/role"
	"github.com/dquezada/titula/internal/security"
)

// Service implements the student tracking workflows.
type Service struct {
	studentRepo repository.StudentRepository
	careerRepo  repository.CareerRepository
	periodRepo  repository.PeriodRepository
	userRepo    repository.UserRepository
	sanitizer   security.ContentSanitizerService
}

// NewService builds a Service.
func NewService(
	studentRepo repository.StudentRepository,
	careerRepo repository.CareerRepository,
	periodRepo repository.PeriodRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		studentRepo: studentRepo,
		careerRepo:  careerRepo,
		periodRepo:  periodRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
	}
}

// RegisterInput carries a new student's fields.
type RegisterInput struct {
	FullName string
	Email    string
	CareerID string
	PeriodID string
}

// Register adds a student to a career and period.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Student, error) {
	career, err := s.careerRepo.FindByID(ctx, in.CareerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find career: %w", err)
	}
	if career == nil {
		return nil, &model.APIError{
			Code:     model.ErrCodeCareerNotFound,
			Message:  fmt.Sprintf("Career not found: %s", in.CareerID),
			Category: "academic",
			Action:   "Check the career identifier.",
		}
	}

	period, err := s.periodRepo.FindByID(ctx, in.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period: %w", err)
	}
	if period == nil {
		return nil, &model.APIError{
			Code:     model.ErrCodePeriodNotFound,
			Message:  fmt.Sprintf("Period not found: %s", in.PeriodID),
			Category: "academic",
			Action:   "Check the period identifier.",
		}
	}

	now := time.Now()
	st := &model.Student{
		ID:        uuid.New().String(),
		FullName:  in.FullName,
		Email:     in.Email,
		CareerID:  in.CareerID,
		PeriodID:  in.PeriodID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.studentRepo.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	slog.Info("student registered",
		slog.String("student_id", st.ID),
		slog.String("period_id", st.PeriodID),
	)
	return st, nil
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, id string) (*model.Student, error) {
	st, err := s.studentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if st == nil {
		return nil, model.NewStudentNotFoundError(id)
	}
	return st, nil
}

// ListByPeriod returns the students registered in a period.
func (s *Service) ListByPeriod(ctx context.Context, periodID string) ([]*model.Student, error) {
	return s.studentRepo.ListByPeriod(ctx, periodID)
}

// ListByTutor returns the students a tutor tracks within a period.
func (s *Service) ListByTutor(ctx context.Context, tutorID, periodID string) ([]*model.Student, error) {
	return s.studentRepo.ListByTutor(ctx, tutorID, periodID)
}

// AssignTutor sets a student's tutor. The assignee must hold the tutor
// role.
func (s *Service) AssignTutor(ctx context.Context, studentID, tutorID string) error {
	if _, err := s.Get(ctx, studentID); err != nil {
		return err
	}

	tutor, err := s.userRepo.FindByID(ctx, tutorID)
	if err != nil {
		return fmt.Errorf("failed to find tutor: %w", err)
	}
	if tutor == nil {
		return model.NewUserNotFoundError(tutorID)
	}
	if !role.Intersects(role.Normalize(tutor.Roles), []string{role.Tutor}) {
		return &model.APIError{
			Code:     "NOT_A_TUTOR",
			Message:  fmt.Sprintf("User does not hold the tutor role: %s", tutorID),
			Category: "validation",
			Action:   "Pick a user with the tutor role.",
		}
	}

	if err := s.studentRepo.AssignTutor(ctx, studentID, tutorID); err != nil {
		return fmt.Errorf("failed to assign tutor: %w", err)
	}

	slog.Info("tutor assigned",
		slog.String("student_id", studentID),
		slog.String("tutor_id", tutorID),
	)
	return nil
}

// RecordIncident stores a dated incident or observation against a student.
// The body is sanitized before persistence.
func (s *Service) RecordIncident(ctx context.Context, studentID, authorID string, kind model.IncidentKind, body string, occurredAt time.Time) (*model.Incident, error) {
	if kind != model.IncidentKindIncident && kind != model.IncidentKindObservation {
		return nil, &model.APIError{
			Code:     "INVALID_INCIDENT_KIND",
			Message:  fmt.Sprintf("Unknown tracking entry kind: %s", kind),
			Category: "validation",
			Action:   "Use incident or observation.",
		}
	}
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}

	clean := s.sanitizer.Sanitize(body)
	if clean == "" {
		return nil, &model.APIError{
			Code:     "EMPTY_INCIDENT_BODY",
			Message:  "The tracking entry body is empty after sanitization.",
			Category: "validation",
			Action:   "Write the entry as plain prose.",
		}
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	inc := &model.Incident{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		AuthorID:   authorID,
		Kind:       kind,
		Body:       clean,
		OccurredAt: occurredAt,
		CreatedAt:  time.Now(),
	}
	if err := s.studentRepo.CreateIncident(ctx, inc); err != nil {
		return nil, fmt.Errorf("failed to record incident: %w", err)
	}

	return inc, nil
}

// ListIncidents returns a student's tracking entries, newest first.
func (s *Service) ListIncidents(ctx context.Context, studentID string) ([]*model.Incident, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	return s.studentRepo.ListIncidents(ctx, studentID)
}

// AssignProject assigns a thesis project to a student for the student's
// period. A student holds at most one project per period.
func (s *Service) AssignProject(ctx context.Context, studentID, assignedBy, title, description string) (*model.Project, error) {
	st, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, &model.APIError{
			Code:     "INVALID_PROJECT",
			Message:  "The project title is required.",
			Category: "validation",
			Action:   "Provide a project title.",
		}
	}

	existing, err := s.studentRepo.FindProjectByStudentAndPeriod(ctx, studentID, st.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing project: %w", err)
	}
	if existing != nil {
		return nil, model.NewProjectExistsError(studentID)
	}

	p := &model.Project{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		PeriodID:    st.PeriodID,
		Title:       title,
		Description: description,
		AssignedBy:  assignedBy,
		CreatedAt:   time.Now(),
	}
	if err := s.studentRepo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to assign project: %w", err)
	}

	slog.Info("project assigned",
		slog.String("student_id", studentID),
		slog.String("project_id", p.ID),
	)
	return p, nil
}

// GetProject returns the student's project for their period, or nil when
// none is assigned.
func (s *Service) GetProject(ctx context.Context, studentID string) (*model.Project, error) {
	st, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.studentRepo.FindProjectByStudentAndPeriod(ctx, studentID, st.PeriodID)
}
