// Package repository defines the persistence interfaces.
package repository

import (
	"context"
	"time"

	"github.com/dquezada/titula/internal/model"
)

// UserRepository persists accounts and their role sets.
type UserRepository interface {
	// FindByID returns the user with the given ID, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername returns the user with the given username, or nil when absent.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail returns the user with the given email, or nil when absent.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List returns all users ordered by username.
	List(ctx context.Context) ([]*model.User, error)

	// Create inserts the user and its roles in one transaction.
	Create(ctx context.Context, user *model.User) error

	// Update rewrites the user's mutable fields and replaces its role set in
	// one transaction.
	Update(ctx context.Context, user *model.User) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// DeleteByID removes the user. Roles, sessions and reset tokens are
	// removed by CASCADE.
	DeleteByID(ctx context.Context, id string) error

	// UpdatePhoto stores the user's profile photo bytes and mime type.
	UpdatePhoto(ctx context.Context, id string, data []byte, mime string) error

	// FindPhoto returns the stored photo, or nil when the user has none.
	FindPhoto(ctx context.Context, id string) (*model.ProfilePhoto, error)
}

// SessionRepository persists issued bearer tokens.
type SessionRepository interface {
	// Create inserts a session.
	Create(ctx context.Context, session *model.Session) error
	// FindByID returns the session, or nil when absent or expired.
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID removes the session. Deleting an absent session is not an error.
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID removes every session of the user.
	DeleteByUserID(ctx context.Context, userID string) error
}

// ResetTokenRepository persists one-shot password reset tokens.
// Only token hashes are stored.
type ResetTokenRepository interface {
	// Create inserts a reset token.
	Create(ctx context.Context, token *model.PasswordResetToken) error
	// Consume marks the token used and returns it. Returns nil when the
	// token is unknown, expired or already consumed.
	Consume(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error)
}

// PeriodRepository persists academic periods.
type PeriodRepository interface {
	// FindByID returns the period, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.Period, error)
	// FindActive returns the active period, or nil when none is active.
	FindActive(ctx context.Context) (*model.Period, error)
	// List returns all periods, newest first.
	List(ctx context.Context) ([]*model.Period, error)
	// Create inserts a period.
	Create(ctx context.Context, p *model.Period) error
	// Update rewrites the period's name and range.
	Update(ctx context.Context, p *model.Period) error
	// Activate marks the period active and deactivates all others in one
	// transaction.
	Activate(ctx context.Context, id string) error
	// DeleteByID removes the period.
	DeleteByID(ctx context.Context, id string) error
}

// CareerRepository persists degree programs.
type CareerRepository interface {
	// FindByID returns the career, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.Career, error)
	// List returns all careers ordered by name.
	List(ctx context.Context) ([]*model.Career, error)
	// Create inserts a career.
	Create(ctx context.Context, c *model.Career) error
	// Update renames the career.
	Update(ctx context.Context, c *model.Career) error
	// DeleteByID removes the career.
	DeleteByID(ctx context.Context, id string) error
}

// StudentRepository persists students and their tracking entries.
type StudentRepository interface {
	// FindByID returns the student, or nil when absent.
	FindByID(ctx context.Context, id string) (*model.Student, error)
	// ListByPeriod returns the students registered in a period.
	ListByPeriod(ctx context.Context, periodID string) ([]*model.Student, error)
	// ListByTutor returns the students assigned to a tutor within a period.
	ListByTutor(ctx context.Context, tutorID, periodID string) ([]*model.Student, error)
	// Create inserts a student.
	Create(ctx context.Context, s *model.Student) error
	// Update rewrites the student's mutable fields.
	Update(ctx context.Context, s *model.Student) error
	// AssignTutor sets the student's tutor.
	AssignTutor(ctx context.Context, studentID, tutorID string) error
	// DeleteByID removes the student.
	DeleteByID(ctx context.Context, id string) error

	// CreateIncident inserts a tracking entry.
	CreateIncident(ctx context.Context, inc *model.Incident) error
	// ListIncidents returns a student's tracking entries, newest first.
	ListIncidents(ctx context.Context, studentID string) ([]*model.Incident, error)

	// CreateProject inserts a project assignment.
	CreateProject(ctx context.Context, p *model.Project) error
	// FindProjectByStudentAndPeriod returns the student's project for the
	// period, or nil when none is assigned.
	FindProjectByStudentAndPeriod(ctx context.Context, studentID, periodID string) (*model.Project, error)
}

// DefenseRepository persists defense windows, slots, bookings and
// evaluations for both stages.
type DefenseRepository interface {
	// CreateWindow inserts a window.
	CreateWindow(ctx context.Context, w *model.DefenseWindow) error
	// FindWindow returns the window, or nil when absent.
	FindWindow(ctx context.Context, id string) (*model.DefenseWindow, error)
	// ListWindows returns the windows for a period and stage.
	ListWindows(ctx context.Context, periodID string, stage model.DefenseStage) ([]*model.DefenseWindow, error)

	// CreateSlot inserts a slot.
	CreateSlot(ctx context.Context, s *model.DefenseSlot) error
	// FindSlot returns the slot, or nil when absent.
	FindSlot(ctx context.Context, id string) (*model.DefenseSlot, error)
	// ListSlotsByWindow returns a window's slots ordered by start time.
	ListSlotsByWindow(ctx context.Context, windowID string) ([]*model.DefenseSlot, error)
	// ListSlotsByJuryAndWindow returns a jury member's slots in a window.
	ListSlotsByJuryAndWindow(ctx context.Context, juryID, windowID string) ([]*model.DefenseSlot, error)

	// CreateBooking inserts a booking. The slot_id unique constraint makes a
	// double booking fail.
	CreateBooking(ctx context.Context, b *model.Booking) error
	// FindBookingBySlot returns the slot's booking, or nil when free.
	FindBookingBySlot(ctx context.Context, slotID string) (*model.Booking, error)
	// FindBookingByStudentAndWindow returns the student's booking within the
	// window, or nil when none exists.
	FindBookingByStudentAndWindow(ctx context.Context, studentID, windowID string) (*model.Booking, error)
	// DeleteBooking removes a booking, freeing its slot.
	DeleteBooking(ctx context.Context, id string) error

	// CreateEvaluation inserts a jury member's score for a slot.
	CreateEvaluation(ctx context.Context, e *model.Evaluation) error
	// ListEvaluationsBySlot returns a slot's evaluations.
	ListEvaluationsBySlot(ctx context.Context, slotID string) ([]*model.Evaluation, error)
	// ListEvaluationsByStudentAndStage returns every evaluation recorded for
	// the student's booked slots at the given stage.
	ListEvaluationsByStudentAndStage(ctx context.Context, studentID string, stage model.DefenseStage) ([]*model.Evaluation, error)
}

// ExpiredCleaner is the subset of maintenance operations the cleanup worker
// needs.
type ExpiredCleaner interface {
	// DeleteExpiredSessions removes sessions past their expiry, returning
	// the number removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	// DeleteExpiredResetTokens removes consumed and expired reset tokens,
	// returning the number removed.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
