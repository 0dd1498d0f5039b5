// Package defense provides the predefense and final-defense scheduling
// logic: windows, slots, bookings and evaluations.
package defense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/repository"
)

// ScoreMin and ScoreMax bound the evaluation band; PassThreshold is the
// average a student needs to pass a stage.
const (
	ScoreMin      = 0.0
	ScoreMax      = 10.0
	PassThreshold = 7.0
)

// Metrics is the subset of metric recording the defense service uses.
type Metrics interface {
	RecordSlotBooked()
	RecordEvaluationRecorded()
}

// Service implements the defense scheduling workflows.
type Service struct {
	defenseRepo repository.DefenseRepository
	studentRepo repository.StudentRepository
	periodRepo  repository.PeriodRepository
	metrics     Metrics
}

// NewService builds a Service. metrics may be nil.
func NewService(
	defenseRepo repository.DefenseRepository,
	studentRepo repository.StudentRepository,
	periodRepo repository.PeriodRepository,
	metrics Metrics,
) *Service {
	return &Service{
		defenseRepo: defenseRepo,
		studentRepo: studentRepo,
		periodRepo:  periodRepo,
		metrics:     metrics,
	}
}

// CreateWindow registers an admin-defined defense window for a period and
// stage.
func (s *Service) CreateWindow(ctx context.Context, periodID string, stage model.DefenseStage, startsAt, endsAt time.Time, createdBy string) (*model.DefenseWindow, error) {
	if !stage.Valid() {
		return nil, model.NewInvalidWindowError(fmt.Sprintf("unknown stage %q", stage))
	}
	if !startsAt.Before(endsAt) {
		return nil, model.NewInvalidWindowError("the window start must be before its end")
	}

	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period: %w", err)
	}
	if period == nil {
		return nil, model.NewInvalidWindowError(fmt.Sprintf("unknown period %s", periodID))
	}

	w := &model.DefenseWindow{
		ID:        uuid.New().String(),
		PeriodID:  periodID,
		Stage:     stage,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	if err := s.defenseRepo.CreateWindow(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	slog.Info("defense window created",
		slog.String("window_id", w.ID),
		slog.String("stage", string(stage)),
	)
	return w, nil
}

// ListWindows returns the windows for a period and stage.
func (s *Service) ListWindows(ctx context.Context, periodID string, stage model.DefenseStage) ([]*model.DefenseWindow, error) {
	if !stage.Valid() {
		return nil, model.NewInvalidWindowError(fmt.Sprintf("unknown stage %q", stage))
	}
	return s.defenseRepo.ListWindows(ctx, periodID, stage)
}

// OpenSlot opens a bookable slot inside a window for a jury member.
// The slot must be contained in the window and must not overlap another
// slot of the same jury member in that window.
func (s *Service) OpenSlot(ctx context.Context, windowID, juryID string, startsAt, endsAt time.Time) (*model.DefenseSlot, error) {
	window, err := s.getWindow(ctx, windowID)
	if err != nil {
		return nil, err
	}

	if !startsAt.Before(endsAt) {
		return nil, model.NewInvalidWindowError("the slot start must be before its end")
	}
	if startsAt.Before(window.StartsAt) || endsAt.After(window.EndsAt) {
		return nil, model.NewSlotOutsideWindowError()
	}

	existing, err := s.defenseRepo.ListSlotsByJuryAndWindow(ctx, juryID, windowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing slots: %w", err)
	}
	for _, other := range existing {
		if startsAt.Before(other.EndsAt) && other.StartsAt.Before(endsAt) {
			return nil, model.NewSlotOverlapError()
		}
	}

	slot := &model.DefenseSlot{
		ID:        uuid.New().String(),
		WindowID:  windowID,
		JuryID:    juryID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: time.Now(),
	}
	if err := s.defenseRepo.CreateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}

	return slot, nil
}

// ListSlots returns a window's slots ordered by start time.
func (s *Service) ListSlots(ctx context.Context, windowID string) ([]*model.DefenseSlot, error) {
	if _, err := s.getWindow(ctx, windowID); err != nil {
		return nil, err
	}
	return s.defenseRepo.ListSlotsByWindow(ctx, windowID)
}

// BookSlot books a slot for a student. A slot holds at most one booking
// and a student holds at most one booking per window.
func (s *Service) BookSlot(ctx context.Context, slotID, studentID, bookedBy string) (*model.Booking, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	st, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if st == nil {
		return nil, model.NewStudentNotFoundError(studentID)
	}

	if taken, err := s.defenseRepo.FindBookingBySlot(ctx, slotID); err != nil {
		return nil, fmt.Errorf("failed to check slot booking: %w", err)
	} else if taken != nil {
		return nil, model.NewSlotTakenError(slotID)
	}

	if held, err := s.defenseRepo.FindBookingByStudentAndWindow(ctx, studentID, slot.WindowID); err != nil {
		return nil, fmt.Errorf("failed to check student booking: %w", err)
	} else if held != nil {
		return nil, model.NewAlreadyBookedError(studentID)
	}

	b := &model.Booking{
		ID:        uuid.New().String(),
		SlotID:    slotID,
		StudentID: studentID,
		BookedBy:  bookedBy,
		CreatedAt: time.Now(),
	}
	if err := s.defenseRepo.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSlotBooked()
	}
	slog.Info("slot booked",
		slog.String("slot_id", slotID),
		slog.String("student_id", studentID),
	)
	return b, nil
}

// CancelBooking frees a booked slot.
func (s *Service) CancelBooking(ctx context.Context, slotID string) error {
	if _, err := s.getSlot(ctx, slotID); err != nil {
		return err
	}

	booking, err := s.defenseRepo.FindBookingBySlot(ctx, slotID)
	if err != nil {
		return fmt.Errorf("failed to find booking: %w", err)
	}
	if booking == nil {
		return &model.APIError{
			Code:     model.ErrCodeBookingNotFound,
			Message:  fmt.Sprintf("Slot has no booking: %s", slotID),
			Category: "defense",
			Action:   "Check the slot identifier.",
		}
	}

	if err := s.defenseRepo.DeleteBooking(ctx, booking.ID); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	slog.Info("booking cancelled", slog.String("slot_id", slotID))
	return nil
}

// RecordEvaluation stores a jury member's score for a booked slot.
// Scores outside [ScoreMin, ScoreMax] are rejected.
func (s *Service) RecordEvaluation(ctx context.Context, slotID, juryID string, score float64, comments string) (*model.Evaluation, error) {
	if score < ScoreMin || score > ScoreMax {
		return nil, model.NewInvalidScoreError(score)
	}

	if _, err := s.getSlot(ctx, slotID); err != nil {
		return nil, err
	}

	booking, err := s.defenseRepo.FindBookingBySlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	if booking == nil {
		return nil, &model.APIError{
			Code:     model.ErrCodeBookingNotFound,
			Message:  fmt.Sprintf("Cannot evaluate an unbooked slot: %s", slotID),
			Category: "defense",
			Action:   "Evaluate a slot with a booked student.",
		}
	}

	e := &model.Evaluation{
		ID:        uuid.New().String(),
		SlotID:    slotID,
		JuryID:    juryID,
		Score:     score,
		Comments:  comments,
		CreatedAt: time.Now(),
	}
	if err := s.defenseRepo.CreateEvaluation(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to record evaluation: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordEvaluationRecorded()
	}
	return e, nil
}

// StudentSummary aggregates a student's recorded scores for one stage:
// count, average and pass/fail against PassThreshold.
func (s *Service) StudentSummary(ctx context.Context, studentID string, stage model.DefenseStage) (*model.EvaluationSummary, error) {
	if !stage.Valid() {
		return nil, model.NewInvalidWindowError(fmt.Sprintf("unknown stage %q", stage))
	}

	st, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if st == nil {
		return nil, model.NewStudentNotFoundError(studentID)
	}

	evals, err := s.defenseRepo.ListEvaluationsByStudentAndStage(ctx, studentID, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	summary := &model.EvaluationSummary{
		StudentID: studentID,
		Stage:     stage,
	}
	if len(evals) == 0 {
		return summary, nil
	}

	var total float64
	for _, e := range evals {
		total += e.Score
	}
	summary.Count = len(evals)
	summary.Average = total / float64(len(evals))
	summary.Passed = summary.Average >= PassThreshold

	return summary, nil
}

func (s *Service) getWindow(ctx context.Context, id string) (*model.DefenseWindow, error) {
	w, err := s.defenseRepo.FindWindow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find window: %w", err)
	}
	if w == nil {
		return nil, &model.APIError{
			Code:     model.ErrCodeWindowNotFound,
			Message:  fmt.Sprintf("Defense window not found: %s", id),
			Category: "defense",
			Action:   "Check the window identifier.",
		}
	}
	return w, nil
}

func (s *Service) getSlot(ctx context.Context, id string) (*model.DefenseSlot, error) {
	slot, err := s.defenseRepo.FindSlot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	if slot == nil {
		return nil, &model.APIError{
			Code:     model.ErrCodeSlotNotFound,
			Message:  fmt.Sprintf("Defense slot not found: %s", id),
			Category: "defense",
			Action:   "Check the slot identifier.",
		}
	}
	return slot, nil
}
