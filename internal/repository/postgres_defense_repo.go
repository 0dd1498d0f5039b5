package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dquezada/titula/internal/model"
)

// PostgresDefenseRepo is the PostgreSQL-backed repository for defense
// windows, slots, bookings and evaluations.
type PostgresDefenseRepo struct {
	db *sql.DB
}

// NewPostgresDefenseRepo builds a PostgresDefenseRepo.
func NewPostgresDefenseRepo(db *sql.DB) *PostgresDefenseRepo {
	return &PostgresDefenseRepo{db: db}
}

// CreateWindow inserts a window.
func (r *PostgresDefenseRepo) CreateWindow(ctx context.Context, w *model.DefenseWindow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO defense_windows (id, period_id, stage, starts_at, ends_at, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.PeriodID, w.Stage, w.StartsAt, w.EndsAt, w.CreatedBy, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert defense window: %w", err)
	}
	return nil
}

// FindWindow returns the window, or nil when absent.
func (r *PostgresDefenseRepo) FindWindow(ctx context.Context, id string) (*model.DefenseWindow, error) {
	w := &model.DefenseWindow{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, period_id, stage, starts_at, ends_at, created_by, created_at
		 FROM defense_windows WHERE id = $1`,
		id,
	).Scan(&w.ID, &w.PeriodID, &w.Stage, &w.StartsAt, &w.EndsAt, &w.CreatedBy, &w.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find defense window: %w", err)
	}
	return w, nil
}

// ListWindows returns the windows for a period and stage.
func (r *PostgresDefenseRepo) ListWindows(ctx context.Context, periodID string, stage model.DefenseStage) ([]*model.DefenseWindow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, period_id, stage, starts_at, ends_at, created_by, created_at
		 FROM defense_windows WHERE period_id = $1 AND stage = $2 ORDER BY starts_at`,
		periodID, stage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list defense windows: %w", err)
	}
	defer rows.Close()

	var windows []*model.DefenseWindow
	for rows.Next() {
		w := &model.DefenseWindow{}
		if err := rows.Scan(&w.ID, &w.PeriodID, &w.Stage, &w.StartsAt, &w.EndsAt,
			&w.CreatedBy, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan defense window: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate defense windows: %w", err)
	}
	return windows, nil
}

// CreateSlot inserts a slot.
func (r *PostgresDefenseRepo) CreateSlot(ctx context.Context, s *model.DefenseSlot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO defense_slots (id, window_id, jury_id, starts_at, ends_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.WindowID, s.JuryID, s.StartsAt, s.EndsAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert defense slot: %w", err)
	}
	return nil
}

// FindSlot returns the slot, or nil when absent.
func (r *PostgresDefenseRepo) FindSlot(ctx context.Context, id string) (*model.DefenseSlot, error) {
	s := &model.DefenseSlot{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, window_id, jury_id, starts_at, ends_at, created_at
		 FROM defense_slots WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.WindowID, &s.JuryID, &s.StartsAt, &s.EndsAt, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find defense slot: %w", err)
	}
	return s, nil
}

// ListSlotsByWindow returns a window's slots ordered by start time.
func (r *PostgresDefenseRepo) ListSlotsByWindow(ctx context.Context, windowID string) ([]*model.DefenseSlot, error) {
	return r.listSlots(ctx,
		`SELECT id, window_id, jury_id, starts_at, ends_at, created_at
		 FROM defense_slots WHERE window_id = $1 ORDER BY starts_at`,
		windowID)
}

// ListSlotsByJuryAndWindow returns a jury member's slots in a window.
func (r *PostgresDefenseRepo) ListSlotsByJuryAndWindow(ctx context.Context, juryID, windowID string) ([]*model.DefenseSlot, error) {
	return r.listSlots(ctx,
		`SELECT id, window_id, jury_id, starts_at, ends_at, created_at
		 FROM defense_slots WHERE jury_id = $1 AND window_id = $2 ORDER BY starts_at`,
		juryID, windowID)
}

func (r *PostgresDefenseRepo) listSlots(ctx context.Context, query string, args ...any) ([]*model.DefenseSlot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list defense slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.DefenseSlot
	for rows.Next() {
		s := &model.DefenseSlot{}
		if err := rows.Scan(&s.ID, &s.WindowID, &s.JuryID, &s.StartsAt, &s.EndsAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan defense slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate defense slots: %w", err)
	}
	return slots, nil
}

// CreateBooking inserts a booking. The slot_id unique constraint makes a
// double booking fail.
func (r *PostgresDefenseRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, slot_id, student_id, booked_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.SlotID, b.StudentID, b.BookedBy, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// FindBookingBySlot returns the slot's booking, or nil when free.
func (r *PostgresDefenseRepo) FindBookingBySlot(ctx context.Context, slotID string) (*model.Booking, error) {
	b := &model.Booking{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, slot_id, student_id, booked_by, created_at
		 FROM bookings WHERE slot_id = $1`,
		slotID,
	).Scan(&b.ID, &b.SlotID, &b.StudentID, &b.BookedBy, &b.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return b, nil
}

// FindBookingByStudentAndWindow returns the student's booking within the
// window, or nil when none exists.
func (r *PostgresDefenseRepo) FindBookingByStudentAndWindow(ctx context.Context, studentID, windowID string) (*model.Booking, error) {
	b := &model.Booking{}
	err := r.db.QueryRowContext(ctx,
		`SELECT b.id, b.slot_id, b.student_id, b.booked_by, b.created_at
		 FROM bookings b
		 JOIN defense_slots s ON s.id = b.slot_id
		 WHERE b.student_id = $1 AND s.window_id = $2`,
		studentID, windowID,
	).Scan(&b.ID, &b.SlotID, &b.StudentID, &b.BookedBy, &b.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return b, nil
}

// DeleteBooking removes a booking, freeing its slot.
func (r *PostgresDefenseRepo) DeleteBooking(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("booking not found: %s", id)
	}
	return nil
}

// CreateEvaluation inserts a jury member's score for a slot.
func (r *PostgresDefenseRepo) CreateEvaluation(ctx context.Context, e *model.Evaluation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, slot_id, jury_id, score, comments, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.SlotID, e.JuryID, e.Score, e.Comments, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

// ListEvaluationsBySlot returns a slot's evaluations.
func (r *PostgresDefenseRepo) ListEvaluationsBySlot(ctx context.Context, slotID string) ([]*model.Evaluation, error) {
	return r.listEvaluations(ctx,
		`SELECT id, slot_id, jury_id, score, comments, created_at
		 FROM evaluations WHERE slot_id = $1 ORDER BY created_at`,
		slotID)
}

// ListEvaluationsByStudentAndStage returns every evaluation recorded for
// the student's booked slots at the given stage.
func (r *PostgresDefenseRepo) ListEvaluationsByStudentAndStage(ctx context.Context, studentID string, stage model.DefenseStage) ([]*model.Evaluation, error) {
	return r.listEvaluations(ctx,
		`SELECT e.id, e.slot_id, e.jury_id, e.score, e.comments, e.created_at
		 FROM evaluations e
		 JOIN bookings b ON b.slot_id = e.slot_id
		 JOIN defense_slots s ON s.id = e.slot_id
		 JOIN defense_windows w ON w.id = s.window_id
		 WHERE b.student_id = $1 AND w.stage = $2
		 ORDER BY e.created_at`,
		studentID, stage)
}

func (r *PostgresDefenseRepo) listEvaluations(ctx context.Context, query string, args ...any) ([]*model.Evaluation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var evals []*model.Evaluation
	for rows.Next() {
		e := &model.Evaluation{}
		if err := rows.Scan(&e.ID, &e.SlotID, &e.JuryID, &e.Score, &e.Comments, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evals = append(evals, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluations: %w", err)
	}
	return evals, nil
}

// compile-time interface check
var _ DefenseRepository = (*PostgresDefenseRepo)(nil)
