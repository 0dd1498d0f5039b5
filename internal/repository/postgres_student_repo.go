package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dquezada/titula/internal/model"
)

// PostgresStudentRepo is the PostgreSQL-backed student repository.
// It also persists the student's tracking entries and project assignment.
type PostgresStudentRepo struct {
	db *sql.DB
}

// NewPostgresStudentRepo builds a PostgresStudentRepo.
func NewPostgresStudentRepo(db *sql.DB) *PostgresStudentRepo {
	return &PostgresStudentRepo{db: db}
}

const studentColumns = `id, full_name, email, career_id, period_id, COALESCE(tutor_id::text, ''), created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.CareerID, &s.PeriodID,
		&s.TutorID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FindByID returns the student, or nil when absent.
func (r *PostgresStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	s, err := scanStudent(r.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	return s, nil
}

// ListByPeriod returns the students registered in a period.
func (r *PostgresStudentRepo) ListByPeriod(ctx context.Context, periodID string) ([]*model.Student, error) {
	return r.list(ctx,
		`SELECT `+studentColumns+` FROM students WHERE period_id = $1 ORDER BY full_name`,
		periodID)
}

// ListByTutor returns the students assigned to a tutor within a period.
func (r *PostgresStudentRepo) ListByTutor(ctx context.Context, tutorID, periodID string) ([]*model.Student, error) {
	return r.list(ctx,
		`SELECT `+studentColumns+` FROM students WHERE tutor_id = $1 AND period_id = $2 ORDER BY full_name`,
		tutorID, periodID)
}

func (r *PostgresStudentRepo) list(ctx context.Context, query string, args ...any) ([]*model.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	return students, nil
}

// Create inserts a student.
func (r *PostgresStudentRepo) Create(ctx context.Context, s *model.Student) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO students (id, full_name, email, career_id, period_id, tutor_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8)`,
		s.ID, s.FullName, s.Email, s.CareerID, s.PeriodID, s.TutorID, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}
	return nil
}

// Update rewrites the student's mutable fields.
func (r *PostgresStudentRepo) Update(ctx context.Context, s *model.Student) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE students SET full_name = $2, email = $3, career_id = $4, updated_at = $5
		 WHERE id = $1`,
		s.ID, s.FullName, s.Email, s.CareerID, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("student not found: %s", s.ID)
	}
	return nil
}

// AssignTutor sets the student's tutor.
func (r *PostgresStudentRepo) AssignTutor(ctx context.Context, studentID, tutorID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE students SET tutor_id = $2, updated_at = now() WHERE id = $1`,
		studentID, tutorID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign tutor: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("student not found: %s", studentID)
	}
	return nil
}

// DeleteByID removes the student.
func (r *PostgresStudentRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("student not found: %s", id)
	}
	return nil
}

// CreateIncident inserts a tracking entry.
func (r *PostgresStudentRepo) CreateIncident(ctx context.Context, inc *model.Incident) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incidents (id, student_id, author_id, kind, body, occurred_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inc.ID, inc.StudentID, inc.AuthorID, inc.Kind, inc.Body, inc.OccurredAt, inc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert incident: %w", err)
	}
	return nil
}

// ListIncidents returns a student's tracking entries, newest first.
func (r *PostgresStudentRepo) ListIncidents(ctx context.Context, studentID string) ([]*model.Incident, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, author_id, kind, body, occurred_at, created_at
		 FROM incidents WHERE student_id = $1 ORDER BY occurred_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*model.Incident
	for rows.Next() {
		inc := &model.Incident{}
		if err := rows.Scan(&inc.ID, &inc.StudentID, &inc.AuthorID, &inc.Kind,
			&inc.Body, &inc.OccurredAt, &inc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incidents: %w", err)
	}
	return incidents, nil
}

// CreateProject inserts a project assignment.
func (r *PostgresStudentRepo) CreateProject(ctx context.Context, p *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, student_id, period_id, title, description, assigned_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.StudentID, p.PeriodID, p.Title, p.Description, p.AssignedBy, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// FindProjectByStudentAndPeriod returns the student's project for the
// period, or nil when none is assigned.
func (r *PostgresStudentRepo) FindProjectByStudentAndPeriod(ctx context.Context, studentID, periodID string) (*model.Project, error) {
	p := &model.Project{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, student_id, period_id, title, description, assigned_by, created_at
		 FROM projects WHERE student_id = $1 AND period_id = $2`,
		studentID, periodID,
	).Scan(&p.ID, &p.StudentID, &p.PeriodID, &p.Title, &p.Description, &p.AssignedBy, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return p, nil
}

// compile-time interface check
var _ StudentRepository = (*PostgresStudentRepo)(nil)
