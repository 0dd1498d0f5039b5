package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dquezada/titula/internal/model"
)

// PostgresPeriodRepo is the PostgreSQL-backed academic period repository.
type PostgresPeriodRepo struct {
	db *sql.DB
}

// NewPostgresPeriodRepo builds a PostgresPeriodRepo.
func NewPostgresPeriodRepo(db *sql.DB) *PostgresPeriodRepo {
	return &PostgresPeriodRepo{db: db}
}

// FindByID returns the period, or nil when absent.
func (r *PostgresPeriodRepo) FindByID(ctx context.Context, id string) (*model.Period, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindActive returns the active period, or nil when none is active.
func (r *PostgresPeriodRepo) FindActive(ctx context.Context) (*model.Period, error) {
	p := &model.Period{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, starts_at, ends_at, active, created_at
		 FROM periods WHERE active = TRUE LIMIT 1`,
	).Scan(&p.ID, &p.Name, &p.StartsAt, &p.EndsAt, &p.Active, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active period: %w", err)
	}
	return p, nil
}

func (r *PostgresPeriodRepo) findOne(ctx context.Context, where string, arg any) (*model.Period, error) {
	p := &model.Period{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, starts_at, ends_at, active, created_at FROM periods `+where,
		arg,
	).Scan(&p.ID, &p.Name, &p.StartsAt, &p.EndsAt, &p.Active, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find period: %w", err)
	}
	return p, nil
}

// List returns all periods, newest first.
func (r *PostgresPeriodRepo) List(ctx context.Context) ([]*model.Period, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, starts_at, ends_at, active, created_at
		 FROM periods ORDER BY starts_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []*model.Period
	for rows.Next() {
		p := &model.Period{}
		if err := rows.Scan(&p.ID, &p.Name, &p.StartsAt, &p.EndsAt, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate periods: %w", err)
	}
	return periods, nil
}

// Create inserts a period.
func (r *PostgresPeriodRepo) Create(ctx context.Context, p *model.Period) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO periods (id, name, starts_at, ends_at, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.StartsAt, p.EndsAt, p.Active, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

// Update rewrites the period's name and range.
func (r *PostgresPeriodRepo) Update(ctx context.Context, p *model.Period) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE periods SET name = $2, starts_at = $3, ends_at = $4 WHERE id = $1`,
		p.ID, p.Name, p.StartsAt, p.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update period: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("period not found: %s", p.ID)
	}
	return nil
}

// Activate marks the period active and deactivates all others in one
// transaction.
func (r *PostgresPeriodRepo) Activate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE periods SET active = FALSE WHERE active = TRUE`); err != nil {
		return fmt.Errorf("failed to deactivate periods: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE periods SET active = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to activate period: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("period not found: %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteByID removes the period.
func (r *PostgresPeriodRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("period not found: %s", id)
	}
	return nil
}

// PostgresCareerRepo is the PostgreSQL-backed career repository.
type PostgresCareerRepo struct {
	db *sql.DB
}

// NewPostgresCareerRepo builds a PostgresCareerRepo.
func NewPostgresCareerRepo(db *sql.DB) *PostgresCareerRepo {
	return &PostgresCareerRepo{db: db}
}

// FindByID returns the career, or nil when absent.
func (r *PostgresCareerRepo) FindByID(ctx context.Context, id string) (*model.Career, error) {
	c := &model.Career{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM careers WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find career: %w", err)
	}
	return c, nil
}

// List returns all careers ordered by name.
func (r *PostgresCareerRepo) List(ctx context.Context) ([]*model.Career, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM careers ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list careers: %w", err)
	}
	defer rows.Close()

	var careers []*model.Career
	for rows.Next() {
		c := &model.Career{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan career: %w", err)
		}
		careers = append(careers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate careers: %w", err)
	}
	return careers, nil
}

// Create inserts a career.
func (r *PostgresCareerRepo) Create(ctx context.Context, c *model.Career) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO careers (id, name, created_at) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert career: %w", err)
	}
	return nil
}

// Update renames the career.
func (r *PostgresCareerRepo) Update(ctx context.Context, c *model.Career) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE careers SET name = $2 WHERE id = $1`,
		c.ID, c.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update career: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("career not found: %s", c.ID)
	}
	return nil
}

// DeleteByID removes the career.
func (r *PostgresCareerRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM careers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete career: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("career not found: %s", id)
	}
	return nil
}

// compile-time interface checks
var (
	_ PeriodRepository = (*PostgresPeriodRepo)(nil)
	_ CareerRepository = (*PostgresCareerRepo)(nil)
)
