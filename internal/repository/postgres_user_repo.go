package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/dquezada/titula/internal/model"
)

// PostgresUserRepo is the PostgreSQL-backed user repository.
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo builds a PostgresUserRepo.
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID returns the user with the given ID, or nil when absent.
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `WHERE u.id = $1`, id)
}

// FindByUsername returns the user with the given username, or nil when absent.
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, `WHERE u.username = $1`, username)
}

// FindByEmail returns the user with the given email, or nil when absent.
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `WHERE u.email = $1`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	user := &model.User{}
	var roles pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.email, u.full_name, u.password_hash,
		        COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}'),
		        u.created_at, u.updated_at
		 FROM users u
		 LEFT JOIN user_roles ur ON ur.user_id = u.id
		 `+where+`
		 GROUP BY u.id`,
		arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&roles, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Roles = roles
	return user, nil
}

// List returns all users ordered by username.
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, u.full_name, u.password_hash,
		        COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}'),
		        u.created_at, u.updated_at
		 FROM users u
		 LEFT JOIN user_roles ur ON ur.user_id = u.id
		 GROUP BY u.id
		 ORDER BY u.username`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		var roles pq.StringArray
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
			&user.PasswordHash, &roles, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Roles = roles
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Create inserts the user and its roles in one transaction.
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, email, full_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if err := insertRoles(ctx, tx, user.ID, user.Roles); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Update rewrites the user's mutable fields and replaces its role set in
// one transaction.
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET username = $2, email = $3, full_name = $4, updated_at = $5
		 WHERE id = $1`,
		user.ID, user.Username, user.Email, user.FullName, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to clear user roles: %w", err)
	}
	if err := insertRoles(ctx, tx, user.ID, user.Roles); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// DeleteByID removes the user. Roles, sessions and reset tokens are removed
// by CASCADE.
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdatePhoto stores the user's profile photo bytes and mime type.
func (r *PostgresUserRepo) UpdatePhoto(ctx context.Context, id string, data []byte, mime string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET photo_data = $2, photo_mime = $3, updated_at = now() WHERE id = $1`,
		id, data, mime,
	)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// FindPhoto returns the stored photo, or nil when the user has none.
func (r *PostgresUserRepo) FindPhoto(ctx context.Context, id string) (*model.ProfilePhoto, error) {
	photo := &model.ProfilePhoto{UserID: id}
	var data []byte
	var mime sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT photo_data, photo_mime FROM users WHERE id = $1`,
		id,
	).Scan(&data, &mime)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find photo: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	photo.Data = data
	photo.Mime = mime.String
	return photo, nil
}

func insertRoles(ctx context.Context, tx *sql.Tx, userID string, roles []string) error {
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
			userID, role,
		); err != nil {
			return fmt.Errorf("failed to insert user role: %w", err)
		}
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
