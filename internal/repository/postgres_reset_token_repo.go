package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dquezada/titula/internal/model"
)

// PostgresResetTokenRepo is the PostgreSQL-backed reset token repository.
type PostgresResetTokenRepo struct {
	db *sql.DB
}

// NewPostgresResetTokenRepo builds a PostgresResetTokenRepo.
func NewPostgresResetTokenRepo(db *sql.DB) *PostgresResetTokenRepo {
	return &PostgresResetTokenRepo{db: db}
}

// Create inserts a reset token.
func (r *PostgresResetTokenRepo) Create(ctx context.Context, token *model.PasswordResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (token_hash, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.TokenHash, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// Consume marks the token used and returns it. The UPDATE's WHERE clause
// makes consumption atomic: a second caller sees zero rows.
func (r *PostgresResetTokenRepo) Consume(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	token := &model.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE password_reset_tokens
		 SET used_at = now()
		 WHERE token_hash = $1 AND expires_at > now() AND used_at IS NULL
		 RETURNING token_hash, user_id, expires_at, created_at`,
		tokenHash,
	).Scan(&token.TokenHash, &token.UserID, &token.ExpiresAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	return token, nil
}

// compile-time interface check
var _ ResetTokenRepository = (*PostgresResetTokenRepo)(nil)
