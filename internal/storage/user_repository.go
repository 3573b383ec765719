package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/inventory-hub/internal/errors"
	"github.com/inventory-hub/internal/types"
)

// UserRepository looks up account records for session resolution
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser returns the identity for a user id, nil when the user does
// not exist.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*types.Identity, error) {
	query := `SELECT id, email FROM users WHERE id = $1`

	var identity types.Identity
	err := r.db.Pool().QueryRow(ctx, query, userID).Scan(&identity.UserID, &identity.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Classify("get user", err)
	}

	return &identity, nil
}
