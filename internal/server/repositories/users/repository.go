// Package users declares the credential store contract for user records
// and its PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/glowup/internal/server/models"
)

// Repository persists user credential records.
type Repository interface {
	// Create inserts a user with an already normalized email and a password
	// hash. A duplicate email yields common.ErrConflict.
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)

	// FindByEmail returns common.ErrNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID returns common.ErrNotFound when the id is unknown.
	FindByID(ctx context.Context, id int64) (*models.User, error)
}
