// Package refreshtokens declares the storage contract for refresh token
// records and its PostgreSQL implementation.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/glowup/internal/server/models"
)

// Repository stores single-use refresh tokens.
type Repository interface {
	// Create stores token for userID, valid until expiresAt. A token string
	// that already exists yields common.ErrConflict.
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error)

	// Find returns common.ErrNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes the token and returns the removed record. It is atomic:
	// of several concurrent deletes of the same token exactly one gets the
	// record, the others get common.ErrNotFound.
	Delete(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteExpired removes every token with expires_at before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteByUser removes every token owned by userID.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}
