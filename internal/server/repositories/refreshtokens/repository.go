// Package refreshtokens stores the server side of refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// Consume deletes the token and returns what it was. A token can be
	// consumed once; a second call yields common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteExpired removes tokens that expired before now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
