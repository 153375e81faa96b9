// Package users stores accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/growkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in its id. A taken user name yields
	// common.ErrUserAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}
