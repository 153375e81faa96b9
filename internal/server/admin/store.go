// Package admin implements the operator commands of cmd/admin. They talk to
// the server database directly and never go through the JSON API.
package admin

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/server/config"
	"github.com/dmitrijs2005/growkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/growkeeper/internal/server/services"
)

// Store is what the commands need from the server database.
type Store interface {
	Migrate(ctx context.Context) error
	AddUser(ctx context.Context, name string, salt, verifier []byte) (string, error)
	CountUsers(ctx context.Context) (int64, error)
	TombstoneCounts(ctx context.Context) (map[string]int64, error)
	PruneRefreshTokens(ctx context.Context) (int64, error)
	Close() error
}

// Opener connects to the database named by dsn.
type Opener func(ctx context.Context, dsn string) (Store, error)

type postgresStore struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	users *services.UserService
	sync  *services.SyncService
}

// OpenPostgres is the Opener used by cmd/admin.
func OpenPostgres(ctx context.Context, dsn string) (Store, error) {
	db, err := repomanager.OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = dsn

	rm := repomanager.NewPostgresRepositoryManager()
	return &postgresStore{
		db:    db,
		rm:    rm,
		users: services.NewUserService(db, rm, cfg),
		sync:  services.NewSyncService(db, rm, logging.NewDiscardLogger()),
	}, nil
}

func (s *postgresStore) Migrate(ctx context.Context) error {
	return s.rm.RunMigrations(ctx, s.db)
}

func (s *postgresStore) AddUser(ctx context.Context, name string, salt, verifier []byte) (string, error) {
	u, err := s.users.Register(ctx, name, salt, verifier)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func (s *postgresStore) CountUsers(ctx context.Context) (int64, error) {
	return s.users.CountUsers(ctx)
}

func (s *postgresStore) TombstoneCounts(ctx context.Context) (map[string]int64, error) {
	return s.sync.TombstoneCounts(ctx)
}

func (s *postgresStore) PruneRefreshTokens(ctx context.Context) (int64, error) {
	return s.users.PruneRefreshTokens(ctx)
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
