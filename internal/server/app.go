// Package server wires the sync server together: Postgres storage, the
// photo bucket, the JSON API and the gRPC health endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/server/config"
	gs "github.com/dmitrijs2005/growkeeper/internal/server/grpc"
	"github.com/dmitrijs2005/growkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/growkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/growkeeper/internal/server/services"
)

const tokenPruneInterval = time.Hour

// openDB is a seam so tests can run the app without Postgres.
var openDB = repomanager.OpenDB

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	httpServer  *httpapi.Server
	grpcServer  *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger()

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	ps, err := services.NewPhotoService(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	us := services.NewUserService(db, rm, c)
	ss := services.NewSyncService(db, rm, logger)

	router := httpapi.NewRouter(httpapi.NewHandler(us, ss, ps, logger))

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		userService: us,
		httpServer:  httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
		grpcServer:  gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db, c.HealthCheckInterval),
	}, nil
}

// Run serves HTTP and gRPC until ctx is cancelled or one of them fails.
func (app *App) Run(ctx context.Context) error {
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(ctx) })
	g.Go(func() error { return app.grpcServer.Run(ctx) })
	g.Go(func() error {
		app.pruneTokens(ctx)
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) pruneTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PruneRefreshTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "refresh token prune failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired refresh tokens pruned", "count", n)
			}
		}
	}
}
