package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/client/config"
	"github.com/dmitrijs2005/growkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/growkeeper/internal/client/repositories/rows"
	"github.com/dmitrijs2005/growkeeper/internal/client/services"
	"github.com/dmitrijs2005/growkeeper/internal/client/state"
	"github.com/dmitrijs2005/growkeeper/internal/filex"
	"github.com/dmitrijs2005/growkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// syncRunner is satisfied by *services.Trigger.
type syncRunner interface {
	Run(ctx context.Context) (services.SyncResult, error)
}

// sessionView is the persisted client state as the REPL sees it.
type sessionView interface {
	Watermark() time.Time
	ResetWatermark(ctx context.Context) error
	UserName() string
	LoggedIn() bool
}

type App struct {
	config      *config.Config
	authService services.AuthService
	trigger     syncRunner
	rows        rows.Repository
	session     sessionView
	logger      logging.Logger
	photosDir   string
	reader      *bufio.Reader
	out         io.Writer
	closers     []io.Closer

	mu   sync.RWMutex
	mode Mode
}

// NewApp opens the local database, restores the persisted session and wires
// the services used by the REPL.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser := logging.NewFileLogger(c.LogFile, slog.LevelInfo)

	photosDir, err := filex.EnsureDir(c.PhotosDir)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		_ = logCloser.Close()
		return nil, err
	}

	st := state.New(metadata.NewSQLiteRepository(db))
	if err := st.Load(ctx); err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, st)
	repo := rows.NewSQLiteRepository(db)
	syncService := services.NewSyncService(apiClient, repo, st, photosDir, logger.With("component", "sync"))

	return &App{
		config:      c,
		authService: services.NewAuthService(apiClient, st),
		trigger:     services.NewTrigger(syncService),
		rows:        repo,
		session:     st,
		logger:      logger,
		photosDir:   photosDir,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		closers:     []io.Closer{db, logCloser},
		mode:        ModeOffline,
	}, nil
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// setMode reports whether the mode actually changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == mode {
		return false
	}
	a.mode = mode
	a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	return true
}

func (a *App) isLoggedIn() bool {
	return a.session != nil && a.session.LoggedIn()
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to GrowKeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

func (a *App) getStatus() string {
	s := ""
	if a.session != nil && a.session.UserName() != "" {
		s = a.session.UserName() + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// connectivity mode. When the server comes back and a user is logged in, a
// background sync is started; the trigger drops it if one is already running.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	if a.setMode(ModeOnline) && a.isLoggedIn() {
		go a.backgroundSync(ctx)
	}
}

func (a *App) backgroundSync(ctx context.Context) {
	res, err := a.trigger.Run(ctx)
	if err != nil {
		a.logger.Warn(ctx, "background sync failed", "error", err)
		return
	}
	a.logger.Info(ctx, "background sync finished",
		"pulled", res.Pulled, "pushed", res.Pushed, "photos", res.PhotosUploaded)
}
