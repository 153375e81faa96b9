package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/growkeeper/internal/api"
	"github.com/dmitrijs2005/growkeeper/internal/logging"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/server/models"
	"github.com/dmitrijs2005/growkeeper/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (string, error)
}

type SyncService interface {
	Pull(ctx context.Context, since time.Time) (*schema.Changes, error)
	Push(ctx context.Context, changes schema.Changes) (time.Time, error)
}

type PhotoService interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix, cursor string) ([]services.StoredPhoto, string, error)
	MaxSize() int64
}

type Handler struct {
	users  UserService
	sync   SyncService
	photos PhotoService
	logger logging.Logger
}

func NewHandler(us UserService, ss SyncService, ps PhotoService, l logging.Logger) *Handler {
	return &Handler{users: us, sync: ss, photos: ps, logger: l}
}

// NewRouter wires the routes. Everything except /healthz and /auth/* needs a
// bearer access token.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.GET(api.PathHealth, func(c *gin.Context) {
		c.JSON(200, api.HealthResponse{Status: "ok"})
	})

	r.POST(api.PathRegister, h.Register)
	r.POST(api.PathSalt, h.Salt)
	r.POST(api.PathLogin, h.Login)
	r.POST(api.PathRefresh, h.Refresh)

	authed := r.Group("/")
	authed.Use(bearerAuth(h.users))
	{
		authed.POST(api.PathPull, h.Pull)
		authed.POST(api.PathPush, h.Push)
		authed.POST(api.PathPhotos, h.UploadPhoto)
		authed.GET(api.PathPhotos, h.ListPhotos)
		authed.GET(api.PathPhotos+"/*key", h.GetPhoto)
		authed.DELETE(api.PathPhotos+"/*key", h.DeletePhoto)
	}
	return r
}
