package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/logging"
)

const userIDKey = "userID"

func UserIDFromContext(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// bearerAuth accepts "Authorization: Bearer <jwt>". An expired token gets
// 401 "token expired" so clients know to refresh instead of logging in again.
func bearerAuth(users UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader(common.AuthorizationHeader))
		if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
			abortWithError(c, http.StatusUnauthorized, common.ErrorUnauthorized)
			return
		}

		userID, err := users.Authenticate(strings.TrimSpace(h[len(common.BearerPrefix):]))
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, common.ErrTokenExpired)
				return
			}
			abortWithError(c, http.StatusUnauthorized, common.ErrorUnauthorized)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func requestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"user_id", UserIDFromContext(c),
		)
	}
}
