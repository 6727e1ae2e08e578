package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

const (
	CtxUserIDKey   = "userID"
	CtxUsernameKey = "username"

	bearerPrefix = "Bearer "
)

// Identity is the per-request authentication gate. It reads the
// Authorization header, validates the bearer token and attaches the caller's
// identity to the context. It never rejects: on any failure (missing header,
// wrong prefix, malformed or expired token, unknown user) the request simply
// proceeds unauthenticated and downstream authorization decides.
func Identity(codec *helpers.TokenCodec, users repository.UserRepository, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			c.Next()
			return
		}
		token := header[len(bearerPrefix):]

		username, err := codec.ExtractUsername(token)
		if err != nil {
			if errors.Is(err, helpers.ErrTokenExpired) {
				logger.Debug("expired bearer token")
			}
			c.Next()
			return
		}

		// Identity already attached earlier in the chain wins.
		if _, ok := c.Get(CtxUsernameKey); ok {
			c.Next()
			return
		}

		u, err := users.FindByUsername(c.Request.Context(), username)
		if err != nil || u == nil {
			c.Next()
			return
		}
		if !codec.Validate(token, u.Username) {
			c.Next()
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUsernameKey, u.Username)
		c.Next()
	}
}
