package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/godolist/godo-api/internal/models"
	appErrors "github.com/godolist/godo-api/pkg/errors"
	"github.com/godolist/godo-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated claims.
const ContextUserKey = "currentUser"

// Authenticator resolves a bearer token into claims, checking both the
// signature/expiry and the server-side session record.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JWTClaims, error)
}

// JWT guards a route group: requests without an authoritatively valid
// token are rejected before any handler runs. Public routes simply do not
// mount this middleware.
//
// Every rejection is a uniform 401 to the client; the specific reason
// (absent, malformed, expired, revoked) only reaches the logs.
func JWT(auth Authenticator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, ok := ExtractBearer(c.GetHeader("Authorization"))
		if !ok {
			// No storage or verifier call for absent/malformed headers.
			logger.Debug("request rejected: no bearer token",
				zap.String("path", c.Request.URL.Path))
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			appErr := appErrors.FromError(err)
			logger.Warn("request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("reason", appErr.Code),
				zap.Error(err))
			if appErr.Status >= 500 {
				response.Error(c, err)
			} else {
				response.Error(c, appErrors.ErrUnauthorized)
			}
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// ExtractBearer returns the token from an Authorization header value. The
// format must be exactly "Bearer <token>"; anything else counts as absent.
func ExtractBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
