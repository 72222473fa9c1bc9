package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"event_chat/internal/domain"
	apperrors "event_chat/pkg/errors"
	"event_chat/pkg/jwt"
	"event_chat/pkg/logger"
)

const (
	ContextUserID   = "user_id"
	ContextUserType = "user_type"
)

// AuthMiddleware validates access tokens issued by the platform's auth
// service. Tokens are never issued here.
type AuthMiddleware struct {
	secret string
	issuer string
	log    logger.Logger
}

func NewAuthMiddleware(secret, issuer string, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: secret,
		issuer: issuer,
		log:    log,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "Authorization header required")
			return
		}

		claims, err := jwt.ValidateToken(token, m.secret, m.issuer)
		if err != nil {
			m.log.Debug("Rejected access token", "error", err, "path", c.Request.URL.Path)
			unauthorized(c, "Invalid or expired token")
			return
		}

		userType := domain.PrincipalType(claims.UserType)
		if claims.UserID == uuid.Nil || !userType.Valid() {
			unauthorized(c, "Invalid token claims")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserType, userType)
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers
// on websocket upgrades, so the token query parameter is accepted there.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if c.IsWebsocket() {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   msg,
		"code":    apperrors.CodeUnauthorized,
	})
}

// UserID returns the authenticated user set by RequireAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func UserType(c *gin.Context) domain.PrincipalType {
	v, ok := c.Get(ContextUserType)
	if !ok {
		return ""
	}
	t, _ := v.(domain.PrincipalType)
	return t
}
