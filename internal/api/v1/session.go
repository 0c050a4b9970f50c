package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kidbloom/internal/logging"
	"kidbloom/internal/model"
)

// Session headers set by the authenticating proxy in front of the API.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

const ginSessionKey = "session"

// SessionMiddleware reads the caller from the session headers and stores it
// in the gin and request contexts. Requests without a valid user id continue
// anonymously.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, codeUnauthorized, "invalid user id")
			return
		}

		session := &model.Session{UserID: id, Role: strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderRole)))}
		c.Set(ginSessionKey, session)

		ctx := model.WithSession(c.Request.Context(), session)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithFields(logrus.Fields{"user_id": id}))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func sessionOf(c *gin.Context) *model.Session {
	if v, ok := c.Get(ginSessionKey); ok {
		if s, ok := v.(*model.Session); ok {
			return s
		}
	}
	return nil
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionOf(c) == nil {
			errorResponse(c, http.StatusUnauthorized, codeUnauthorized, "sign in required")
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessionOf(c)
		if s == nil {
			errorResponse(c, http.StatusUnauthorized, codeUnauthorized, "sign in required")
			return
		}
		if !s.IsAdmin() {
			errorResponse(c, http.StatusForbidden, codeForbidden, "admin role required")
			return
		}
		c.Next()
	}
}
