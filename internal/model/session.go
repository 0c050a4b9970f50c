package model

import (
	"context"

	"github.com/google/uuid"
)

// RoleAdmin grants access to the back-office endpoints.
const RoleAdmin = "admin"

// Session is the authenticated caller of one request.
type Session struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

// IsAdmin reports whether the caller may manage content.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the caller stored by WithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
