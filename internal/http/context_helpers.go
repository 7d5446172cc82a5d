package httpx

import (
	"context"

	domainauth "github.com/rowhq/fieldproof/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// sessionOrGuest returns the context session, or a guest session when absent.
// Handlers behind RequireAuth always see the real session; this keeps the
// service calls total either way.
func sessionOrGuest(ctx context.Context) domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return *s
	}
	return domainauth.Session{Role: domainauth.RoleGuest}
}
