package session

import (
	"context"
	"strings"
)

// UserIdentity is the authenticated principal behind a session.
type UserIdentity struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
}

// Session is the authentication state at one point in time.
//
// Loading is true while the provider has not finished resolving identity;
// User is meaningless until it turns false.
type Session struct {
	User    *UserIdentity
	Loading bool
}

// Pending returns a session that is still being resolved.
func Pending() Session {
	return Session{Loading: true}
}

// Anonymous returns a resolved session without an identity.
func Anonymous() Session {
	return Session{}
}

// Authenticated returns a resolved session for user. The identity is copied.
func Authenticated(user UserIdentity) Session {
	return Session{User: &user}
}

// IsAuthenticated reports whether s is resolved and carries an identity.
func (s Session) IsAuthenticated() bool {
	return !s.Loading && s.User != nil && strings.TrimSpace(s.User.ID) != ""
}

// Equal compares two sessions by value.
func (s Session) Equal(other Session) bool {
	if s.Loading != other.Loading {
		return false
	}
	if s.User == nil || other.User == nil {
		return s.User == nil && other.User == nil
	}
	return *s.User == *other.User
}

func (s Session) clone() Session {
	if s.User == nil {
		return s
	}
	user := *s.User
	return Session{User: &user, Loading: s.Loading}
}

type identityContextKey struct{}

// WithIdentity stores the identity a request was authorized with.
func WithIdentity(ctx context.Context, user UserIdentity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, user)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (UserIdentity, bool) {
	if ctx == nil {
		return UserIdentity{}, false
	}
	user, ok := ctx.Value(identityContextKey{}).(UserIdentity)
	return user, ok
}
