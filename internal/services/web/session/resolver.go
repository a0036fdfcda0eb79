package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrUnauthenticated reports that a token does not map to a valid identity.
// Any other resolver error is treated as the provider being unavailable.
var ErrUnauthenticated = errors.New("session is not authenticated")

// IdentityResolver turns a session token into the identity it belongs to.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (UserIdentity, error)
}

// ResolverFunc adapts a function to IdentityResolver.
type ResolverFunc func(ctx context.Context, token string) (UserIdentity, error)

// ResolveIdentity calls f.
func (f ResolverFunc) ResolveIdentity(ctx context.Context, token string) (UserIdentity, error) {
	return f(ctx, token)
}

// Key derives the provider key for a token. Raw tokens never leave the
// provider; change feeds and logs refer to sessions by key.
func Key(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
