package session

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures verification of EdDSA-signed session tokens.
type JWTConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// ParseJWTPublicKey decodes a base64 (standard or URL, padded or raw)
// ed25519 public key.
func ParseJWTPublicKey(encoded string) (ed25519.PublicKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("session token public key is required")
	}
	var decoded []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		decoded, err = enc.DecodeString(encoded)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode session token public key: %w", err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("session token public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(decoded), nil
}

// JWTResolver resolves identities from self-contained session tokens.
type JWTResolver struct {
	cfg    JWTConfig
	parser *jwt.Parser
}

type identityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// NewJWTResolver validates cfg and builds a resolver.
func NewJWTResolver(cfg JWTConfig) (*JWTResolver, error) {
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)
	if cfg.Issuer == "" {
		return nil, errors.New("session token issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("session token audience is required")
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		return nil, errors.New("session token public key is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	)
	return &JWTResolver{cfg: cfg, parser: parser}, nil
}

// ResolveIdentity verifies token and maps its claims. Role claims outside
// the closed role set are carried through unchanged; role policies deny them.
func (r *JWTResolver) ResolveIdentity(_ context.Context, token string) (UserIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return UserIdentity{}, ErrUnauthenticated
	}
	var claims identityClaims
	_, err := r.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return r.cfg.Key, nil
	})
	if err != nil {
		return UserIdentity{}, fmt.Errorf("%w: %s", ErrUnauthenticated, describeJWTError(err))
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return UserIdentity{}, fmt.Errorf("%w: token subject is required", ErrUnauthenticated)
	}
	return UserIdentity{
		ID:          subject,
		Email:       strings.TrimSpace(claims.Email),
		DisplayName: strings.TrimSpace(claims.Name),
		Role:        Role(claims.Role),
	}, nil
}

func describeJWTError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrEd25519Verification):
		return "token signature is invalid"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "token alg is invalid"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "token issuer mismatch"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "token audience mismatch"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "token not active yet"
	default:
		return "token is invalid"
	}
}
