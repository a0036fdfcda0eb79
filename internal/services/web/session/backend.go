package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/louisbranch/warehouse/internal/services/web/platform/errors"
)

const backendIdentityPath = "/api/users/me"

// maxIdentityBody bounds the identity payload read from the backend.
const maxIdentityBody = 64 << 10

// BackendResolver resolves identities by asking the warehouse backend who a
// bearer token belongs to.
type BackendResolver struct {
	endpoint string
	client   *http.Client
}

type backendUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// NewBackendResolver builds a resolver for the backend rooted at baseURL.
func NewBackendResolver(baseURL string, client *http.Client) (*BackendResolver, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("backend base url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend base url must be http or https, got %q", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendResolver{
		endpoint: strings.TrimSuffix(parsed.String(), "/") + backendIdentityPath,
		client:   client,
	}, nil
}

// ResolveIdentity implements IdentityResolver.
func (r *BackendResolver) ResolveIdentity(ctx context.Context, token string) (UserIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return UserIdentity{}, ErrUnauthenticated
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return UserIdentity{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return UserIdentity{}, apperrors.Wrap(apperrors.KindUnavailable, fmt.Errorf("request identity: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return UserIdentity{}, fmt.Errorf("%w: backend status %d", ErrUnauthenticated, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		err := fmt.Errorf("request identity: backend status %d", resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError {
			return UserIdentity{}, apperrors.Wrap(apperrors.KindUnavailable, err)
		}
		return UserIdentity{}, err
	}

	var user backendUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityBody)).Decode(&user); err != nil {
		return UserIdentity{}, fmt.Errorf("decode identity: %w", err)
	}
	id := strings.TrimSpace(user.ID)
	if id == "" {
		return UserIdentity{}, fmt.Errorf("%w: backend returned no user id", ErrUnauthenticated)
	}
	return UserIdentity{
		ID:          id,
		Email:       strings.TrimSpace(user.Email),
		DisplayName: strings.TrimSpace(user.DisplayName),
		Role:        Role(user.Role),
	}, nil
}
