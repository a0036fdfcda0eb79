// Package web parses web command configuration and wires the session
// provider, route table and HTTP server.
package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/warehouse/internal/platform/cmd"
	"github.com/louisbranch/warehouse/internal/platform/timeouts"
	"github.com/louisbranch/warehouse/internal/services/web"
	"github.com/louisbranch/warehouse/internal/services/web/app"
	"github.com/louisbranch/warehouse/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/warehouse/internal/services/web/routetable"
	"github.com/louisbranch/warehouse/internal/services/web/session"
	"github.com/redis/go-redis/v9"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr            string        `env:"WEB_HTTP_ADDR"              envDefault:"localhost:8080"`
	TrustForwardedProto bool          `env:"WEB_TRUST_FORWARDED_PROTO"`
	RouteTable          string        `env:"WEB_ROUTE_TABLE"`
	JWTPublicKey        string        `env:"WEB_SESSION_PUBLIC_KEY"`
	JWTIssuer           string        `env:"WEB_SESSION_ISSUER"`
	JWTAudience         string        `env:"WEB_SESSION_AUDIENCE"`
	BackendURL          string        `env:"WEB_BACKEND_URL"`
	RedisAddr           string        `env:"WEB_REDIS_ADDR"`
	FeedChannel         string        `env:"WEB_SESSION_FEED_CHANNEL"   envDefault:"warehouse:sessions"`
	SessionSettle       time.Duration `env:"WEB_SESSION_SETTLE"         envDefault:"250ms"`
	SessionTTL          time.Duration `env:"WEB_SESSION_TTL"            envDefault:"5m"`
	RevokeRetention     time.Duration `env:"WEB_SESSION_REVOKE_RETENTION" envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "trust X-Forwarded-Proto from the fronting proxy")
	fs.StringVar(&cfg.RouteTable, "route-table", cfg.RouteTable, "YAML route table; reloaded on change (built-in table when empty)")
	fs.StringVar(&cfg.JWTPublicKey, "session-public-key", cfg.JWTPublicKey, "base64 ed25519 key verifying session tokens")
	fs.StringVar(&cfg.JWTIssuer, "session-issuer", cfg.JWTIssuer, "required session token issuer")
	fs.StringVar(&cfg.JWTAudience, "session-audience", cfg.JWTAudience, "required session token audience")
	fs.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "warehouse backend base URL for identity lookups")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for session change announcements")
	fs.StringVar(&cfg.FeedChannel, "session-feed-channel", cfg.FeedChannel, "Redis channel carrying session changes")
	fs.DurationVar(&cfg.SessionSettle, "session-settle", cfg.SessionSettle, "how long a page waits for a resolving session")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "how long a resolved session is reused")
	fs.DurationVar(&cfg.RevokeRetention, "session-revoke-retention", cfg.RevokeRetention, "how long a revoked session stays signed out; outlive the token lifetime")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the web server and its background session and route feeds.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		resolver, err := newResolver(cfg)
		if err != nil {
			return err
		}
		provider := session.NewProvider(session.ProviderConfig{
			Resolver:        resolver,
			ResolveTimeout:  timeouts.SessionResolve,
			SettleTimeout:   cfg.SessionSettle,
			TTL:             cfg.SessionTTL,
			RevokeRetention: cfg.RevokeRetention,
		})
		defer provider.Close()

		routes, err := newRoutes(ctx, cfg)
		if err != nil {
			return err
		}

		if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
			client := redis.NewClient(&redis.Options{Addr: addr})
			defer func() {
				if err := client.Close(); err != nil {
					log.Printf("close redis client: %v", err)
				}
			}()
			feed, err := session.NewRedisFeed(client, cfg.FeedChannel, provider)
			if err != nil {
				return fmt.Errorf("init session feed: %w", err)
			}
			go func() {
				if err := feed.Run(ctx); err != nil {
					log.Printf("session feed stopped: %v", err)
				}
			}()
		}

		server, err := web.NewServer(ctx, web.Config{
			HTTPAddr:            cfg.HTTPAddr,
			Routes:              routes,
			Sessions:            provider,
			RequestSchemePolicy: requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
		})
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

// newResolver prefers local token verification and falls back to asking the
// backend.
func newResolver(cfg Config) (session.IdentityResolver, error) {
	if strings.TrimSpace(cfg.JWTPublicKey) != "" {
		key, err := session.ParseJWTPublicKey(cfg.JWTPublicKey)
		if err != nil {
			return nil, err
		}
		resolver, err := session.NewJWTResolver(session.JWTConfig{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Key:      key,
		})
		if err != nil {
			return nil, fmt.Errorf("init session token resolver: %w", err)
		}
		return resolver, nil
	}
	if strings.TrimSpace(cfg.BackendURL) != "" {
		resolver, err := session.NewBackendResolver(cfg.BackendURL, &http.Client{Timeout: timeouts.SessionResolve})
		if err != nil {
			return nil, fmt.Errorf("init backend resolver: %w", err)
		}
		return resolver, nil
	}
	return nil, errors.New("a session public key or backend url is required")
}

func newRoutes(ctx context.Context, cfg Config) (app.GateLookup, error) {
	path := strings.TrimSpace(cfg.RouteTable)
	if path == "" {
		return routetable.Default(), nil
	}
	watcher, err := routetable.NewWatcher(path, timeouts.PolicyReloadDebounce, log.Default())
	if err != nil {
		return nil, fmt.Errorf("load route table: %w", err)
	}
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Printf("route table watcher stopped: %v", err)
		}
	}()
	return watcher, nil
}
