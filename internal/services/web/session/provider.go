package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/warehouse/internal/services/web/platform/errors"
)

const (
	defaultResolveTimeout  = 3 * time.Second
	defaultTTL             = 5 * time.Minute
	defaultRevokeRetention = 24 * time.Hour
)

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// Resolver maps tokens to identities. A nil resolver treats every token
	// as anonymous.
	Resolver IdentityResolver
	// ResolveTimeout caps one resolver call.
	ResolveTimeout time.Duration
	// SettleTimeout is how long Snapshot waits for a pending session.
	SettleTimeout time.Duration
	// TTL is how long a resolved session is reused before it is resolved
	// again in the background.
	TTL time.Duration
	// RevokeRetention is how long a revoked session key stays anonymous
	// regardless of what the resolver says. It should outlive the longest
	// token lifetime.
	RevokeRetention time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// Provider publishes one Session per session token and resolves identities
// asynchronously. The first lookup of a token publishes a pending session;
// the outcome of resolution is published when it finishes.
type Provider struct {
	cfg ProviderConfig

	mu        sync.Mutex
	entries   map[string]*entry
	revoked   map[string]time.Time
	lastSweep time.Time
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	token      string
	publisher  *Publisher
	generation uint64
	resolving  bool
	failed     bool
	resolvedAt time.Time
}

// NewProvider returns a provider ready to serve lookups.
func NewProvider(cfg ProviderConfig) *Provider {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = defaultResolveTimeout
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.RevokeRetention <= 0 {
		cfg.RevokeRetention = defaultRevokeRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Provider{
		cfg:       cfg,
		entries:   make(map[string]*entry),
		revoked:   make(map[string]time.Time),
		lastSweep: cfg.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Source returns the observable session for token, starting resolution when
// the token is new, its last resolution failed, or its result is stale.
// Revoked tokens stay anonymous and are never resolved.
func (p *Provider) Source(token string) Source {
	token = strings.TrimSpace(token)
	if token == "" || p == nil {
		return Static(Anonymous())
	}
	key := Key(token)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Static(Anonymous())
	}
	now := p.cfg.Now()
	p.sweepLocked(now)

	e, ok := p.entries[key]
	if p.isRevokedLocked(key, now) {
		if !ok {
			e = &entry{token: token, publisher: NewPublisher(Anonymous()), resolvedAt: now}
			p.entries[key] = e
		}
		return e.publisher
	}
	if !ok {
		e = &entry{token: token, publisher: NewPublisher(Pending())}
		p.entries[key] = e
		p.startLocked(key, e)
		return e.publisher
	}
	if !e.resolving && (e.failed || now.Sub(e.resolvedAt) >= p.cfg.TTL) {
		p.startLocked(key, e)
	}
	return e.publisher
}

// Snapshot returns the session for token, waiting up to SettleTimeout for a
// pending session to resolve. It never waits past ctx.
func (p *Provider) Snapshot(ctx context.Context, token string) Session {
	src := p.Source(token)
	current := src.Current()
	if !current.Loading || p == nil || p.cfg.SettleTimeout <= 0 {
		return current
	}
	if ctx == nil {
		ctx = context.Background()
	}

	updates, unsubscribe := src.Subscribe()
	defer unsubscribe()
	if current = src.Current(); !current.Loading {
		return current
	}

	timer := time.NewTimer(p.cfg.SettleTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return src.Current()
		case <-timer.C:
			return src.Current()
		case next, ok := <-updates:
			if !ok || !next.Loading {
				return src.Current()
			}
		}
	}
}

// Refresh re-resolves the session stored under key, keeping the current
// value published until the new result arrives. It reports whether key is
// known. Revoked keys are left anonymous.
func (p *Provider) Refresh(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok || p.closed {
		return false
	}
	if p.isRevokedLocked(key, p.cfg.Now()) {
		return true
	}
	p.startLocked(key, e)
	return true
}

// Revoke publishes an anonymous session for key, discards any in-flight
// resolution and keeps key anonymous for RevokeRetention, including when
// this instance has not seen it yet. It reports whether key is known.
func (p *Provider) Revoke(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	now := p.cfg.Now()
	p.revoked[key] = now.Add(p.cfg.RevokeRetention)
	e, ok := p.entries[key]
	if !ok {
		return false
	}
	e.generation++
	e.resolving = false
	e.failed = false
	e.resolvedAt = now
	e.publisher.Publish(Anonymous())
	return true
}

func (p *Provider) isRevokedLocked(key string, now time.Time) bool {
	until, ok := p.revoked[key]
	if !ok {
		return false
	}
	if !now.Before(until) {
		delete(p.revoked, key)
		return false
	}
	return true
}

// Close stops in-flight resolutions and ends every subscription.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for key, e := range p.entries {
		e.publisher.Close()
		delete(p.entries, key)
	}
}

func (p *Provider) startLocked(key string, e *entry) {
	if _, revoked := p.revoked[key]; revoked {
		return
	}
	e.generation++
	e.resolving = true
	generation := e.generation
	token := e.token

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		user, err := p.resolve(token)
		p.finish(key, e, generation, user, err)
	}()
}

func (p *Provider) resolve(token string) (UserIdentity, error) {
	if p.cfg.Resolver == nil {
		return UserIdentity{}, ErrUnauthenticated
	}
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.ResolveTimeout)
	defer cancel()
	return p.cfg.Resolver.ResolveIdentity(ctx, token)
}

func (p *Provider) finish(key string, e *entry, generation uint64, user UserIdentity, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || e.generation != generation || p.entries[key] != e {
		return
	}
	e.resolving = false
	switch {
	case err == nil:
		e.failed = false
		e.resolvedAt = p.cfg.Now()
		e.publisher.Publish(Authenticated(user))
	case errors.Is(err, ErrUnauthenticated):
		e.failed = false
		e.resolvedAt = p.cfg.Now()
		e.publisher.Publish(Anonymous())
	default:
		// The provider is unavailable: leave the last published session in
		// place and retry on the next lookup.
		e.failed = true
		log.Printf("session: resolve failed key=%s kind=%s err=%v", shortKey(key), apperrors.KindOf(err), err)
	}
}

// sweepLocked drops stale sessions nobody is watching. It runs at most once
// per TTL and only as a side effect of lookups.
func (p *Provider) sweepLocked(now time.Time) {
	if now.Sub(p.lastSweep) < p.cfg.TTL {
		return
	}
	p.lastSweep = now
	for key, until := range p.revoked {
		if !now.Before(until) {
			delete(p.revoked, key)
		}
	}
	for key, e := range p.entries {
		if e.resolving || e.publisher.Subscribers() > 0 {
			continue
		}
		if now.Sub(e.resolvedAt) < 2*p.cfg.TTL {
			continue
		}
		e.publisher.Close()
		delete(p.entries, key)
	}
}

func shortKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:12]
}
