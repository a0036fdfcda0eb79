// Package timeouts defines shared timeout constants used across the front-end.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SessionResolve caps a single identity lookup against the auth provider.
const SessionResolve = 3 * time.Second

// SessionSettle is how long a page request waits for a pending session
// before the loading placeholder is served instead.
const SessionSettle = 250 * time.Millisecond

// SessionTTL bounds how long a resolved session is reused before it is
// resolved again.
const SessionTTL = 5 * time.Minute

// PolicyReloadDebounce delays route table reloads until writes go quiet.
const PolicyReloadDebounce = 500 * time.Millisecond
