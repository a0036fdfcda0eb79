// Package module defines what a feature hands to the composer: a path prefix
// and the handler serving everything beneath it. Whether the prefix is gated
// is decided by the route table at composition time, not by the module.
package module

import "net/http"

// Mount is a prefix and the handler that owns it. Prefix ends in "/".
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module is a mountable feature.
type Module interface {
	// ID names the module in composition errors.
	ID() string
	Mount() (Mount, error)
}
