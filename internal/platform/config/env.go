// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every env tag parsed through this package.
const Prefix = "WAREHOUSE_"

// ParseEnv loads configuration from prefixed environment variables.
func ParseEnv(target any) error {
	return parse(target, env.Options{Prefix: Prefix})
}

func parse(target any, opts env.Options) error {
	if target == nil {
		return fmt.Errorf("parse env: target is required")
	}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
