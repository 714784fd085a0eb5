// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/wrangler/internal/collection"
	"github.com/invowk/wrangler/internal/nix"
)

type (
	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath names the file to read; it must exist when set.
		ConfigFilePath string
		// ConfigDirPath replaces the platform config directory.
		ConfigDirPath string
		// IgnoreEnv reports the file alone, without environment overrides.
		IgnoreEnv bool
	}

	// Provider loads configuration.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// LookupFunc has the signature of os.LookupEnv.
	LookupFunc func(key string) (string, bool)

	fileProvider struct{}
)

// NewProvider returns a Provider reading the CUE config file, with
// environment variables taking precedence over it.
func NewProvider() Provider {
	return &fileProvider{}
}

func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrFallback never returns a nil config. When p fails, the result is
// the defaults with the environment overrides from lookup applied, and the
// load error is returned next to it for the caller to report.
func LoadOrFallback(ctx context.Context, p Provider, opts LoadOptions, lookup LookupFunc) (*Config, error) {
	cfg, err := p.Load(ctx, opts)
	if err == nil && cfg != nil {
		return cfg, nil
	}

	fallback := DefaultConfig()
	if envErr := fallback.ApplyEnv(lookup); envErr != nil {
		err = errors.Join(err, envErr)
	}
	return fallback, err
}

// ApplyEnv overlays the environment overrides onto c. Invalid values are
// skipped and reported; the valid ones are still applied. Empty variables
// count as unset.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	var errs []error
	if v := get(EnvMode); v != "" {
		m := Mode(strings.ToLower(strings.TrimSpace(v)))
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMode, err))
		} else {
			c.Mode = m
		}
	}
	if v := get(EnvLogLevel); v != "" {
		if l, err := ParseLogLevel(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		} else {
			c.LogLevel = l
		}
	}
	if get(nix.EnvDisable) != "" {
		c.Nix.Disable = true
	}

	paths := []struct {
		key   string
		field *string
	}{
		{nix.EnvExecutable, &c.Nix.Executable},
		{collection.EnvCollection, &c.Collection.Path},
	}
	for _, p := range paths {
		v := get(p.key)
		if v == "" {
			continue
		}
		expanded, err := expandPath(v, get)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.key, err))
			continue
		}
		*p.field = expanded
	}

	return errors.Join(errs...)
}
