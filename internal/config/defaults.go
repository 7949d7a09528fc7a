package config

import (
	"path/filepath"
	"strings"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// appliers run in order; later domains may rely on earlier ones.
var appliers = []DefaultApplier{
	&PathsDefaultApplier{},
	&SiteDefaultApplier{},
	&StateDefaultApplier{},
}

// ApplyDefaults fills every unset field that has a default.
func ApplyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// PathsDefaultApplier handles directory and glob defaults.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.ContentDir == "" {
		cfg.ContentDir = "content"
	}
	if cfg.PublicDir == "" {
		cfg.PublicDir = "public"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "dist"
	}
	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**"}
	}
	cfg.Exclude = appendMissing(cfg.Exclude, "**/node_modules/**")
	return nil
}

// SiteDefaultApplier handles site identity and artifact defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Host = strings.TrimSuffix(cfg.Host, "/")
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.DraftPolicy == "" {
		cfg.DraftPolicy = "ci"
	}
	if cfg.Search != nil && cfg.Search.OutputDir == "" {
		cfg.Search.OutputDir = "_search"
	}
	return nil
}

// StateDefaultApplier handles rebuild cache defaults.
type StateDefaultApplier struct{}

func (s *StateDefaultApplier) Domain() string { return "state" }

func (s *StateDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.State.Path == "" {
		cfg.State.Path = filepath.Join(".mdsite", "state.db")
	}
	return nil
}

func appendMissing(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
