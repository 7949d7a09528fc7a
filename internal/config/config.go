// Package config loads the site configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "mdsite.yaml"

// Config represents the site configuration.
type Config struct {
	ContentDir string   `yaml:"contentDir"`
	PublicDir  string   `yaml:"publicDir"`
	OutputDir  string   `yaml:"outputDir"`
	Include    []string `yaml:"include,omitempty"` // doublestar globs, relative to each content dir
	Exclude    []string `yaml:"exclude,omitempty"`

	Host     string   `yaml:"host,omitempty"` // scheme and authority, no trailing slash
	Name     string   `yaml:"name,omitempty"`
	Language string   `yaml:"language"`
	Manifest Manifest `yaml:"manifest,omitempty"`

	Sitemap *bool         `yaml:"sitemap,omitempty"`
	Feed    *FeedConfig   `yaml:"feed,omitempty"`
	Search  *SearchConfig `yaml:"search,omitempty"`

	Defaults   meta.Defaults     `yaml:"defaults,omitempty"`
	Types      []meta.TypeRule   `yaml:"types,omitempty"`
	Layouts    map[string]string `yaml:"layouts,omitempty"`    // type or layout name -> template file
	Directives map[string]string `yaml:"directives,omitempty"` // directive name -> template file

	DraftPolicy string `yaml:"draftPolicy,omitempty"`
	Format      bool   `yaml:"format,omitempty"`
	Bundle      *bool  `yaml:"bundle,omitempty"`
	FailFast    bool   `yaml:"failFast,omitempty"`
	GitInfo     bool   `yaml:"gitInfo,omitempty"`

	State   StateConfig   `yaml:"state,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
	Verbose bool          `yaml:"verbose,omitempty"`
}

// FeedConfig configures the RSS feed.
type FeedConfig struct {
	Pathname    string   `yaml:"pathname"`
	Title       string   `yaml:"title,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	Types       []string `yaml:"types,omitempty"` // document types included; empty means all
}

// SearchConfig configures the search index.
type SearchConfig struct {
	OutputDir string   `yaml:"outputDir,omitempty"`
	Types     []string `yaml:"types,omitempty"`
}

// StateConfig configures the rebuild cache.
type StateConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Ignore   []string `yaml:"ignore,omitempty"`
	Schedule string   `yaml:"schedule,omitempty"` // Go duration between full rebuilds
}

// Manifest is the web app manifest path. In YAML it may also be a boolean:
// true selects the default path and false disables the manifest.
type Manifest string

// DefaultManifest is the path used for `manifest: true`.
const DefaultManifest Manifest = "/manifest.webmanifest"

func (m *Manifest) UnmarshalYAML(node *yaml.Node) error {
	var b bool
	if node.Tag == "!!bool" {
		if err := node.Decode(&b); err != nil {
			return err
		}
		*m = ""
		if b {
			*m = DefaultManifest
		}
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*m = Manifest(s)
	return nil
}

// SitemapEnabled reports whether the sitemap is written. Defaults to true.
func (c *Config) SitemapEnabled() bool {
	return c.Sitemap == nil || *c.Sitemap
}

// BundleEnabled reports whether type assets are bundled. Defaults to true.
func (c *Config) BundleEnabled() bool {
	return c.Bundle == nil || *c.Bundle
}

// ContentDirs returns the directories scanned for sources, public first.
func (c *Config) ContentDirs() []string {
	if c.PublicDir == "" {
		return []string{c.ContentDir}
	}
	return []string{c.PublicDir, c.ContentDir}
}

// Site returns the site-wide seed of every document's metadata.
func (c *Config) Site() meta.Site {
	site := meta.Site{
		Host:     c.Host,
		Name:     c.Name,
		Language: c.Language,
		Manifest: string(c.Manifest),
	}
	if c.Feed != nil {
		site.Feed = &meta.Feed{
			Pathname:    c.Feed.Pathname,
			Title:       c.Feed.Title,
			Description: c.Feed.Description,
			Author:      c.Feed.Author,
			Types:       c.Feed.Types,
		}
	}
	return site
}

// Load loads configuration from the specified file. The .env files of the
// working directory are loaded first and ${VAR} references in the file are
// expanded from the environment.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	// #nosec G304 -- the config path is chosen by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, derrors.WrapError(err, derrors.CategoryConfig, "configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, derrors.IOError(configPath, err).Build()
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes, defaults and validates configuration YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryValidation, "invalid configuration").Build()
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	sitemap := true
	example := Config{
		ContentDir: "content",
		PublicDir:  "public",
		OutputDir:  "dist",
		Host:       "https://example.com",
		Name:       "My Site",
		Language:   "en",
		Sitemap:    &sitemap,
		Feed: &FeedConfig{
			Pathname: "/feed.xml",
			Types:    []string{"article"},
		},
		Search: &SearchConfig{OutputDir: "_search"},
		Defaults: meta.Defaults{
			meta.GenericType: {
				"description": "My personal site",
				"author":      map[string]any{"name": "Jane Doe"},
				"stylesheets": []string{"/css/base.css"},
			},
			"article": {
				"stylesheets": []string{"/css/article.css"},
			},
		},
		Types: []meta.TypeRule{{Pattern: "articles/**", Type: "article"}},
		State: StateConfig{Enabled: true, Path: ".mdsite/state.db"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return derrors.IOError(configPath, err).Build()
	}
	return nil
}
