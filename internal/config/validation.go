package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/mdsite/internal/meta"
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ContentDir, validation.Required),
		validation.Field(&c.OutputDir, validation.Required, validation.By(c.distinctOutput)),
		validation.Field(&c.Include, validation.Each(validation.By(globPattern))),
		validation.Field(&c.Exclude, validation.Each(validation.By(globPattern))),
		validation.Field(&c.Host, validation.By(siteHost)),
		validation.Field(&c.Language, validation.Required, validation.By(languageTag)),
		validation.Field(&c.Manifest, validation.By(sitePath)),
		validation.Field(&c.DraftPolicy, validation.By(draftPolicy)),
	); err != nil {
		return err
	}
	if c.Feed != nil {
		if err := c.Feed.Validate(); err != nil {
			return fmt.Errorf("feed: %w", err)
		}
	}
	if err := c.validateTypes(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// Validate validates the feed configuration.
func (f *FeedConfig) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Pathname, validation.Required, validation.By(sitePath)),
	)
}

// Validate validates the watch configuration.
func (w *WatchConfig) Validate() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.Ignore, validation.Each(validation.By(globPattern))),
		validation.Field(&w.Schedule, validation.By(positiveDuration)),
	)
}

func (c *Config) validateTypes() error {
	for i, rule := range c.Types {
		if err := validation.ValidateStruct(&c.Types[i],
			validation.Field(&c.Types[i].Pattern, validation.Required, validation.By(globPattern)),
			validation.Field(&c.Types[i].Type, validation.Required),
		); err != nil {
			return fmt.Errorf("types[%d] (%s): %w", i, rule.Pattern, err)
		}
	}
	return nil
}

func (c *Config) distinctOutput(any) error {
	out, _ := filepath.Abs(c.OutputDir)
	for _, dir := range c.ContentDirs() {
		if in, _ := filepath.Abs(dir); in == out {
			return fmt.Errorf("must differ from content directory %s", dir)
		}
	}
	return nil
}

func globPattern(v any) error {
	s, _ := v.(string)
	if !doublestar.ValidatePattern(s) {
		return fmt.Errorf("invalid glob pattern %q", s)
	}
	return nil
}

func siteHost(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL such as https://example.com")
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return errors.New("must not have a path, query or fragment")
	}
	return nil
}

func sitePath(v any) error {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case Manifest:
		s = string(t)
	}
	if s != "" && !strings.HasPrefix(s, "/") {
		return fmt.Errorf("must be a site path starting with /")
	}
	return nil
}

func languageTag(v any) error {
	s, _ := v.(string)
	if _, err := language.Parse(s); err != nil {
		return fmt.Errorf("invalid language tag %q: %w", s, err)
	}
	return nil
}

func draftPolicy(v any) error {
	s, _ := v.(string)
	_, err := meta.ParseDraftPolicy(s)
	return err
}

func positiveDuration(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}
