package spacetraveling

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eringen/spacetraveling/content"
)

// Config holds all configuration for a site. Field tags match the keys of
// config.yaml and the SPACETRAVELING_* environment variables.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"`
	Content  ContentConfig  `mapstructure:"content"`
	Build    BuildConfig    `mapstructure:"build"`
	Comments CommentsConfig `mapstructure:"comments"`
	Serve    ServeConfig    `mapstructure:"serve"`
	Log      LogConfig      `mapstructure:"log"`
}

type SiteConfig struct {
	Name        string `mapstructure:"name"`        // default "spacetraveling"
	URL         string `mapstructure:"url"`         // canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"description"` // RSS and meta tags
	Author      string `mapstructure:"author"`      // JSON-LD
	Locale      string `mapstructure:"locale"`      // default "pt-BR"
	Timezone    string `mapstructure:"timezone"`    // default "UTC"
	Logo        string `mapstructure:"logo"`        // default "/assets/logo.svg"
}

// Content source kinds.
const (
	SourcePrismic = "prismic"
	SourceLocal   = "local"
)

type ContentConfig struct {
	Source            string        `mapstructure:"source"` // "prismic" or "local"
	Endpoint          string        `mapstructure:"endpoint"`
	AccessToken       string        `mapstructure:"access_token"`
	DocumentType      string        `mapstructure:"document_type"`
	PageSize          int           `mapstructure:"page_size"`
	LocalDir          string        `mapstructure:"local_dir"`
	Sanitize          bool          `mapstructure:"sanitize"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"` // 0 means 3, negative disables retries
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type BuildConfig struct {
	OutputDir       string `mapstructure:"output_dir"`
	StaticDir       string `mapstructure:"static_dir"`
	ManifestPath    string `mapstructure:"manifest_path"`
	Concurrency     int    `mapstructure:"concurrency"`
	Clean           bool   `mapstructure:"clean"`
	ArchivePages    bool   `mapstructure:"archive_pages"`
	LocalizeBanners bool   `mapstructure:"localize_banners"`
	BannerMaxWidth  int    `mapstructure:"banner_max_width"`
}

type CommentsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Src       string `mapstructure:"src"`
	Repo      string `mapstructure:"repo"`
	IssueTerm string `mapstructure:"issue_term"`
	Theme     string `mapstructure:"theme"`
}

type ServeConfig struct {
	Addr     string `mapstructure:"addr"`
	Fallback bool   `mapstructure:"fallback"`
	// FallbackLimit caps on-demand renders per client IP per minute.
	FallbackLimit int `mapstructure:"fallback_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a configuration with every default applied.
// Booleans that default to true are only set here; setDefaults cannot
// tell an explicit false from a missing key.
func DefaultConfig() Config {
	var c Config
	c.Comments.Enabled = true
	c.Build.ArchivePages = true
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.Site.Name == "" {
		c.Site.Name = "spacetraveling"
	}
	if c.Site.URL == "" {
		c.Site.URL = "http://localhost:3000"
	}
	if c.Site.Locale == "" {
		c.Site.Locale = "pt-BR"
	}
	if c.Site.Timezone == "" {
		c.Site.Timezone = "UTC"
	}
	if c.Site.Logo == "" {
		c.Site.Logo = "/assets/logo.svg"
	}
	if c.Content.Source == "" {
		c.Content.Source = SourcePrismic
	}
	if c.Content.DocumentType == "" {
		c.Content.DocumentType = "posts"
	}
	if c.Content.PageSize == 0 {
		c.Content.PageSize = 2
	}
	if c.Content.LocalDir == "" {
		c.Content.LocalDir = "content/posts"
	}
	if c.Content.Timeout == 0 {
		c.Content.Timeout = 30 * time.Second
	}
	if c.Content.MaxRetries == 0 {
		c.Content.MaxRetries = 3
	}
	if c.Content.RequestsPerSecond == 0 {
		c.Content.RequestsPerSecond = 10
	}
	if c.Build.OutputDir == "" {
		c.Build.OutputDir = "public"
	}
	if c.Build.StaticDir == "" {
		c.Build.StaticDir = "static"
	}
	if c.Build.ManifestPath == "" {
		c.Build.ManifestPath = ".spacetraveling/manifest.db"
	}
	if c.Build.Concurrency == 0 {
		c.Build.Concurrency = 5
	}
	if c.Build.BannerMaxWidth == 0 {
		c.Build.BannerMaxWidth = 1440
	}
	if c.Comments.Src == "" {
		c.Comments.Src = "https://utteranc.es/client.js"
	}
	if c.Comments.IssueTerm == "" {
		c.Comments.IssueTerm = "pathname"
	}
	if c.Comments.Theme == "" {
		c.Comments.Theme = "github-dark"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":3000"
	}
	if c.Serve.FallbackLimit == 0 {
		c.Serve.FallbackLimit = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Content.Source {
	case SourcePrismic:
		if c.Content.Endpoint == "" {
			errs = append(errs, errors.New("content.endpoint (PRISMIC_API_ENDPOINT) is required for the prismic source"))
		}
	case SourceLocal:
	default:
		errs = append(errs, fmt.Errorf("content.source %q is not one of %q, %q", c.Content.Source, SourcePrismic, SourceLocal))
	}
	if c.Content.PageSize < 1 {
		errs = append(errs, fmt.Errorf("content.page_size must be at least 1, got %d", c.Content.PageSize))
	}
	if c.Build.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("build.concurrency must be at least 1, got %d", c.Build.Concurrency))
	}
	if c.Comments.Enabled && c.Comments.Repo == "" {
		errs = append(errs, errors.New("comments.repo is required when comments are enabled"))
	}
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("site.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// Option configures additional App behavior.
type Option func(*App)

// WithSource replaces the source built from Config.Content.
func WithSource(src content.Source) Option {
	return func(a *App) {
		a.Source = src
	}
}

func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithHTTPClient sets the client used for the content API and banner
// downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// WithStaticDir sets the directory of user-owned static files copied into
// the output (default "static").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.Build.StaticDir = dir
	}
}
