// Package spacetraveling generates a static blog from a headless content
// API (or a local Markdown directory) and can preview the result.
//
// The App wires the content source, the views and the build manifest.
// Build writes the whole site; Serve previews an output directory and can
// render missing post pages on demand.
package spacetraveling

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/datefmt"
	"github.com/eringen/spacetraveling/local"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

// App is the central application object.
type App struct {
	Config Config
	Source content.Source
	Logger *logrus.Logger
	Echo   *echo.Echo

	site       views.Site
	httpClient *http.Client

	// Preview server state.
	manifestMu sync.Mutex
	manifest   *Manifest
	limiter    *RenderLimiter
	renders    singleflight.Group
	missing    sync.Map // uid -> time.Time the source reported it absent
}

// New validates cfg and builds the App. Unless WithSource is given, the
// content source is created from cfg.Content.
func New(cfg Config, opts ...Option) (*App, error) {
	cfg.setDefaults()

	a := &App{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		logger, err := NewLogger(a.Config.Log.Level, a.Config.Log.Format)
		if err != nil {
			return nil, fmt.Errorf("spacetraveling: %w", err)
		}
		a.Logger = logger
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: a.Config.Content.Timeout}
	}

	// An injected source makes the endpoint irrelevant.
	check := a.Config
	if a.Source != nil && check.Content.Source == SourcePrismic && check.Content.Endpoint == "" {
		check.Content.Source = SourceLocal
	}
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("spacetraveling: invalid config: %w", err)
	}

	site, err := newSite(a.Config)
	if err != nil {
		return nil, err
	}
	a.site = site

	if a.Source == nil {
		src, err := a.newSource()
		if err != nil {
			return nil, fmt.Errorf("spacetraveling: content source: %w", err)
		}
		a.Source = src
	}
	return a, nil
}

func newSite(cfg Config) (views.Site, error) {
	loc, err := time.LoadLocation(cfg.Site.Timezone)
	if err != nil {
		return views.Site{}, fmt.Errorf("spacetraveling: site.timezone: %w", err)
	}
	locale := datefmt.Lookup(cfg.Site.Locale)
	return views.Site{
		Name:        cfg.Site.Name,
		URL:         cfg.Site.URL,
		Description: cfg.Site.Description,
		Author:      cfg.Site.Author,
		Logo:        cfg.Site.Logo,
		Locale:      locale,
		Location:    loc,
		Labels:      views.LabelsFor(locale),
		Comments: views.CommentsConfig{
			Enabled:   cfg.Comments.Enabled,
			Src:       cfg.Comments.Src,
			Repo:      cfg.Comments.Repo,
			IssueTerm: cfg.Comments.IssueTerm,
			Theme:     cfg.Comments.Theme,
		},
		Sanitize: cfg.Content.Sanitize,
		Archive:  cfg.Build.ArchivePages,
	}, nil
}

func (a *App) newSource() (content.Source, error) {
	c := a.Config.Content
	switch c.Source {
	case SourceLocal:
		return local.Open(c.LocalDir, c.PageSize)
	default:
		client, err := prismic.NewClient(c.Endpoint, c.AccessToken,
			prismic.WithHTTPClient(a.httpClient),
			prismic.WithRetry(retryCount(c.MaxRetries), 200*time.Millisecond, 5*time.Second),
			prismic.WithRateLimit(c.RequestsPerSecond),
			prismic.WithLogger(a.Logger.WithField("component", "prismic")),
		)
		if err != nil {
			return nil, err
		}
		return prismic.NewSource(client, c.DocumentType), nil
	}
}

// retryCount maps content.max_retries onto the client's retry count:
// negative disables retries.
func retryCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Site returns the view settings derived from the configuration.
func (a *App) Site() views.Site {
	return a.site
}

// Close releases the manifest held by a running preview server.
func (a *App) Close() error {
	a.manifestMu.Lock()
	defer a.manifestMu.Unlock()
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.manifest != nil {
		err := a.manifest.Close()
		a.manifest = nil
		return err
	}
	return nil
}
