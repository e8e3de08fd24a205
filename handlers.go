package spacetraveling

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

// loadingRefresh is the refresh interval, in seconds, of the page shown
// while a post renders in the background.
const loadingRefresh = 2

// fallbackTimeout bounds one background render.
const fallbackTimeout = 2 * time.Minute

// missingTTL is how long a uid the source reported absent answers 404
// before a new render is attempted.
const missingTTL = time.Minute

// handlePost serves post/<slug>/index.html, rendering it on demand when
// fallback is enabled. Background renders run under ctx, not the request.
func (a *App) handlePost(ctx context.Context) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("slug")
		if !validUID(slug) {
			return echo.ErrNotFound
		}
		file := filepath.Join(a.Config.Build.OutputDir, filepath.FromSlash(postPath(slug)))
		if _, err := os.Stat(file); err == nil {
			return c.File(file)
		}
		if !a.Config.Serve.Fallback {
			return echo.ErrNotFound
		}
		if a.knownMissing(slug) {
			return echo.ErrNotFound
		}

		ip := c.RealIP()
		if !a.limiter.Check(ip) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many renders, try again later")
		}
		a.renders.DoChan(slug, func() (any, error) {
			a.limiter.Record(ip)
			return nil, a.renderFallback(ctx, slug)
		})

		return renderTransient(c, views.LoadingPage(a.site, slug, loadingRefresh))
	}
}

// knownMissing reports whether slug was found absent less than missingTTL
// ago. Expired entries are dropped.
func (a *App) knownMissing(slug string) bool {
	v, ok := a.missing.Load(slug)
	if !ok {
		return false
	}
	if time.Since(v.(time.Time)) < missingTTL {
		return true
	}
	a.missing.CompareAndDelete(slug, v)
	return false
}

func (a *App) renderFallback(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, fallbackTimeout)
	defer cancel()

	log := a.Logger.WithFields(logrus.Fields{"component": "fallback", "uid": slug})
	started := time.Now()
	_, err := a.BuildPost(ctx, slug)
	switch {
	case errors.Is(err, content.ErrNotFound):
		a.missing.Store(slug, time.Now())
		log.Info("post not found")
	case err != nil:
		log.WithError(err).Error("render failed")
	default:
		log.WithField("duration", time.Since(started).Round(time.Millisecond)).Info("post rendered on demand")
	}
	return err
}

// httpErrorHandler renders 404s with the built 404.html when present.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusNotFound {
		page := filepath.Join(a.Config.Build.OutputDir, "404.html")
		if data, rerr := os.ReadFile(page); rerr == nil {
			_ = c.HTMLBlob(http.StatusNotFound, data)
			return
		}
		_ = renderPage(c, http.StatusNotFound, views.NotFoundPage(a.site))
		return
	}
	if he == nil || he.Code >= http.StatusInternalServerError {
		a.Logger.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
