package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

// Serve previews the output directory on Config.Serve.Addr until ctx is
// cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	e, err := a.setupServer(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(a.Config.Serve.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.Logger.WithField("addr", a.Config.Serve.Addr).
		WithField("fallback", a.Config.Serve.Fallback).
		WithField("root", a.Config.Build.OutputDir).
		Info("preview server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.Logger.Info("preview server stopped")
	return nil
}

// setupServer builds the Echo instance. With fallback enabled it also
// holds the manifest and the render limiter until Close.
func (a *App) setupServer(ctx context.Context) (*echo.Echo, error) {
	if a.Config.Serve.Fallback {
		m, err := OpenManifest(a.Config.Build.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		a.manifestMu.Lock()
		a.manifest = m
		a.limiter = NewRenderLimiter(a.Config.Serve.FallbackLimit, time.Minute)
		a.manifestMu.Unlock()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	a.Echo = e

	a.setupMiddleware()
	a.setupRoutes(ctx)
	return e, nil
}

func (a *App) setupRoutes(ctx context.Context) {
	e := a.Echo
	e.GET("/post/:slug/", a.handlePost(ctx))
	e.Static("/", a.Config.Build.OutputDir)
}
