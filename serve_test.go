package spacetraveling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtServer(t *testing.T, mutate func(*Config)) (*App, *echo.Echo, Config) {
	t.Helper()
	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg)
	}
	app := newTestApp(t, cfg, localSource(t, siteFS()))
	_, err := app.Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	e, err := app.setupServer(ctx)
	require.NoError(t, err)
	return app, e, cfg
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "192.0.2.10:4242"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServeBuiltPages(t *testing.T) {
	_, e, _ := builtServer(t, nil)

	rec := get(e, "/post/alpha/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title alpha")

	rec = get(e, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title gamma")

	rec = get(e, "/api/posts/page/2.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"uid":"alpha"`)

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' https://utteranc.es")
	assert.Contains(t, csp, "frame-src https://utteranc.es")
}

func TestServeAddsTrailingSlash(t *testing.T) {
	_, e, _ := builtServer(t, nil)
	rec := get(e, "/post/alpha")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/post/alpha/", rec.Header().Get("Location"))
}

func TestServeMissingPostWithoutFallback(t *testing.T) {
	_, e, _ := builtServer(t, nil)
	rec := get(e, "/post/unknown/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Página não encontrada")
}

func TestServeFallbackRendersOnDemand(t *testing.T) {
	_, e, cfg := builtServer(t, func(c *Config) { c.Serve.Fallback = true })
	page := filepath.Join(cfg.Build.OutputDir, "post", "beta", "index.html")
	require.NoError(t, os.Remove(page))

	rec := get(e, "/post/beta/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "Carregando...")
	assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(page)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	rec = get(e, "/post/beta/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title beta")
}

func TestServeFallbackUnknownPostEndsAsNotFound(t *testing.T) {
	app, e, _ := builtServer(t, func(c *Config) { c.Serve.Fallback = true })

	rec := get(e, "/post/ghost/")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Eventually(t, func() bool {
		_, missing := app.missing.Load("ghost")
		return missing
	}, 5*time.Second, 20*time.Millisecond)

	rec = get(e, "/post/ghost/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeFallbackRetriesExpiredMissingPost(t *testing.T) {
	app, e, _ := builtServer(t, func(c *Config) { c.Serve.Fallback = true })
	stale := time.Now().Add(-2 * missingTTL)
	app.missing.Store("ghost", stale)

	rec := get(e, "/post/ghost/")
	assert.Equal(t, http.StatusOK, rec.Code, "an expired miss renders again")
	assert.Contains(t, rec.Body.String(), "Carregando...")

	assert.Eventually(t, func() bool {
		v, ok := app.missing.Load("ghost")
		return ok && v.(time.Time).After(stale)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, http.StatusNotFound, get(e, "/post/ghost/").Code)
}

func TestServeFallbackIsRateLimited(t *testing.T) {
	app, e, _ := builtServer(t, func(c *Config) {
		c.Serve.Fallback = true
		c.Serve.FallbackLimit = 1
	})

	get(e, "/post/ghost-one/")
	assert.Eventually(t, func() bool {
		_, missing := app.missing.Load("ghost-one")
		return missing
	}, 5*time.Second, 20*time.Millisecond)

	rec := get(e, "/post/ghost-two/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Serve.Addr = "127.0.0.1:0"
	app := newTestApp(t, cfg, localSource(t, siteFS()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestContentSecurityPolicyAdmitsContentAPI(t *testing.T) {
	app := &App{Config: DefaultConfig()}
	app.Config.Content.Endpoint = "https://spacetraveling.cdn.prismic.io/api/v2"
	app.Config.Comments.Enabled = false

	csp := app.contentSecurityPolicy()
	assert.Contains(t, csp, "connect-src 'self' https://spacetraveling.cdn.prismic.io")
	assert.Contains(t, csp, "frame-src 'none'")
}
