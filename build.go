package spacetraveling

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

// Stats summarises one build.
type Stats struct {
	Posts     int
	Pages     int
	Written   int
	Unchanged int
	Removed   int
	Duration  time.Duration
}

// Build generates the whole site into Config.Build.OutputDir. Any content
// source failure aborts the build.
func (a *App) Build(ctx context.Context) (*Stats, error) {
	started := time.Now()
	cfg := a.Config.Build
	log := a.Logger.WithField("output", cfg.OutputDir)

	if cfg.Clean {
		if err := os.RemoveAll(cfg.OutputDir); err != nil {
			return nil, fmt.Errorf("clean output: %w", err)
		}
		if err := RemoveManifest(cfg.ManifestPath); err != nil {
			return nil, fmt.Errorf("clean manifest: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	m, err := OpenManifest(cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer m.Close()

	buildID, err := m.BeginBuild(ctx, started)
	if err != nil {
		return nil, fmt.Errorf("begin build: %w", err)
	}
	w := newArtifactWriter(cfg.OutputDir, m, buildID, a.Logger)

	if err := a.writeAssets(ctx, w); err != nil {
		return nil, err
	}

	summaries, pages, err := a.buildListing(ctx, w)
	if err != nil {
		return nil, err
	}

	ids, err := a.Source.PostIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list post ids: %w", err)
	}
	posts, err := a.buildPosts(ctx, w, ids)
	if err != nil {
		return nil, err
	}

	if err := a.writeFeeds(ctx, w, posts, summaries); err != nil {
		return nil, err
	}

	removed, err := w.prune(ctx)
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}

	stats := &Stats{
		Posts:     len(ids),
		Pages:     pages,
		Written:   w.written,
		Unchanged: w.unchanged,
		Removed:   removed,
		Duration:  time.Since(started),
	}
	if err := m.FinishBuild(ctx, buildID, *stats, time.Now()); err != nil {
		return nil, fmt.Errorf("finish build: %w", err)
	}
	log.WithFields(logrus.Fields{
		"posts":     stats.Posts,
		"pages":     stats.Pages,
		"written":   stats.Written,
		"unchanged": stats.Unchanged,
		"removed":   stats.Removed,
		"duration":  stats.Duration.Round(time.Millisecond),
	}).Info("build finished")
	return stats, nil
}

// writeAssets publishes the embedded assets under assets/ and copies the
// user static directory over the output root.
func (a *App) writeAssets(ctx context.Context, w *artifactWriter) error {
	embedded, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		return err
	}
	if err := w.copyFS(ctx, embedded, "assets"); err != nil {
		return fmt.Errorf("write assets: %w", err)
	}

	dir := a.Config.Build.StaticDir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	if err := w.copyFS(ctx, os.DirFS(dir), ""); err != nil {
		return fmt.Errorf("copy static dir: %w", err)
	}
	return nil
}

// buildListing renders the home page, walks the listing to its end and
// writes the archive pages plus, for site-relative cursors, each page as
// JSON at its cursor path. It returns every summary in listing order and
// the number of listing pages.
func (a *App) buildListing(ctx context.Context, w *artifactWriter) ([]content.PostSummary, int, error) {
	pageSize := a.Config.Content.PageSize
	first, err := a.Source.ListPosts(ctx, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	archive := a.Config.Build.ArchivePages
	home := views.HomeView{Page: first}
	if archive && first.NextPage != "" {
		home.OlderHref = archiveHref(2)
	}
	if err := w.render(ctx, "index.html", views.HomePage(a.site, home)); err != nil {
		return nil, 0, err
	}

	feed := listing.New(a.Source, first)
	pages := [][]content.PostSummary{first.Results}
	seen := make(map[string]bool)
	for feed.CanLoadMore() {
		cursor := feed.NextPage()
		if seen[cursor] {
			return nil, 0, fmt.Errorf("load page %d: %w: %s", len(pages)+1, listing.ErrCursorLoop, cursor)
		}
		seen[cursor] = true
		added, err := feed.LoadMore(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("load page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, added)

		if rel, ok := sitePath(cursor); ok {
			page := content.Page{Results: added, NextPage: feed.NextPage()}
			data, err := prismic.EncodePage(len(pages), pageSize, a.Config.Content.DocumentType, page)
			if err != nil {
				return nil, 0, fmt.Errorf("encode page %d: %w", len(pages), err)
			}
			if err := w.write(ctx, rel, data); err != nil {
				return nil, 0, err
			}
		}
	}

	if archive {
		for i := 1; i < len(pages); i++ {
			n := i + 1
			view := views.ArchiveView{Number: n, Posts: pages[i], NewerHref: archiveHref(n - 1)}
			if i+1 < len(pages) {
				view.OlderHref = archiveHref(n + 1)
			}
			rel := path.Join("page", strconv.Itoa(n), "index.html")
			if err := w.render(ctx, rel, views.ArchivePage(a.site, view)); err != nil {
				return nil, 0, err
			}
		}
	}
	return feed.Posts(), len(pages), nil
}

func archiveHref(n int) string {
	if n <= 1 {
		return "/"
	}
	return "/page/" + strconv.Itoa(n) + "/"
}

// sitePath maps a site-relative cursor such as /api/posts/page/2.json to
// an output path. Absolute URLs belong to the content API.
func sitePath(cursor string) (string, bool) {
	if !strings.HasPrefix(cursor, "/") || strings.HasPrefix(cursor, "//") {
		return "", false
	}
	rel := strings.TrimPrefix(path.Clean(cursor), "/")
	if rel == "" || rel == "." {
		return "", false
	}
	return rel, true
}

// buildPosts renders every post with bounded concurrency. The first error
// cancels the remaining work. Posts come back in ids order.
func (a *App) buildPosts(ctx context.Context, w *artifactWriter, ids []string) ([]content.Post, error) {
	posts := make([]content.Post, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Build.Concurrency)
	for i, uid := range ids {
		g.Go(func() error {
			post, err := a.buildPost(gctx, w, uid)
			if err != nil {
				return fmt.Errorf("post %q: %w", uid, err)
			}
			posts[i] = post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return posts, nil
}

// ErrInvalidUID is returned for identifiers that cannot name a directory.
var ErrInvalidUID = errors.New("invalid post uid")

func validUID(uid string) bool {
	return uid != "" && uid != "." && uid != ".." && !strings.ContainsAny(uid, `/\`)
}

func postPath(uid string) string {
	return path.Join("post", uid, "index.html")
}

// buildPost renders post/<uid>/index.html.
func (a *App) buildPost(ctx context.Context, w *artifactWriter, uid string) (content.Post, error) {
	if !validUID(uid) {
		return content.Post{}, fmt.Errorf("%w: %q", ErrInvalidUID, uid)
	}
	post, err := a.Source.GetPost(ctx, uid)
	if err != nil {
		return content.Post{}, err
	}
	nav, err := a.Source.Neighbors(ctx, post)
	if err != nil {
		return content.Post{}, fmt.Errorf("neighbors: %w", err)
	}
	if a.Config.Build.LocalizeBanners {
		a.localizeBanner(ctx, w, &post)
	}

	view := views.PostView{
		Post:       post,
		ReadTime:   content.EstimateReadTime(post),
		Navigation: nav,
	}
	if err := w.render(ctx, postPath(uid), views.PostPage(a.site, view)); err != nil {
		return content.Post{}, err
	}
	a.Logger.WithFields(logrus.Fields{"uid": uid, "read_time": view.ReadTime}).Debug("post rendered")
	return post, nil
}

// BuildPost renders a single post into the output directory, recording it
// against the latest finished build.
func (a *App) BuildPost(ctx context.Context, uid string) (content.Post, error) {
	m, release, err := a.acquireManifest()
	if err != nil {
		return content.Post{}, err
	}
	defer release()

	buildID, err := m.LatestBuild(ctx)
	if err != nil {
		return content.Post{}, fmt.Errorf("latest build: %w", err)
	}
	w := newArtifactWriter(a.Config.Build.OutputDir, m, buildID, a.Logger)
	return a.buildPost(ctx, w, uid)
}

// acquireManifest returns the preview server's manifest, or opens one for
// the duration of the call.
func (a *App) acquireManifest() (*Manifest, func(), error) {
	a.manifestMu.Lock()
	m := a.manifest
	a.manifestMu.Unlock()
	if m != nil {
		return m, func() {}, nil
	}
	m, err := OpenManifest(a.Config.Build.ManifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open manifest: %w", err)
	}
	return m, func() { m.Close() }, nil
}

// artifactWriter writes build outputs, skipping files whose content hash
// matches the manifest. It is safe for concurrent use.
type artifactWriter struct {
	root    string
	m       *Manifest
	buildID int64
	logger  logrus.FieldLogger

	mu        sync.Mutex
	written   int
	unchanged int
}

func newArtifactWriter(root string, m *Manifest, buildID int64, logger logrus.FieldLogger) *artifactWriter {
	return &artifactWriter{root: root, m: m, buildID: buildID, logger: logger}
}

func (w *artifactWriter) render(ctx context.Context, rel string, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	return w.write(ctx, rel, buf.Bytes())
}

// write stores data at rel (slash separated, relative to the output root).
func (w *artifactWriter) write(ctx context.Context, rel string, data []byte) error {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	full := filepath.Join(w.root, filepath.FromSlash(rel))

	prev, ok, err := w.m.Lookup(ctx, rel)
	if err != nil {
		return fmt.Errorf("manifest lookup %s: %w", rel, err)
	}
	unchanged := false
	if ok && prev.Hash == hash {
		if info, err := os.Stat(full); err == nil && info.Size() == int64(len(data)) {
			unchanged = true
		}
	}

	if !unchanged {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", rel, err)
		}
		if err := writeFileAtomic(full, data); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		w.logger.WithField("path", rel).Debug("artifact written")
	}

	if err := w.m.Record(ctx, Artifact{Path: rel, Hash: hash, Size: int64(len(data)), Build: w.buildID}); err != nil {
		return fmt.Errorf("manifest record %s: %w", rel, err)
	}

	w.mu.Lock()
	if unchanged {
		w.unchanged++
	} else {
		w.written++
	}
	w.mu.Unlock()
	return nil
}

// copyFS writes every regular file of fsys under prefix.
func (w *artifactWriter) copyFS(ctx context.Context, fsys fs.FS, prefix string) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		return w.write(ctx, path.Join(prefix, p), data)
	})
}

// prune deletes artifacts recorded by earlier builds that this build did
// not produce.
func (w *artifactWriter) prune(ctx context.Context) (int, error) {
	stale, err := w.m.Stale(ctx, w.buildID)
	if err != nil {
		return 0, err
	}
	for _, art := range stale {
		full := filepath.Join(w.root, filepath.FromSlash(art.Path))
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
		removeEmptyParents(w.root, filepath.Dir(full))
		if err := w.m.Forget(ctx, art.Path); err != nil {
			return 0, err
		}
		w.logger.WithField("path", art.Path).Debug("artifact pruned")
	}
	return len(stale), nil
}

func removeEmptyParents(root, dir string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}

func writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}

// Paths returns the page path of every post the source knows about, in
// source order.
func (a *App) Paths(ctx context.Context) ([]string, error) {
	ids, err := a.Source.PostIDs(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(ids))
	for i, uid := range ids {
		paths[i] = views.PostHref(uid)
	}
	return paths, nil
}
