// Package local is the demo content source: a directory of Markdown files
// with front matter, served through the same contract as the content API.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/eringen/spacetraveling/content"
)

// PagePrefix is the site path under which listing pages are published.
const PagePrefix = "/api/posts/page/"

// ErrBadCursor is returned for cursors this source did not produce.
var ErrBadCursor = errors.New("local: unrecognised page cursor")

type frontMatter struct {
	UID                  string `yaml:"uid"`
	Title                string `yaml:"title"`
	Subtitle             string `yaml:"subtitle"`
	Author               string `yaml:"author"`
	Banner               string `yaml:"banner"`
	BannerAlt            string `yaml:"banner_alt"`
	FirstPublicationDate string `yaml:"first_publication_date"`
	LastPublicationDate  string `yaml:"last_publication_date"`
}

// Source holds every post of the directory, newest first.
type Source struct {
	posts    []content.Post
	index    map[string]int
	pageSize int
}

var _ content.Source = (*Source)(nil)

// Open parses every *.md file in dir. pageSize sizes the pages reached
// through cursors and should match the size given to ListPosts.
func Open(dir string, pageSize int) (*Source, error) {
	return OpenFS(os.DirFS(dir), pageSize)
}

// OpenFS is Open over an fs.FS.
func OpenFS(fsys fs.FS, pageSize int) (*Source, error) {
	if pageSize < 1 {
		pageSize = 1
	}
	s := &Source{index: make(map[string]int), pageSize: pageSize}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		post, err := parsePost(path, raw)
		if err != nil {
			return err
		}
		s.posts = append(s.posts, post)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local: %w", err)
	}

	sort.SliceStable(s.posts, func(i, j int) bool {
		a, b := s.posts[i], s.posts[j]
		if !a.FirstPublicationDate.Equal(b.FirstPublicationDate) {
			return a.FirstPublicationDate.After(b.FirstPublicationDate)
		}
		return a.UID < b.UID
	})
	for i, p := range s.posts {
		if _, dup := s.index[p.UID]; dup {
			return nil, fmt.Errorf("local: uid %q used by more than one file", p.UID)
		}
		s.index[p.UID] = i
	}
	return s, nil
}

func parsePost(path string, raw []byte) (content.Post, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return content.Post{}, fmt.Errorf("%s: front matter: %w", path, err)
	}

	uid := strings.TrimSpace(fm.UID)
	if uid == "" {
		uid = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	first, err := parseDate(fm.FirstPublicationDate)
	if err != nil {
		return content.Post{}, fmt.Errorf("%s: first_publication_date: %w", path, err)
	}
	last, err := parseDate(fm.LastPublicationDate)
	if err != nil {
		return content.Post{}, fmt.Errorf("%s: last_publication_date: %w", path, err)
	}

	return content.Post{
		ID:                   uid,
		UID:                  uid,
		FirstPublicationDate: first,
		LastPublicationDate:  last,
		Data: content.PostData{
			Title:    fm.Title,
			Subtitle: fm.Subtitle,
			Author:   fm.Author,
			Banner:   content.Banner{URL: fm.Banner, Alt: fm.BannerAlt},
			Content:  toBlocks(body),
		},
	}, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// PagePath is the cursor of listing page n.
func PagePath(n int) string {
	return PagePrefix + strconv.Itoa(n) + ".json"
}

func parseCursor(cursor string) (int, error) {
	rest, ok := strings.CutPrefix(cursor, PagePrefix)
	if !ok {
		return 0, ErrBadCursor
	}
	rest, ok = strings.CutSuffix(rest, ".json")
	if !ok {
		return 0, ErrBadCursor
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, ErrBadCursor
	}
	return n, nil
}

func (s *Source) page(n, size int) content.Page {
	start := (n - 1) * size
	if start > len(s.posts) {
		start = len(s.posts)
	}
	end := start + size
	if end > len(s.posts) {
		end = len(s.posts)
	}
	page := content.Page{Results: make([]content.PostSummary, 0, end-start)}
	for _, p := range s.posts[start:end] {
		page.Results = append(page.Results, content.Summary(p))
	}
	if end < len(s.posts) {
		page.NextPage = PagePath(n + 1)
	}
	return page
}

func (s *Source) ListPosts(_ context.Context, pageSize int) (content.Page, error) {
	if pageSize < 1 {
		pageSize = s.pageSize
	}
	return s.page(1, pageSize), nil
}

func (s *Source) FetchPage(_ context.Context, cursor string) (content.Page, error) {
	n, err := parseCursor(cursor)
	if err != nil {
		return content.Page{}, fmt.Errorf("%w: %q", err, cursor)
	}
	return s.page(n, s.pageSize), nil
}

func (s *Source) PostIDs(context.Context) ([]string, error) {
	ids := make([]string, len(s.posts))
	for i, p := range s.posts {
		ids[i] = p.UID
	}
	return ids, nil
}

func (s *Source) GetPost(_ context.Context, uid string) (content.Post, error) {
	i, ok := s.index[uid]
	if !ok {
		return content.Post{}, fmt.Errorf("local: %q: %w", uid, content.ErrNotFound)
	}
	return s.posts[i], nil
}

// Neighbors: posts are held newest first, so Next sits one slot before.
func (s *Source) Neighbors(_ context.Context, post content.Post) (content.Navigation, error) {
	var nav content.Navigation
	i, ok := s.index[post.UID]
	if !ok {
		return nav, nil
	}
	if i > 0 {
		nav.Next = &content.Neighbor{UID: s.posts[i-1].UID, Title: s.posts[i-1].Data.Title}
	}
	if i+1 < len(s.posts) {
		nav.Previous = &content.Neighbor{UID: s.posts[i+1].UID, Title: s.posts[i+1].Data.Title}
	}
	return nav, nil
}
