package views

import (
	"time"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/datefmt"
)

// Site holds the site-wide settings every page needs. Build it once per
// run and pass it to every component.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
	Logo        string
	Locale      datefmt.Locale
	Location    *time.Location
	Labels      Labels
	Comments    CommentsConfig
	// Sanitize runs article rich text through the UGC policy.
	Sanitize bool
	// Archive enables the no-script /page/<n>/ links.
	Archive bool
}

// CommentsConfig configures the hosted comment widget.
type CommentsConfig struct {
	Enabled   bool
	Src       string
	Repo      string
	IssueTerm string
	Theme     string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
	// Refresh, when positive, reloads the page after that many seconds.
	Refresh int
	NoIndex bool
}

// HomeView is the first listing page.
type HomeView struct {
	Page content.Page
	// OlderHref links to the second archive page for clients without
	// scripts. Empty hides the link.
	OlderHref string
}

// ArchiveView is listing page N rendered without scripts.
type ArchiveView struct {
	Number    int
	Posts     []content.PostSummary
	NewerHref string
	OlderHref string
}

// PostView is a fully resolved article page.
type PostView struct {
	Post       content.Post
	ReadTime   int
	Navigation content.Navigation
}

// FormatDate renders t with pattern in the site locale and time zone. A
// zero time renders as "".
func (s Site) FormatDate(t time.Time, pattern string) string {
	if t.IsZero() {
		return ""
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return datefmt.Format(t.In(loc), pattern, s.Locale)
}
