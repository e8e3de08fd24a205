package views

import (
	"bytes"
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/richtext"
)

// Post renders an article: banner, byline, sections, neighbour links and
// the comment mount point.
func Post(site Site, view PostView) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		p := view.Post
		l := site.Labels

		if p.Data.Banner.URL != "" {
			alt := p.Data.Banner.Alt
			if alt == "" {
				alt = "banner"
			}
			buf.WriteString(`<div class="banner"><img class="banner__img"`)
			attr(buf, "src", p.Data.Banner.URL)
			attr(buf, "alt", alt)
			buf.WriteString(` width="1440" height="400" fetchpriority="high"/></div>`)
		}

		buf.WriteString(`<main class="container post"><article><h1 class="post__title">`)
		buf.WriteString(esc(p.Data.Title))
		buf.WriteString(`</h1><div class="info"><span class="info__item">`)
		buf.WriteString(iconCalendar)
		writeTime(buf, site, p.FirstPublicationDate)
		buf.WriteString(`</span><span class="info__item">`)
		buf.WriteString(iconUser)
		buf.WriteString(`<span class="info__author">`)
		buf.WriteString(esc(p.Data.Author))
		buf.WriteString(`</span></span><span class="info__item">`)
		buf.WriteString(iconClock)
		buf.WriteString(`<span class="info__readtime">`)
		buf.WriteString(esc(fmt.Sprintf(l.ReadTime, view.ReadTime)))
		buf.WriteString(`</span></span></div>`)

		if edited(p) {
			buf.WriteString(`<p class="post__edited">`)
			buf.WriteString(esc(site.FormatDate(p.LastPublicationDate, l.Edited)))
			buf.WriteString(`</p>`)
		}

		buf.WriteString(`<div class="post__content">`)
		opts := richtext.Options{Sanitize: site.Sanitize}
		for _, block := range p.Data.Content {
			buf.WriteString(`<section class="post__section">`)
			if block.Heading != "" {
				buf.WriteString(`<h2 class="post__heading">`)
				buf.WriteString(esc(block.Heading))
				buf.WriteString(`</h2>`)
			}
			buf.WriteString(`<div class="post__body">`)
			if err := richtext.Component(block.Body, opts).Render(ctx, buf); err != nil {
				return err
			}
			buf.WriteString(`</div></section>`)
		}
		buf.WriteString(`</div></article><hr class="divider"/>`)

		if err := Navigation(site, view.Navigation).Render(ctx, buf); err != nil {
			return err
		}
		if err := Comments(site.Comments).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`</main>`)
		return nil
	})
}

// edited reports whether the post was republished after its first release.
func edited(p content.Post) bool {
	return !p.LastPublicationDate.IsZero() && !p.LastPublicationDate.Equal(p.FirstPublicationDate)
}

// NavigationClass picks the alignment modifier for the neighbour links.
func NavigationClass(nav content.Navigation) string {
	switch {
	case nav.Previous != nil && nav.Next != nil:
		return "navigation navigation--between"
	case nav.Next != nil:
		return "navigation navigation--end"
	default:
		return "navigation navigation--start"
	}
}

// Navigation renders links to the previous and next posts, or nothing when
// there are none.
func Navigation(site Site, nav content.Navigation) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		if nav.Empty() {
			return nil
		}
		buf.WriteString(`<nav`)
		attr(buf, "class", NavigationClass(nav))
		buf.WriteString(`>`)
		if nav.Previous != nil {
			writeNeighbor(buf, "navigation__link navigation__link--previous", *nav.Previous, site.Labels.PreviousPost)
		}
		if nav.Next != nil {
			writeNeighbor(buf, "navigation__link navigation__link--next", *nav.Next, site.Labels.NextPost)
		}
		buf.WriteString(`</nav>`)
		return nil
	})
}

func writeNeighbor(buf *bytes.Buffer, class string, n content.Neighbor, label string) {
	buf.WriteString(`<a`)
	attr(buf, "class", class)
	attr(buf, "href", PostHref(n.UID))
	buf.WriteString(`><span class="navigation__title">`)
	buf.WriteString(esc(n.Title))
	buf.WriteString(`</span><span class="navigation__label">`)
	buf.WriteString(esc(label))
	buf.WriteString(`</span></a>`)
}

// CommentsAnchorID is the element the comment script mounts into.
const CommentsAnchorID = "inject-comments-for-uterances"

// Comments renders the widget mount point. The widget settings travel as
// data attributes so the script stays static.
func Comments(cfg CommentsConfig) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		if !cfg.Enabled || cfg.Repo == "" {
			return nil
		}
		buf.WriteString(`<div class="comments"`)
		attr(buf, "id", CommentsAnchorID)
		attr(buf, "data-src", cfg.Src)
		attr(buf, "data-repo", cfg.Repo)
		attr(buf, "data-issue-term", cfg.IssueTerm)
		attr(buf, "data-theme", cfg.Theme)
		buf.WriteString(`></div><script src="/assets/comments.js" defer></script>`)
		return nil
	})
}

func NotFound(site Site) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		l := site.Labels
		buf.WriteString(`<main class="container not-found"><h1>`)
		buf.WriteString(esc(l.NotFound))
		buf.WriteString(`</h1><p>`)
		buf.WriteString(esc(l.NotFoundBody))
		buf.WriteString(`</p><a href="/">`)
		buf.WriteString(esc(l.BackHome))
		buf.WriteString(`</a></main>`)
		return nil
	})
}

// Loading is shown while a post page is generated on demand.
func Loading(site Site, uid string) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<main class="container loading"`)
		attr(buf, "data-uid", uid)
		buf.WriteString(`><p class="loading__text" role="status">`)
		buf.WriteString(esc(site.Labels.Loading))
		buf.WriteString(`</p></main>`)
		return nil
	})
}
