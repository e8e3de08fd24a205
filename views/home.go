package views

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/content"
)

// Home renders the first listing page. The load-more button only exists
// while the page carries a cursor.
func Home(site Site, view HomeView) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		l := site.Labels
		buf.WriteString(`<main class="container home">`)
		writePostList(buf, site, view.Page.Results)

		if view.Page.NextPage != "" {
			buf.WriteString(`<button type="button" class="load-more"`)
			attr(buf, "data-next-page", view.Page.NextPage)
			attr(buf, "data-loading-label", l.LoadingMore)
			attr(buf, "data-error-label", l.LoadMoreError)
			attr(buf, "data-retry-label", l.Retry)
			buf.WriteString(`>`)
			buf.WriteString(esc(l.LoadMore))
			buf.WriteString(`</button>`)
			buf.WriteString(`<p class="load-more__error" role="alert" hidden></p>`)
			if view.OlderHref != "" {
				buf.WriteString(`<noscript><a class="pager__link"`)
				attr(buf, "href", view.OlderHref)
				buf.WriteString(`>`)
				buf.WriteString(esc(l.Older))
				buf.WriteString(`</a></noscript>`)
			}
			writeItemTemplate(buf)
			buf.WriteString(`<script src="/assets/loadmore.js" defer></script>`)
		}
		buf.WriteString(`</main>`)
		return nil
	})
}

// Archive renders listing page N as plain links.
func Archive(site Site, view ArchiveView) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		l := site.Labels
		buf.WriteString(`<main class="container home"><h1 class="pager__title">`)
		buf.WriteString(esc(fmt.Sprintf(l.PageTitle, view.Number)))
		buf.WriteString(`</h1>`)
		writePostList(buf, site, view.Posts)
		if view.NewerHref != "" || view.OlderHref != "" {
			buf.WriteString(`<nav class="pager">`)
			if view.NewerHref != "" {
				buf.WriteString(`<a class="pager__link pager__link--newer"`)
				attr(buf, "href", view.NewerHref)
				buf.WriteString(`>`)
				buf.WriteString(esc(l.Newer))
				buf.WriteString(`</a>`)
			}
			if view.OlderHref != "" {
				buf.WriteString(`<a class="pager__link pager__link--older"`)
				attr(buf, "href", view.OlderHref)
				buf.WriteString(`>`)
				buf.WriteString(esc(l.Older))
				buf.WriteString(`</a>`)
			}
			buf.WriteString(`</nav>`)
		}
		buf.WriteString(`</main>`)
		return nil
	})
}

// writePostList renders the <ul> the load-more script appends to. The
// month names let the script format dates the same way.
func writePostList(buf *bytes.Buffer, site Site, posts []content.PostSummary) {
	buf.WriteString(`<ul class="posts" id="posts"`)
	attr(buf, "data-months", strings.Join(site.Locale.ShortMonths(), ","))
	attr(buf, "data-timezone", zoneName(site))
	buf.WriteString(`>`)
	for _, p := range posts {
		writePostItem(buf, site, p)
	}
	buf.WriteString(`</ul>`)
}

func writePostItem(buf *bytes.Buffer, site Site, p content.PostSummary) {
	buf.WriteString(`<li class="post-item"><a`)
	attr(buf, "href", PostHref(p.UID))
	buf.WriteString(`><strong class="post-item__title">`)
	buf.WriteString(esc(p.Data.Title))
	buf.WriteString(`</strong><p class="post-item__subtitle">`)
	buf.WriteString(esc(p.Data.Subtitle))
	buf.WriteString(`</p><div class="info"><span class="info__item">`)
	buf.WriteString(iconCalendar)
	writeTime(buf, site, p.FirstPublicationDate)
	buf.WriteString(`</span><span class="info__item">`)
	buf.WriteString(iconUser)
	buf.WriteString(`<span class="info__author">`)
	buf.WriteString(esc(p.Data.Author))
	buf.WriteString(`</span></span></div></a></li>`)
}

// writeItemTemplate emits the inert copy of a list item that the script
// clones for every appended post.
func writeItemTemplate(buf *bytes.Buffer) {
	buf.WriteString(`<template id="post-item-template"><li class="post-item"><a href="">`)
	buf.WriteString(`<strong class="post-item__title"></strong><p class="post-item__subtitle"></p>`)
	buf.WriteString(`<div class="info"><span class="info__item">`)
	buf.WriteString(iconCalendar)
	buf.WriteString(`<time></time></span><span class="info__item">`)
	buf.WriteString(iconUser)
	buf.WriteString(`<span class="info__author"></span></span></div></a></li></template>`)
}

func writeTime(buf *bytes.Buffer, site Site, t time.Time) {
	buf.WriteString(`<time`)
	if !t.IsZero() {
		attr(buf, "datetime", t.UTC().Format(time.RFC3339))
	}
	buf.WriteString(`>`)
	buf.WriteString(esc(site.FormatDate(t, DatePattern)))
	buf.WriteString(`</time>`)
}

func zoneName(site Site) string {
	if site.Location == nil {
		return "UTC"
	}
	return site.Location.String()
}
