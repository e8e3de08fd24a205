package views

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Layout wraps body in the document shell: head metadata, header and the
// shared stylesheet.
func Layout(site Site, meta PageMeta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		description := meta.Description
		if description == "" {
			description = site.Description
		}

		buf.WriteString(`<!DOCTYPE html><html`)
		attr(buf, "lang", site.Locale.Tag.String())
		buf.WriteString(`><head><meta charset="utf-8"/>`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		if meta.Refresh > 0 {
			buf.WriteString(`<meta http-equiv="refresh"`)
			attr(buf, "content", strconv.Itoa(meta.Refresh))
			buf.WriteString(`/>`)
		}
		buf.WriteString(`<title>`)
		buf.WriteString(esc(title))
		buf.WriteString(`</title>`)
		if description != "" {
			buf.WriteString(`<meta name="description"`)
			attr(buf, "content", description)
			buf.WriteString(`/>`)
		}
		if meta.NoIndex {
			buf.WriteString(`<meta name="robots" content="noindex"/>`)
		}
		if meta.URL != "" {
			buf.WriteString(`<link rel="canonical"`)
			attr(buf, "href", meta.URL)
			buf.WriteString(`/>`)
		}
		writeOpenGraph(buf, site, meta, title, description)
		buf.WriteString(`<link rel="icon" type="image/svg+xml" href="/assets/favicon.svg"/>`)
		buf.WriteString(`<link rel="alternate" type="application/rss+xml"`)
		attr(buf, "title", site.Name)
		buf.WriteString(` href="/feed.xml"/>`)
		buf.WriteString(`<link rel="stylesheet" href="/assets/style.css"/>`)
		if meta.JSONLD != "" {
			buf.WriteString(`<script type="application/ld+json">`)
			buf.WriteString(meta.JSONLD)
			buf.WriteString(`</script>`)
		}
		buf.WriteString(`</head><body>`)
		if err := Header(site).Render(ctx, buf); err != nil {
			return err
		}
		if err := body.Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`</body></html>`)
		return nil
	})
}

func writeOpenGraph(buf *bytes.Buffer, site Site, meta PageMeta, title, description string) {
	og := func(property, value string) {
		if value == "" {
			return
		}
		buf.WriteString(`<meta`)
		attr(buf, "property", property)
		attr(buf, "content", value)
		buf.WriteString(`/>`)
	}
	ogType := meta.OGType
	if ogType == "" {
		ogType = "website"
	}
	og("og:site_name", site.Name)
	og("og:type", ogType)
	og("og:title", title)
	og("og:description", description)
	og("og:url", meta.URL)
	og("og:image", absAsset(site, meta.Image))
	og("og:locale", strings.ReplaceAll(site.Locale.Tag.String(), "-", "_"))
}

// absAsset makes site-relative asset paths absolute for crawlers.
func absAsset(site Site, u string) string {
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		return strings.TrimRight(site.URL, "/") + u
	}
	return u
}

// Header is the site header: the logo linking to the home page.
func Header(site Site) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		logo := site.Logo
		if logo == "" {
			logo = "/assets/logo.svg"
		}
		buf.WriteString(`<header class="header"><div class="header__content"><a href="/"`)
		attr(buf, "aria-label", site.Name)
		buf.WriteString(`><img class="header__logo"`)
		attr(buf, "src", logo)
		buf.WriteString(` alt="logo" width="239" height="26"/></a></div></header>`)
		return nil
	})
}
