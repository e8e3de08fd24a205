package spacetraveling

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// renderRSS builds an RSS 2.0 document with one item per summary, in
// listing order.
func renderRSS(site views.Site, posts []content.PostSummary) ([]byte, error) {
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := views.AbsURL(site.URL, views.PostHref(p.UID))
		item := rssItem{
			Title:       p.Data.Title,
			Link:        postURL,
			Description: p.Data.Subtitle,
			GUID:        postURL,
		}
		if !p.FirstPublicationDate.IsZero() {
			item.PubDate = p.FirstPublicationDate.UTC().Format(time.RFC1123Z)
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       site.Name,
			Link:        views.AbsURL(site.URL),
			Description: site.Description,
			Language:    site.Locale.Tag.String(),
			Items:       items,
		},
	}
	return encodeXML(feed)
}

// writeFeeds writes the pages and documents that describe the whole site.
func (a *App) writeFeeds(ctx context.Context, w *artifactWriter, posts []content.Post, summaries []content.PostSummary) error {
	if err := w.render(ctx, "404.html", views.NotFoundPage(a.site)); err != nil {
		return err
	}
	sitemap, err := renderSitemap(a.site, posts)
	if err != nil {
		return err
	}
	if err := w.write(ctx, "sitemap.xml", sitemap); err != nil {
		return err
	}
	feed, err := renderRSS(a.site, summaries)
	if err != nil {
		return err
	}
	if err := w.write(ctx, "feed.xml", feed); err != nil {
		return err
	}
	return w.write(ctx, "robots.txt", renderRobots(a.site))
}
