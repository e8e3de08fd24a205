package spacetraveling

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists the home page and every post. lastmod is the last
// publication date, or the first when the post was never edited.
func renderSitemap(site views.Site, posts []content.Post) ([]byte, error) {
	urls := []sitemapURL{{Loc: views.AbsURL(site.URL, "/")}}
	for _, p := range posts {
		mod := p.LastPublicationDate
		if mod.IsZero() {
			mod = p.FirstPublicationDate
		}
		u := sitemapURL{Loc: views.AbsURL(site.URL, views.PostHref(p.UID))}
		if !mod.IsZero() {
			u.LastMod = mod.UTC().Format(time.RFC3339)
		}
		urls = append(urls, u)
	}
	return encodeXML(sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func renderRobots(site views.Site) []byte {
	sitemap := strings.TrimSuffix(views.AbsURL(site.URL), "/") + "/sitemap.xml"
	return []byte("User-agent: *\nAllow: /\n\nSitemap: " + sitemap + "\n")
}
