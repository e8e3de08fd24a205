package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eringen/spacetraveling/content"
)

// AbsURL joins path segments onto the site URL, ensuring a trailing slash.
func AbsURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// WebsiteJSONLD produces a Schema.org WebSite block.
func WebsiteJSONLD(site Site) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      AbsURL(site.URL),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	return marshalJSONLD(data)
}

// BlogPostingJSONLD produces a Schema.org BlogPosting block for post.
func BlogPostingJSONLD(site Site, post content.Post) string {
	postURL := AbsURL(site.URL, "post", post.UID)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Data.Title,
		"description": post.Data.Subtitle,
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !post.FirstPublicationDate.IsZero() {
		data["datePublished"] = post.FirstPublicationDate.UTC().Format(time.RFC3339)
	}
	if !post.LastPublicationDate.IsZero() {
		data["dateModified"] = post.LastPublicationDate.UTC().Format(time.RFC3339)
	}
	if post.Data.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Data.Author,
		}
	}
	if post.Data.Banner.URL != "" {
		data["image"] = absAsset(site, post.Data.Banner.URL)
	}
	return marshalJSONLD(data)
}

// json.Marshal sorts map keys and escapes <, > and &, so the output is
// stable and safe inside a script element.
func marshalJSONLD(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
