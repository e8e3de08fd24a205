package views

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"
)

// HomePage is the complete document for /.
func HomePage(site Site, view HomeView) templ.Component {
	meta := PageMeta{
		Title:       site.Name,
		Description: site.Description,
		URL:         AbsURL(site.URL),
		OGType:      "website",
		JSONLD:      WebsiteJSONLD(site),
	}
	return Layout(site, meta, Home(site, view))
}

// ArchivePage is the complete document for /page/<n>/.
func ArchivePage(site Site, view ArchiveView) templ.Component {
	meta := PageMeta{
		Title:  fmt.Sprintf(site.Labels.PageTitle, view.Number),
		URL:    AbsURL(site.URL, "page", strconv.Itoa(view.Number)),
		OGType: "website",
	}
	return Layout(site, meta, Archive(site, view))
}

// PostPage is the complete document for /post/<uid>/.
func PostPage(site Site, view PostView) templ.Component {
	p := view.Post
	meta := PageMeta{
		Title:       p.Data.Title,
		Description: p.Data.Subtitle,
		URL:         AbsURL(site.URL, "post", p.UID),
		OGType:      "article",
		Image:       p.Data.Banner.URL,
		JSONLD:      BlogPostingJSONLD(site, p),
	}
	return Layout(site, meta, Post(site, view))
}

func NotFoundPage(site Site) templ.Component {
	meta := PageMeta{Title: site.Labels.NotFound, NoIndex: true}
	return Layout(site, meta, NotFound(site))
}

// LoadingPage reloads itself every refresh seconds until the post exists.
func LoadingPage(site Site, uid string, refresh int) templ.Component {
	meta := PageMeta{Title: site.Labels.Loading, Refresh: refresh, NoIndex: true}
	return Layout(site, meta, Loading(site, uid))
}
