// Package richtext renders the content API's structured rich text as HTML,
// either as a string or as a templ component.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// ugcPolicy is safe for concurrent use once built.
var ugcPolicy = bluemonday.UGCPolicy()

// Options controls HTML output.
type Options struct {
	// Sanitize passes the rendered markup through a user-generated-content
	// policy. When false the markup is trusted as delivered by the API.
	Sanitize bool
}

// Component returns a templ.Component that writes the HTML of rt.
func Component(rt RichText, opts Options) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, HTML(rt, opts))
		return err
	})
}

// HTML renders rt to a string.
func HTML(rt RichText, opts Options) string {
	var buf bytes.Buffer
	Render(&buf, rt)
	if opts.Sanitize {
		return ugcPolicy.Sanitize(buf.String())
	}
	return buf.String()
}

// Render writes the HTML representation of rt to buf. Consecutive list
// items share one <ul> or <ol>.
func Render(buf *bytes.Buffer, rt RichText) {
	list := ""
	flushList := func() {
		if list != "" {
			buf.WriteString("</" + list + ">")
			list = ""
		}
	}

	for _, b := range rt {
		if b.Type == TypeListItem || b.Type == TypeOListItem {
			tag := "ul"
			if b.Type == TypeOListItem {
				tag = "ol"
			}
			if list != tag {
				flushList()
				buf.WriteString("<" + tag + ">")
				list = tag
			}
			buf.WriteString("<li>")
			buf.WriteString(serializeSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		}
		flushList()

		switch b.Type {
		case TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4, TypeHeading5, TypeHeading6:
			level := strings.TrimPrefix(b.Type, "heading")
			buf.WriteString("<h" + level + ">")
			buf.WriteString(serializeSpans(b.Text, b.Spans))
			buf.WriteString("</h" + level + ">")
		case TypePreformatted:
			buf.WriteString("<pre>")
			buf.WriteString(serializeSpans(b.Text, b.Spans))
			buf.WriteString("</pre>")
		case TypeImage:
			src := SafeURL(b.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
			if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
			}
			buf.WriteString(` loading="lazy" /></p>`)
		case TypeEmbed:
			if b.Oembed == nil {
				continue
			}
			buf.WriteString(`<div data-oembed="` + html.EscapeString(b.Oembed.EmbedURL) +
				`" data-oembed-type="` + html.EscapeString(b.Oembed.Type) +
				`" data-oembed-provider="` + html.EscapeString(strings.ToLower(b.Oembed.ProviderName)) + `">`)
			buf.WriteString(b.Oembed.HTML)
			buf.WriteString("</div>")
		default:
			// paragraph, and anything newer than this renderer
			if b.Text == "" && b.Type != TypeParagraph {
				continue
			}
			buf.WriteString("<p>")
			buf.WriteString(serializeSpans(b.Text, b.Spans))
			buf.WriteString("</p>")
		}
	}
	flushList()
}

// Text returns the plain text of rt, one block per space.
func Text(rt RichText) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, " ")
}

// serializeSpans escapes text and wraps the span ranges in their tags.
// Overlapping spans are closed and reopened at the crossing point so the
// result nests correctly.
func serializeSpans(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > n {
			s.End = n
		}
		if s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	cuts := []int{0, n}
	for _, s := range valid {
		cuts = append(cuts, s.Start, s.End)
	}
	sort.Ints(cuts)
	cuts = slices.Compact(cuts)

	var b strings.Builder
	var open []Span
	next := 0
	for i, p := range cuts {
		if endsAt(open, p) {
			var reopen []Span
			for len(open) > 0 && endsAt(open, p) {
				top := open[len(open)-1]
				open = open[:len(open)-1]
				b.WriteString(closeTag(top))
				if top.End > p {
					reopen = append(reopen, top)
				}
			}
			for k := len(reopen) - 1; k >= 0; k-- {
				b.WriteString(openTag(reopen[k]))
				open = append(open, reopen[k])
			}
		}
		for next < len(valid) && valid[next].Start == p {
			b.WriteString(openTag(valid[next]))
			open = append(open, valid[next])
			next++
		}
		if i+1 < len(cuts) {
			b.WriteString(escapeText(string(utf16.Decode(units[p:cuts[i+1]]))))
		}
	}
	return b.String()
}

func endsAt(open []Span, p int) bool {
	for _, s := range open {
		if s.End <= p {
			return true
		}
	}
	return false
}

func openTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		if s.Data == nil {
			return ""
		}
		href := SafeURL(s.Data.URL)
		if href == "" {
			return ""
		}
		if s.Data.Target != "" {
			return `<a href="` + href + `" target="` + html.EscapeString(s.Data.Target) + `" rel="noopener">`
		}
		return `<a href="` + href + `">`
	case SpanLabel:
		if s.Data == nil || s.Data.Label == "" {
			return ""
		}
		return `<span class="` + html.EscapeString(s.Data.Label) + `">`
	}
	return ""
}

func closeTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		if s.Data == nil || SafeURL(s.Data.URL) == "" {
			return ""
		}
		return "</a>"
	case SpanLabel:
		if s.Data == nil || s.Data.Label == "" {
			return ""
		}
		return "</span>"
	}
	return ""
}

func escapeText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br />")
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
