package richtext

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(text string, spans ...Span) Block {
	return Block{Type: TypeParagraph, Text: text, Spans: spans}
}

func TestSerializeSpans(t *testing.T) {
	link := func(start, end int, url, target string) Span {
		return Span{Start: start, End: end, Type: SpanHyperlink, Data: &SpanData{LinkType: "Web", URL: url, Target: target}}
	}
	tests := []struct {
		name  string
		text  string
		spans []Span
		want  string
	}{
		{"plain", "Hello world", nil, "Hello world"},
		{"strong", "Hello world", []Span{{Start: 0, End: 5, Type: SpanStrong}}, "<strong>Hello</strong> world"},
		{
			"nested",
			"bold italic",
			[]Span{{Start: 5, End: 11, Type: SpanEm}, {Start: 0, End: 11, Type: SpanStrong}},
			"<strong>bold <em>italic</em></strong>",
		},
		{
			"overlapping",
			"abcdef",
			[]Span{{Start: 0, End: 4, Type: SpanStrong}, {Start: 2, End: 6, Type: SpanEm}},
			"<strong>ab<em>cd</em></strong><em>ef</em>",
		},
		{"newline", "a\nb", nil, "a<br />b"},
		{"escaped", "<script>&", nil, "&lt;script&gt;&amp;"},
		{
			"link new tab",
			"go here",
			[]Span{link(3, 7, "https://x.io", "_blank")},
			`go <a href="https://x.io" target="_blank" rel="noopener">here</a>`,
		},
		{"link same tab", "go here", []Span{link(3, 7, "https://x.io", "")}, `go <a href="https://x.io">here</a>`},
		{"unsafe link dropped", "go here", []Span{link(3, 7, "javascript:alert(1)", "")}, "go here"},
		{"utf16 offsets", "café bom", []Span{{Start: 5, End: 8, Type: SpanStrong}}, "café <strong>bom</strong>"},
		{"surrogate pair", "😀 ok", []Span{{Start: 3, End: 5, Type: SpanEm}}, "😀 <em>ok</em>"},
		{"out of range clamped", "abc", []Span{{Start: 1, End: 99, Type: SpanStrong}}, "a<strong>bc</strong>"},
		{"empty span ignored", "abc", []Span{{Start: 2, End: 2, Type: SpanStrong}}, "abc"},
		{
			"label",
			"note",
			[]Span{{Start: 0, End: 4, Type: SpanLabel, Data: &SpanData{Label: "codespan"}}},
			`<span class="codespan">note</span>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serializeSpans(tt.text, tt.spans))
		})
	}
}

func TestRenderGroupsListItems(t *testing.T) {
	rt := RichText{
		{Type: TypeListItem, Text: "a"},
		{Type: TypeListItem, Text: "b"},
		{Type: TypeOListItem, Text: "c"},
		para("d"),
		{Type: TypeListItem, Text: "e"},
	}
	var buf bytes.Buffer
	Render(&buf, rt)
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul><ol><li>c</li></ol><p>d</p><ul><li>e</li></ul>", buf.String())
}

func TestRenderBlockTypes(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{"heading", Block{Type: TypeHeading2, Text: "Title"}, "<h2>Title</h2>"},
		{"heading6", Block{Type: TypeHeading6, Text: "Small"}, "<h6>Small</h6>"},
		{"preformatted", Block{Type: TypePreformatted, Text: "x := 1\ny := 2"}, "<pre>x := 1<br />y := 2</pre>"},
		{
			"image",
			Block{Type: TypeImage, URL: "https://images.example.com/a.png", Alt: "a \"cat\""},
			`<p class="block-img"><img src="https://images.example.com/a.png" alt="a &#34;cat&#34;" loading="lazy" /></p>`,
		},
		{
			"image with dimensions",
			Block{Type: TypeImage, URL: "/a.png", Dimensions: &Dimensions{Width: 10, Height: 20}},
			`<p class="block-img"><img src="/a.png" alt="" width="10" height="20" loading="lazy" /></p>`,
		},
		{"image unsafe", Block{Type: TypeImage, URL: "data:image/png;base64,AAAA"}, ""},
		{
			"embed",
			Block{Type: TypeEmbed, Oembed: &Embed{Type: "video", EmbedURL: "https://youtu.be/x", ProviderName: "YouTube", HTML: "<iframe></iframe>"}},
			`<div data-oembed="https://youtu.be/x" data-oembed-type="video" data-oembed-provider="youtube"><iframe></iframe></div>`,
		},
		{"empty paragraph", para(""), "<p></p>"},
		{"unknown with text", Block{Type: "quote", Text: "hi"}, "<p>hi</p>"},
		{"unknown without text", Block{Type: "divider"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTML(RichText{tt.block}, Options{}))
		})
	}
}

func TestHTMLSanitize(t *testing.T) {
	rt := RichText{
		para("safe", Span{Start: 0, End: 4, Type: SpanStrong}),
		{Type: TypeEmbed, Oembed: &Embed{Type: "rich", HTML: `<script>alert(1)</script><b>ok</b>`}},
	}

	trusted := HTML(rt, Options{})
	assert.Contains(t, trusted, "<script>")

	cleaned := HTML(rt, Options{Sanitize: true})
	assert.NotContains(t, cleaned, "<script")
	assert.Contains(t, cleaned, "<strong>safe</strong>")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	err := Component(RichText{para("hello")}, Options{}).Render(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", buf.String())
}

func TestText(t *testing.T) {
	rt := RichText{para("one two"), {Type: TypeImage, URL: "/x.png"}, {Type: TypeListItem, Text: "three"}}
	assert.Equal(t, "one two three", Text(rt))
	assert.Equal(t, "", Text(nil))
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&amp;c=2"},
		{"/post/x", "/post/x"},
		{"#top", "#top"},
		{"mailto:a@b.c", "mailto:a@b.c"},
		{"javascript:alert(1)", ""},
		{"relative/path", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeURL(tt.in), tt.in)
	}
}
