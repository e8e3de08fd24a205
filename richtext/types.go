package richtext

// Block types emitted by the content API.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeHeading1     = "heading1"
	TypeHeading2     = "heading2"
	TypeHeading3     = "heading3"
	TypeHeading4     = "heading4"
	TypeHeading5     = "heading5"
	TypeHeading6     = "heading6"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// RichText is an ordered sequence of blocks.
type RichText []Block

// Block is one structural element of a rich-text field.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Embed      `json:"oembed,omitempty"`
	Label      string      `json:"label,omitempty"`
}

// Span marks [Start, End) of a block's text. Offsets count UTF-16 code
// units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries link targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Embed struct {
	Type         string `json:"type,omitempty"`
	EmbedURL     string `json:"embed_url,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
	HTML         string `json:"html,omitempty"`
}
