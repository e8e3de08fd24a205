package local

import (
	"strings"
	"unicode/utf16"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/richtext"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// toBlocks converts a Markdown body into article blocks. Every level-2
// heading opens a block; anything before the first one lands in a block
// with an empty heading.
func toBlocks(src []byte) []content.Block {
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []content.Block
	var current *content.Block
	open := func(heading string) {
		blocks = append(blocks, content.Block{Heading: heading})
		current = &blocks[len(blocks)-1]
	}
	emit := func(b ...richtext.Block) {
		if current == nil {
			open("")
		}
		current.Body = append(current.Body, b...)
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 2 {
				open(plainText(node, src))
				continue
			}
			emit(inlineBlock(headingType(node.Level), node, src))
		case *ast.Paragraph:
			if img, ok := soleImage(node); ok {
				emit(richtext.Block{
					Type: richtext.TypeImage,
					URL:  string(img.Destination),
					Alt:  plainText(img, src),
				})
				continue
			}
			emit(inlineBlock(richtext.TypeParagraph, node, src))
		case *ast.List:
			emit(listBlocks(node, src)...)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			emit(richtext.Block{Type: richtext.TypePreformatted, Text: codeText(n, src)})
		case *ast.Blockquote:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*ast.Paragraph); ok {
					emit(inlineBlock(richtext.TypeParagraph, c, src))
				}
			}
		}
	}
	return blocks
}

func headingType(level int) string {
	switch level {
	case 1:
		return richtext.TypeHeading1
	case 3:
		return richtext.TypeHeading3
	case 4:
		return richtext.TypeHeading4
	case 5:
		return richtext.TypeHeading5
	default:
		return richtext.TypeHeading6
	}
}

func soleImage(p *ast.Paragraph) (*ast.Image, bool) {
	if p.ChildCount() != 1 {
		return nil, false
	}
	img, ok := p.FirstChild().(*ast.Image)
	return img, ok
}

// listBlocks flattens a list, nested lists included, into list-item blocks.
func listBlocks(list *ast.List, src []byte) []richtext.Block {
	typ := richtext.TypeListItem
	if list.IsOrdered() {
		typ = richtext.TypeOListItem
	}
	var out []richtext.Block
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var nested []richtext.Block
		b := &inlineBuilder{src: src}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch child := c.(type) {
			case *ast.List:
				nested = append(nested, listBlocks(child, src)...)
			case *ast.TextBlock, *ast.Paragraph:
				if b.pos > 0 {
					b.write(" ")
				}
				b.walk(child)
			}
		}
		out = append(out, richtext.Block{Type: typ, Text: b.buf.String(), Spans: b.spans})
		out = append(out, nested...)
	}
	return out
}

func codeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func inlineBlock(typ string, n ast.Node, src []byte) richtext.Block {
	b := &inlineBuilder{src: src}
	b.walk(n)
	return richtext.Block{Type: typ, Text: b.buf.String(), Spans: b.spans}
}

func plainText(n ast.Node, src []byte) string {
	b := &inlineBuilder{src: src}
	b.walk(n)
	return strings.TrimSpace(b.buf.String())
}

// inlineBuilder flattens inline nodes into text plus spans whose offsets
// count UTF-16 code units.
type inlineBuilder struct {
	src   []byte
	buf   strings.Builder
	pos   int
	spans []richtext.Span
}

func (b *inlineBuilder) write(s string) {
	b.buf.WriteString(s)
	for _, r := range s {
		if n := utf16.RuneLen(r); n > 0 {
			b.pos += n
		} else {
			b.pos++
		}
	}
}

func (b *inlineBuilder) walk(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			b.write(string(node.Segment.Value(b.src)))
			switch {
			case node.HardLineBreak():
				b.write("\n")
			case node.SoftLineBreak():
				b.write(" ")
			}
		case *ast.String:
			b.write(string(node.Value))
		case *ast.Emphasis:
			typ := richtext.SpanEm
			if node.Level >= 2 {
				typ = richtext.SpanStrong
			}
			b.span(typ, nil, node)
		case *ast.Link:
			b.span(richtext.SpanHyperlink, &richtext.SpanData{LinkType: "Web", URL: string(node.Destination)}, node)
		case *ast.AutoLink:
			start := b.pos
			b.write(string(node.Label(b.src)))
			b.spans = append(b.spans, richtext.Span{
				Start: start, End: b.pos, Type: richtext.SpanHyperlink,
				Data: &richtext.SpanData{LinkType: "Web", URL: string(node.URL(b.src))},
			})
		case *ast.CodeSpan:
			b.span(richtext.SpanLabel, &richtext.SpanData{Label: "codespan"}, node)
		case *ast.RawHTML:
		default:
			b.walk(c)
		}
	}
}

func (b *inlineBuilder) span(typ string, data *richtext.SpanData, n ast.Node) {
	start := b.pos
	b.walk(n)
	if b.pos > start {
		b.spans = append(b.spans, richtext.Span{Start: start, End: b.pos, Type: typ, Data: data})
	}
}
