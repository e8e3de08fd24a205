package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eringen/spacetraveling/richtext"
)

func postWith(blocks ...Block) Post {
	return Post{UID: "p", Data: PostData{Content: blocks}}
}

func body(texts ...string) richtext.RichText {
	rt := make(richtext.RichText, 0, len(texts))
	for _, t := range texts {
		rt = append(rt, richtext.Block{Type: richtext.TypeParagraph, Text: t})
	}
	return rt
}

func TestEstimateReadTime(t *testing.T) {
	tests := []struct {
		name  string
		post  Post
		words int
		want  int
	}{
		{"empty", postWith(), 0, 0},
		{"heading and fragment", postWith(Block{Heading: "Hello world", Body: body("a b c d e f g h i j")}), 12, 1},
		{"exactly one minute", postWith(Block{Heading: "", Body: body(strings.Repeat("w ", 200))}), 200, 1},
		{"one over", postWith(Block{Heading: "x", Body: body(strings.Repeat("w ", 200))}), 201, 2},
		{
			"several blocks",
			postWith(
				Block{Heading: "One", Body: body(strings.Repeat("w ", 150), strings.Repeat("w ", 100))},
				Block{Heading: "Two three", Body: body(strings.Repeat("w ", 147))},
			),
			400, 2,
		},
		{"irregular whitespace", postWith(Block{Heading: "  a\tb  ", Body: body("c\n\nd   e")}), 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.words, CountWords(tt.post))
			assert.Equal(t, tt.want, EstimateReadTime(tt.post))
		})
	}
}

func TestSummary(t *testing.T) {
	p := Post{UID: "a", Data: PostData{Title: "T", Subtitle: "S", Author: "A", Content: []Block{{Heading: "h"}}}}
	s := Summary(p)
	assert.Equal(t, "a", s.UID)
	assert.Equal(t, SummaryData{Title: "T", Subtitle: "S", Author: "A"}, s.Data)
}
