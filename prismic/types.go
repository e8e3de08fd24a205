package prismic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eringen/spacetraveling/richtext"
)

type apiInfo struct {
	Refs []apiRef `json:"refs"`
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

// Response is a documents/search result page.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href,omitempty"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang,omitempty"`
	FirstPublicationDate Timestamp       `json:"first_publication_date"`
	LastPublicationDate  Timestamp       `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Timestamp accepts the API's "2021-03-15T19:25:28+0000" form as well as
// RFC 3339. null leaves it zero.
type Timestamp struct {
	time.Time
}

const apiTimeLayout = "2006-01-02T15:04:05-0700"

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{apiTimeLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("prismic: unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(apiTimeLayout))
}

// TextField decodes a field that a repository may model either as a key
// text (plain string) or as rich text (array of blocks).
type TextField string

func (f *TextField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = TextField(s)
	case b[0] == '[':
		var rt richtext.RichText
		if err := json.Unmarshal(b, &rt); err != nil {
			return err
		}
		*f = TextField(richtext.Text(rt))
	default:
		return fmt.Errorf("prismic: text field must be a string or rich text, got %s", b)
	}
	return nil
}

type postData struct {
	Title    TextField `json:"title"`
	Subtitle TextField `json:"subtitle"`
	Author   TextField `json:"author"`
	Banner   struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	} `json:"banner"`
	Content []struct {
		Heading TextField         `json:"heading"`
		Body    richtext.RichText `json:"body"`
	} `json:"content"`
}
