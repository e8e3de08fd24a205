package prismic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/richtext"
)

const postDocument = `{
  "id": "YE1", "uid": "como-utilizar-hooks", "type": "posts",
  "first_publication_date": "2021-03-15T19:25:28+0000",
  "last_publication_date": "2021-03-19T19:25:28+0000",
  "data": {
    "title": "Como utilizar Hooks",
    "subtitle": "Pensando em sincronização em vez de ciclos de vida",
    "author": [{"type": "paragraph", "text": "Joseph Oliveira", "spans": []}],
    "banner": {"url": "https://images.prismic.io/x/banner.png", "alt": "banner"},
    "content": [
      {"heading": "Proin et varius",
       "body": [{"type": "paragraph", "text": "Nullam dolor sapien", "spans": [{"start": 0, "end": 6, "type": "strong"}]}]}
    ]
  }
}`

func TestSourceGetPost(t *testing.T) {
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results":[%s]}`, postDocument)
	})
	src := NewSource(newTestClient(t, srv), "")

	post, err := src.GetPost(context.Background(), "como-utilizar-hooks")
	require.NoError(t, err)

	assert.Equal(t, "YE1", post.ID)
	assert.Equal(t, time.Date(2021, 3, 15, 19, 25, 28, 0, time.UTC), post.FirstPublicationDate.UTC())
	assert.Equal(t, time.Date(2021, 3, 19, 19, 25, 28, 0, time.UTC), post.LastPublicationDate.UTC())
	assert.Equal(t, "Como utilizar Hooks", post.Data.Title)
	assert.Equal(t, "Joseph Oliveira", post.Data.Author, "rich text author is flattened")
	assert.Equal(t, "https://images.prismic.io/x/banner.png", post.Data.Banner.URL)
	require.Len(t, post.Data.Content, 1)
	assert.Equal(t, "Proin et varius", post.Data.Content[0].Heading)
	assert.Equal(t, richtext.SpanStrong, post.Data.Content[0].Body[0].Spans[0].Type)
}

func TestSourceListAndFetchPage(t *testing.T) {
	var srvURL string
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") == "2" {
			fmt.Fprint(w, `{"page":2,"next_page":null,"results":[
			  {"id":"3","uid":"c","first_publication_date":"2021-03-01T10:00:00+0000","data":{"title":"C","subtitle":"s","author":"x"}}]}`)
			return
		}
		assert.Equal(t, "posts.title,posts.subtitle,posts.author", q.Get("fetch"))
		assert.Equal(t, "2", q.Get("pageSize"))
		assert.Empty(t, q.Get("orderings"), "listing keeps the API default order")
		fmt.Fprintf(w, `{"page":1,"next_page":%q,"results":[
		  {"id":"1","uid":"a","first_publication_date":"2021-03-15T19:25:28+0000","data":{"title":"A","subtitle":"sa","author":"Ana"}},
		  {"id":"2","uid":"b","first_publication_date":"2021-03-10T08:00:00+0000","data":{"title":"B","subtitle":"sb","author":"Bia"}}]}`,
			srvURL+"/api/v2/documents/search?ref=master-ref&page=2&pageSize=2")
	})
	srvURL = srv.URL
	src := NewSource(newTestClient(t, srv), "posts")
	ctx := context.Background()

	first, err := src.ListPosts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, first.Results, 2)
	assert.Equal(t, "a", first.Results[0].UID)
	assert.Equal(t, "Ana", first.Results[0].Data.Author)
	assert.NotEmpty(t, first.NextPage)

	second, err := src.FetchPage(ctx, first.NextPage)
	require.NoError(t, err)
	require.Len(t, second.Results, 1)
	assert.Equal(t, "c", second.Results[0].UID)
	assert.Empty(t, second.NextPage)
}

func TestSourcePostIDs(t *testing.T) {
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"page":1,"total_pages":2,"results":[{"id":"1","uid":"a"},{"id":"2","uid":"b"}]}`)
		default:
			fmt.Fprint(w, `{"page":2,"total_pages":2,"results":[{"id":"3","uid":"c"}]}`)
		}
	})
	src := NewSource(newTestClient(t, srv), "posts")

	ids, err := src.PostIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSourcePostIDsRejectsBadUIDs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing uid", `{"total_pages":1,"results":[{"id":"1","uid":""}]}`},
		{"duplicate uid", `{"total_pages":1,"results":[{"id":"1","uid":"a"},{"id":"2","uid":"a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			_, err := NewSource(newTestClient(t, srv), "posts").PostIDs(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestSourceNeighbors(t *testing.T) {
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "YE1", q.Get("after"))
		assert.Equal(t, "1", q.Get("pageSize"))
		switch q.Get("orderings") {
		case "[document.first_publication_date]":
			fmt.Fprint(w, `{"results":[{"id":"N","uid":"newer","data":{"title":"Newer"}}]}`)
		case "[document.first_publication_date desc]":
			fmt.Fprint(w, `{"results":[]}`)
		default:
			t.Errorf("unexpected orderings %q", q.Get("orderings"))
		}
	})
	src := NewSource(newTestClient(t, srv), "posts")

	post, err := decodePost(&Document{ID: "YE1", UID: "current"})
	require.NoError(t, err)
	nav, err := src.Neighbors(context.Background(), post)
	require.NoError(t, err)
	require.NotNil(t, nav.Next)
	assert.Equal(t, "newer", nav.Next.UID)
	assert.Equal(t, "Newer", nav.Next.Title)
	assert.Nil(t, nav.Previous)
	assert.False(t, nav.Empty())
}

func TestTextFieldDecoding(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"plain"`, "plain"},
		{`null`, ""},
		{`[{"type":"heading1","text":"A"},{"type":"paragraph","text":"B"}]`, "A B"},
	}
	for _, tt := range tests {
		var f TextField
		require.NoError(t, f.UnmarshalJSON([]byte(tt.raw)))
		assert.Equal(t, tt.want, string(f))
	}
	var f TextField
	assert.Error(t, f.UnmarshalJSON([]byte(`42`)))
}

func TestTimestampDecoding(t *testing.T) {
	var ts Timestamp
	require.NoError(t, ts.UnmarshalJSON([]byte(`"2021-03-25T19:25:28+0000"`)))
	assert.Equal(t, 2021, ts.Year())
	require.NoError(t, ts.UnmarshalJSON([]byte(`"2021-03-25T19:25:28Z"`)))
	assert.Equal(t, time.March, ts.Month())
	require.NoError(t, ts.UnmarshalJSON([]byte(`null`)))
	assert.True(t, ts.IsZero())
	assert.Error(t, ts.UnmarshalJSON([]byte(`"yesterday"`)))

	b, err := Timestamp{time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2021-03-25T19:25:28+0000"`, string(b))
}

func TestEncodePageReadsBackAsPage(t *testing.T) {
	raw, err := EncodePage(2, 2, "posts", content.Page{
		Results: []content.PostSummary{{
			UID:                  "a",
			FirstPublicationDate: time.Date(2021, 3, 15, 19, 25, 28, 0, time.UTC),
			Data:                 content.SummaryData{Title: "A", Subtitle: "S", Author: "Ana"},
		}},
		NextPage: "/api/posts/page/3.json",
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"first_publication_date":"2021-03-15T19:25:28+0000"`)
	assert.Contains(t, string(raw), `"last_publication_date":null`)

	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	page, err := toPage(&resp)
	require.NoError(t, err)
	assert.Equal(t, "/api/posts/page/3.json", page.NextPage)
	assert.Equal(t, "Ana", page.Results[0].Data.Author)
}
