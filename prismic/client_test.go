package prismic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetraveling/content"
)

const refsBody = `{"refs":[{"id":"draft","ref":"draft-ref","isMasterRef":false},{"id":"master","ref":"master-ref","label":"Master","isMasterRef":true}]}`

// fakeRepo serves the api root and delegates searches to search.
func fakeRepo(t *testing.T, search http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var apiCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, refsBody)
	})
	mux.HandleFunc("/api/v2/documents/search", search)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &apiCalls
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetry(2, time.Millisecond, 5*time.Millisecond)}, opts...)
	c, err := NewClient(srv.URL+"/api/v2/", "secret", opts...)
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "not a url", "ftp://x.io/api/v2", "/api/v2"} {
		_, err := NewClient(endpoint, "")
		assert.Error(t, err, endpoint)
	}
}

func TestQueryParameters(t *testing.T) {
	var got url.Values
	srv, apiCalls := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		fmt.Fprint(w, `{"page":1,"total_pages":1,"results":[]}`)
	})
	c := newTestClient(t, srv)

	ctx := context.Background()
	_, err := c.Query(ctx, []Predicate{At("document.type", "posts")}, QueryOptions{
		PageSize:  2,
		Page:      3,
		Orderings: []Ordering{{Field: "document.first_publication_date", Desc: true}},
		After:     "abc",
		Fetch:     []string{"posts.title", "posts.author"},
	})
	require.NoError(t, err)

	assert.Equal(t, "master-ref", got.Get("ref"))
	assert.Equal(t, `[[at(document.type, "posts")]]`, got.Get("q"))
	assert.Equal(t, "2", got.Get("pageSize"))
	assert.Equal(t, "3", got.Get("page"))
	assert.Equal(t, "[document.first_publication_date desc]", got.Get("orderings"))
	assert.Equal(t, "abc", got.Get("after"))
	assert.Equal(t, "posts.title,posts.author", got.Get("fetch"))
	assert.Equal(t, "secret", got.Get("access_token"))

	_, err = c.Query(ctx, nil, QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(apiCalls), "master ref is fetched once")
	assert.False(t, got.Has("pageSize"))
}

func TestWithRefSkipsLookup(t *testing.T) {
	srv, apiCalls := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "release", r.URL.Query().Get("ref"))
		fmt.Fprint(w, `{"results":[]}`)
	})
	c := newTestClient(t, srv, WithRef("release"))
	_, err := c.Query(context.Background(), nil, QueryOptions{})
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(apiCalls))
}

func TestRetriesTransientStatus(t *testing.T) {
	var attempts int32
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":"1","uid":"a"}]}`)
	})
	c := newTestClient(t, srv)

	resp, err := c.Query(context.Background(), nil, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int32
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, srv)

	_, err := c.Query(context.Background(), nil, QueryOptions{})
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"bad predicate"}`)
	})
	c := newTestClient(t, srv)

	_, err := c.Query(context.Background(), nil, QueryOptions{})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad predicate", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGetByUIDNotFound(t *testing.T) {
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `[[at(my.posts.uid, "missing")]]`, r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"results":[]}`)
	})
	c := newTestClient(t, srv)

	_, err := c.GetByUID(context.Background(), "posts", "missing")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestFetchURL(t *testing.T) {
	var token string
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		token = r.URL.Query().Get("access_token")
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		fmt.Fprint(w, `{"page":2,"next_page":null,"results":[]}`)
	})
	c := newTestClient(t, srv)

	resp, err := c.FetchURL(context.Background(), srv.URL+"/api/v2/documents/search?ref=master-ref&page=2")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Page)
	assert.Nil(t, resp.NextPage)
	assert.Equal(t, "secret", token)
}

func TestFetchURLRejectsForeignHost(t *testing.T) {
	srv, _ := fakeRepo(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("foreign cursor must not be requested")
	})
	c := newTestClient(t, srv)

	for _, cursor := range []string{
		"https://evil.example.com/api/v2/documents/search?page=2",
		"file:///etc/passwd",
		strings.Replace(srv.URL, "http", "gopher", 1) + "/x",
	} {
		_, err := c.FetchURL(context.Background(), cursor)
		assert.ErrorIs(t, err, ErrForeignCursor, cursor)
	}
}

func TestPredicatesAndOrderings(t *testing.T) {
	assert.Equal(t, Predicate(`[any(document.tags, ["a", "b"])]`), Any("document.tags", "a", "b"))
	assert.Equal(t, `[[at(document.type, "posts")][at(my.posts.uid, "x\"y")]]`,
		JoinPredicates([]Predicate{At("document.type", "posts"), At("my.posts.uid", `x"y`)}))
	assert.Equal(t, "[my.posts.date desc,document.id]",
		FormatOrderings([]Ordering{{Field: "my.posts.date", Desc: true}, {Field: "document.id"}}))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://x.io/a?access_token=REDACTED&page=2", redact("https://x.io/a?access_token=s3cret&page=2"))
	assert.Equal(t, "https://x.io/a?page=2", redact("https://x.io/a?page=2"))
}
