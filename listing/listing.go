// Package listing keeps the state of the paginated post list: the posts
// shown so far and the cursor of the next page.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eringen/spacetraveling/content"
)

var (
	// ErrExhausted is returned by LoadMore once the cursor is empty.
	ErrExhausted = errors.New("listing: no more pages")
	// ErrBusy is returned by LoadMore while a fetch is in flight.
	ErrBusy = errors.New("listing: fetch already in progress")
	// ErrCursorLoop is returned by Drain when a cursor comes back twice.
	ErrCursorLoop = errors.New("listing: next_page cursor repeats")
)

type State int

const (
	Idle State = iota
	Fetching
	Failed
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Failed:
		return "failed"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Fetcher resolves a cursor to the next page. content.Source satisfies it.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor string) (content.Page, error)
}

// Feed is safe for concurrent use.
type Feed struct {
	fetcher Fetcher

	mu    sync.Mutex
	posts []content.PostSummary
	next  string
	state State
	err   error
}

// New starts a feed from the first page.
func New(fetcher Fetcher, first content.Page) *Feed {
	f := &Feed{
		fetcher: fetcher,
		posts:   append([]content.PostSummary(nil), first.Results...),
		next:    first.NextPage,
	}
	if f.next == "" {
		f.state = Exhausted
	}
	return f
}

// LoadMore fetches the page behind the cursor and appends its results.
// Posts are kept in arrival order and never de-duplicated. On failure the
// cursor is kept so the call can be retried.
func (f *Feed) LoadMore(ctx context.Context) ([]content.PostSummary, error) {
	f.mu.Lock()
	switch {
	case f.state == Fetching:
		f.mu.Unlock()
		return nil, ErrBusy
	case f.next == "":
		f.mu.Unlock()
		return nil, ErrExhausted
	}
	cursor := f.next
	f.state = Fetching
	f.err = nil
	f.mu.Unlock()

	page, err := f.fetcher.FetchPage(ctx, cursor)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = Failed
		f.err = err
		return nil, err
	}
	f.posts = append(f.posts, page.Results...)
	f.next = page.NextPage
	if f.next == "" {
		f.state = Exhausted
	} else {
		f.state = Idle
	}
	return page.Results, nil
}

// Drain loads pages until the cursor is empty and returns every post.
func (f *Feed) Drain(ctx context.Context) ([]content.PostSummary, error) {
	seen := make(map[string]bool)
	for f.CanLoadMore() {
		cursor := f.NextPage()
		if seen[cursor] {
			return nil, fmt.Errorf("%w: %s", ErrCursorLoop, cursor)
		}
		seen[cursor] = true
		if _, err := f.LoadMore(ctx); err != nil {
			return nil, err
		}
	}
	return f.Posts(), nil
}

// Posts returns a copy of the posts loaded so far.
func (f *Feed) Posts() []content.PostSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]content.PostSummary(nil), f.posts...)
}

func (f *Feed) NextPage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err is the error of the last failed fetch, if the feed is Failed.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// CanLoadMore reports whether the load-more control should be shown.
func (f *Feed) CanLoadMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next != "" && f.state != Fetching
}
