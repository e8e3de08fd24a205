// Package content holds the article model shared by every content source,
// the Source contract the builder consumes and the read-time estimate.
package content

import (
	"context"
	"errors"
	"time"

	"github.com/eringen/spacetraveling/richtext"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("content: post not found")

// PostSummary is one entry of the listing.
type PostSummary struct {
	UID                  string
	FirstPublicationDate time.Time
	Data                 SummaryData
}

type SummaryData struct {
	Title    string
	Subtitle string
	Author   string
}

// Post is a fully fetched article. A zero LastPublicationDate means the
// source never reported one.
type Post struct {
	ID                   string
	UID                  string
	FirstPublicationDate time.Time
	LastPublicationDate  time.Time
	Data                 PostData
}

type PostData struct {
	Title    string
	Banner   Banner
	Subtitle string
	Author   string
	Content  []Block
}

type Banner struct {
	URL string
	Alt string
}

// Block is one section of an article: a heading followed by rich text.
type Block struct {
	Heading string
	Body    richtext.RichText
}

// Page is one page of listing results. An empty NextPage marks the end.
type Page struct {
	Results  []PostSummary
	NextPage string
}

// Navigation holds the posts published right before and right after the
// current one. Either side may be nil.
type Navigation struct {
	Previous *Neighbor
	Next     *Neighbor
}

// Empty reports whether neither neighbour exists.
func (n Navigation) Empty() bool {
	return n.Previous == nil && n.Next == nil
}

type Neighbor struct {
	UID   string
	Title string
}

// Source is a provider of posts: the headless content API or the local
// demo directory.
type Source interface {
	// ListPosts returns the first listing page.
	ListPosts(ctx context.Context, pageSize int) (Page, error)
	// FetchPage follows a cursor previously returned in Page.NextPage.
	FetchPage(ctx context.Context, cursor string) (Page, error)
	// PostIDs returns every post identifier.
	PostIDs(ctx context.Context) ([]string, error)
	// GetPost returns the post with the given identifier or ErrNotFound.
	GetPost(ctx context.Context, uid string) (Post, error)
	// Neighbors returns the posts adjacent to post in publication order.
	Neighbors(ctx context.Context, post Post) (Navigation, error)
}

// Summary projects a post onto its listing entry.
func Summary(p Post) PostSummary {
	return PostSummary{
		UID:                  p.UID,
		FirstPublicationDate: p.FirstPublicationDate,
		Data: SummaryData{
			Title:    p.Data.Title,
			Subtitle: p.Data.Subtitle,
			Author:   p.Data.Author,
		},
	}
}
