package prismic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eringen/spacetraveling/content"
)

const idsPageSize = 100

// Source serves posts of one custom type from a Prismic repository.
type Source struct {
	client  *Client
	docType string
}

var _ content.Source = (*Source)(nil)

// NewSource wraps client. docType defaults to "posts".
func NewSource(client *Client, docType string) *Source {
	if docType == "" {
		docType = "posts"
	}
	return &Source{client: client, docType: docType}
}

func (s *Source) typePredicate() []Predicate {
	return []Predicate{At("document.type", s.docType)}
}

func (s *Source) summaryFields() []string {
	return []string{s.docType + ".title", s.docType + ".subtitle", s.docType + ".author"}
}

// ListPosts returns the first pageSize posts in the API's default order.
func (s *Source) ListPosts(ctx context.Context, pageSize int) (content.Page, error) {
	resp, err := s.client.Query(ctx, s.typePredicate(), QueryOptions{
		PageSize: pageSize,
		Fetch:    s.summaryFields(),
	})
	if err != nil {
		return content.Page{}, err
	}
	return toPage(resp)
}

// FetchPage follows a next_page cursor.
func (s *Source) FetchPage(ctx context.Context, cursor string) (content.Page, error) {
	resp, err := s.client.FetchURL(ctx, cursor)
	if err != nil {
		return content.Page{}, err
	}
	return toPage(resp)
}

// PostIDs walks every page of the type and returns the uids. Documents
// without a uid or sharing one are rejected.
func (s *Source) PostIDs(ctx context.Context) ([]string, error) {
	var ids []string
	seen := make(map[string]string)
	for page := 1; ; page++ {
		resp, err := s.client.Query(ctx, s.typePredicate(), QueryOptions{
			PageSize:  idsPageSize,
			Page:      page,
			Orderings: []Ordering{{Field: "document.first_publication_date", Desc: true}},
			Fetch:     []string{s.docType + ".title"},
		})
		if err != nil {
			return nil, err
		}
		for _, doc := range resp.Results {
			if doc.UID == "" {
				return nil, fmt.Errorf("prismic: document %s has no uid", doc.ID)
			}
			if other, dup := seen[doc.UID]; dup {
				return nil, fmt.Errorf("prismic: uid %q shared by documents %s and %s", doc.UID, other, doc.ID)
			}
			seen[doc.UID] = doc.ID
			ids = append(ids, doc.UID)
		}
		if page >= resp.TotalPages || len(resp.Results) == 0 {
			return ids, nil
		}
	}
}

// GetPost returns the full post or content.ErrNotFound.
func (s *Source) GetPost(ctx context.Context, uid string) (content.Post, error) {
	doc, err := s.client.GetByUID(ctx, s.docType, uid)
	if err != nil {
		return content.Post{}, err
	}
	return decodePost(doc)
}

// Neighbors looks up the posts published immediately after (Next) and
// before (Previous) post.
func (s *Source) Neighbors(ctx context.Context, post content.Post) (content.Navigation, error) {
	var nav content.Navigation
	if post.ID == "" {
		return nav, nil
	}
	next, err := s.adjacent(ctx, post.ID, false)
	if err != nil {
		return nav, fmt.Errorf("next post: %w", err)
	}
	prev, err := s.adjacent(ctx, post.ID, true)
	if err != nil {
		return nav, fmt.Errorf("previous post: %w", err)
	}
	nav.Next, nav.Previous = next, prev
	return nav, nil
}

func (s *Source) adjacent(ctx context.Context, id string, older bool) (*content.Neighbor, error) {
	resp, err := s.client.Query(ctx, s.typePredicate(), QueryOptions{
		PageSize:  1,
		After:     id,
		Orderings: []Ordering{{Field: "document.first_publication_date", Desc: older}},
		Fetch:     []string{s.docType + ".title"},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	doc := resp.Results[0]
	var data postData
	if err := decodeData(doc, &data); err != nil {
		return nil, err
	}
	return &content.Neighbor{UID: doc.UID, Title: string(data.Title)}, nil
}

func toPage(resp *Response) (content.Page, error) {
	page := content.Page{Results: make([]content.PostSummary, 0, len(resp.Results))}
	if resp.NextPage != nil {
		page.NextPage = *resp.NextPage
	}
	for i := range resp.Results {
		doc := resp.Results[i]
		var data postData
		if err := decodeData(doc, &data); err != nil {
			return content.Page{}, err
		}
		page.Results = append(page.Results, content.PostSummary{
			UID:                  doc.UID,
			FirstPublicationDate: doc.FirstPublicationDate.Time,
			Data: content.SummaryData{
				Title:    string(data.Title),
				Subtitle: string(data.Subtitle),
				Author:   string(data.Author),
			},
		})
	}
	return page, nil
}

func decodePost(doc *Document) (content.Post, error) {
	var data postData
	if err := decodeData(*doc, &data); err != nil {
		return content.Post{}, err
	}
	post := content.Post{
		ID:                   doc.ID,
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate.Time,
		LastPublicationDate:  doc.LastPublicationDate.Time,
		Data: content.PostData{
			Title:    string(data.Title),
			Subtitle: string(data.Subtitle),
			Author:   string(data.Author),
			Banner:   content.Banner{URL: data.Banner.URL, Alt: data.Banner.Alt},
			Content:  make([]content.Block, 0, len(data.Content)),
		},
	}
	for _, block := range data.Content {
		post.Data.Content = append(post.Data.Content, content.Block{
			Heading: string(block.Heading),
			Body:    block.Body,
		})
	}
	return post, nil
}

func decodeData(doc Document, out *postData) error {
	raw := strings.TrimSpace(string(doc.Data))
	if raw == "" || raw == "null" {
		return nil
	}
	if err := json.Unmarshal(doc.Data, out); err != nil {
		return fmt.Errorf("prismic: decode document %s: %w", doc.ID, err)
	}
	return nil
}
