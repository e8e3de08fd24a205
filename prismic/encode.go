package prismic

import (
	"encoding/json"

	"github.com/eringen/spacetraveling/content"
)

type summaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// EncodePage renders page in the documents/search response shape, so a
// statically published page can be consumed by the same client code that
// reads the live API.
func EncodePage(number, pageSize int, docType string, page content.Page) ([]byte, error) {
	resp := Response{
		Page:           number,
		ResultsPerPage: pageSize,
		ResultsSize:    len(page.Results),
		Results:        make([]Document, 0, len(page.Results)),
	}
	if page.NextPage != "" {
		next := page.NextPage
		resp.NextPage = &next
	}
	for _, s := range page.Results {
		data, err := json.Marshal(summaryData{Title: s.Data.Title, Subtitle: s.Data.Subtitle, Author: s.Data.Author})
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, Document{
			ID:                   s.UID,
			UID:                  s.UID,
			Type:                 docType,
			Tags:                 []string{},
			FirstPublicationDate: Timestamp{s.FirstPublicationDate},
			Data:                 data,
		})
	}
	return json.Marshal(resp)
}
