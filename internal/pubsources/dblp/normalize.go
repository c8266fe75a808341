package dblp

import (
	"github.com/helixir/lab-stats-service/internal/domain"
)

// toRecord maps a DBLP hit onto the canonical record. DBLP carries no
// keywords or journal title separate from the venue.
func toRecord(info *Info) domain.PublicationRecord {
	authors := make([]string, 0, len(info.Authors.Author))
	for _, a := range info.Authors.Author {
		if a != "" {
			authors = append(authors, a)
		}
	}

	return domain.PublicationRecord{
		Title:    info.Title.First(),
		Year:     info.Year.Ptr(),
		Types:    info.Type.Strings(),
		Venues:   info.Venue.Strings(),
		Keywords: []string{},
		Authors:  authors,
		URL:      info.URL,
	}
}

// Normalize converts a decoded DBLP response into canonical records,
// preserving upstream order.
func Normalize(resp *SearchResponse) []domain.PublicationRecord {
	hits := resp.Result.Hits.Hit
	records := make([]domain.PublicationRecord, 0, len(hits))
	for i := range hits {
		records = append(records, toRecord(&hits[i].Info))
	}
	return records
}

// total returns the reported match count, falling back to the number of
// hits when DBLP omits or garbles it.
func total(resp *SearchResponse) int {
	if n, err := resp.Result.Hits.Total.Int64(); err == nil {
		return int(n)
	}
	return len(resp.Result.Hits.Hit)
}
