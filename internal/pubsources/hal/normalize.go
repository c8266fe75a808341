package hal

import (
	"github.com/helixir/lab-stats-service/internal/domain"
)

// toRecord maps a HAL document onto the canonical record.
func toRecord(doc *Doc) domain.PublicationRecord {
	return domain.PublicationRecord{
		Title:    doc.Title.First(),
		Year:     doc.Year.Ptr(),
		Types:    doc.DocType.Strings(),
		Venues:   []string{},
		Journal:  doc.Journal.First(),
		Keywords: doc.Keywords.Strings(),
		Authors:  doc.Authors.Strings(),
		URL:      doc.URI.First(),
	}
}

// Normalize converts a decoded HAL response into canonical records,
// preserving upstream order.
func Normalize(resp *SearchResponse) []domain.PublicationRecord {
	records := make([]domain.PublicationRecord, 0, len(resp.Response.Docs))
	for i := range resp.Response.Docs {
		records = append(records, toRecord(&resp.Response.Docs[i]))
	}
	return records
}

// facetsByName re-keys the raw facet_fields block by canonical facet name.
// Facets HAL did not return are present with an empty sequence.
func facetsByName(counts *FacetCounts) map[string][]any {
	out := make(map[string][]any, len(FacetFields))
	for _, f := range FacetFields {
		var values []any
		if counts != nil {
			values = counts.FacetFields[f.Field]
		}
		if values == nil {
			values = []any{}
		}
		out[f.Name] = values
	}
	return out
}
