package hal

import "github.com/helixir/lab-stats-service/internal/pubsources"

// SearchResponse is the top-level document returned by the HAL search API
// (Solr JSON writer).
type SearchResponse struct {
	Response    Response     `json:"response"`
	FacetCounts *FacetCounts `json:"facet_counts,omitempty"`
}

// Response holds the matched documents.
type Response struct {
	NumFound int   `json:"numFound"`
	Start    int   `json:"start"`
	Docs     []Doc `json:"docs"`
}

// Doc is one HAL document restricted to the fields requested with fl.
// HAL returns several of these either as a scalar or as a list depending on
// the deposit, so every textual field is decoded as a StringList.
type Doc struct {
	Title    pubsources.StringList `json:"title_s"`
	Year     pubsources.FlexYear   `json:"producedDateY_i"`
	DocType  pubsources.StringList `json:"docType_s"`
	Keywords pubsources.StringList `json:"keyword_s"`
	Authors  pubsources.StringList `json:"authFullName_s"`
	Journal  pubsources.StringList `json:"journalTitle_s"`
	URI      pubsources.StringList `json:"uri_s"`
}

// FacetCounts holds server-side facet results. Each facet field maps to a
// flat alternating sequence [value, count, value, count, ...].
type FacetCounts struct {
	FacetFields map[string][]any `json:"facet_fields"`
}
