package domain

import (
	"bytes"
	"encoding/json"
)

// RankEntry is one value of a top-N ranking and the number of times it occurred.
type RankEntry struct {
	Name  string
	Count int
}

// Ranking is a count-ordered list of values. It serializes as a JSON object
// whose keys keep the ranking order.
type Ranking []RankEntry

// Get returns the count recorded for name, or 0.
func (r Ranking) Get(name string) int {
	for _, e := range r {
		if e.Name == name {
			return e.Count
		}
	}
	return 0
}

// Names returns the ranked names in order.
func (r Ranking) Names() []string {
	names := make([]string, len(r))
	for i, e := range r {
		names[i] = e.Name
	}
	return names
}

// MarshalJSON writes the ranking as an insertion-ordered JSON object.
func (r Ranking) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SubjectStats is the statistical summary of one subject's publications in
// one source.
type SubjectStats struct {
	Found              bool                `json:"found"`
	Source             SourceType          `json:"source"`
	TotalPublications  int                 `json:"total_publications"`
	YearsDistribution  map[int]int         `json:"years_distribution"`
	TypesDistribution  map[string]int      `json:"types_distribution"`
	TopKeywords        Ranking             `json:"top_keywords"`
	TopCollaborators   Ranking             `json:"top_collaborators"`
	TopJournals        Ranking             `json:"top_journals"`
	TopVenues          Ranking             `json:"top_venues"`
	RecentPublications []PublicationRecord `json:"recent_publications"`
}

// EmptySubjectStats returns the successful "nothing matched" summary.
func EmptySubjectStats(source SourceType) *SubjectStats {
	return &SubjectStats{
		Found:              false,
		Source:             source,
		YearsDistribution:  map[int]int{},
		TypesDistribution:  map[string]int{},
		TopKeywords:        Ranking{},
		TopCollaborators:   Ranking{},
		TopJournals:        Ranking{},
		TopVenues:          Ranking{},
		RecentPublications: []PublicationRecord{},
	}
}

// FacetEntry is one translated facet bucket.
type FacetEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// LabFacetStats is the lab-wide faceted summary.
type LabFacetStats struct {
	Years      []FacetEntry `json:"years"`
	Keywords   []FacetEntry `json:"keywords"`
	Types      []FacetEntry `json:"types"`
	Authors    []FacetEntry `json:"authors"`
	Journals   []FacetEntry `json:"journals"`
	Languages  []FacetEntry `json:"languages"`
	Structures []FacetEntry `json:"structures"`
	TotalDocs  int          `json:"total_docs"`
}
