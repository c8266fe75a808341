package domain

import (
	"encoding/json"
)

// SourceType identifies an upstream bibliographic search service.
type SourceType string

const (
	SourceTypeHAL  SourceType = "HAL"
	SourceTypeDBLP SourceType = "DBLP"
)

// IsValidSourceType reports whether s is a known source.
func IsValidSourceType(s SourceType) bool {
	switch s {
	case SourceTypeHAL, SourceTypeDBLP:
		return true
	default:
		return false
	}
}

// PublicationRecord is the canonical, source-independent shape of one
// publication after normalization. Fields that upstream sources return as
// either a scalar or a list are always held as lists; use Type and Venue for
// the single-value view.
type PublicationRecord struct {
	Title    string
	Year     *int
	Types    []string
	Venues   []string
	Journal  string
	Keywords []string
	Authors  []string
	URL      string
}

// Type returns the first type label, or "" when none is known.
func (p PublicationRecord) Type() string {
	return first(p.Types)
}

// Venue returns the first venue, or "" when none is known.
func (p PublicationRecord) Venue() string {
	return first(p.Venues)
}

// YearOrZero returns the publication year, treating an unknown year as 0.
func (p PublicationRecord) YearOrZero() int {
	if p.Year == nil {
		return 0
	}
	return *p.Year
}

type publicationJSON struct {
	Title    string   `json:"title,omitempty"`
	Year     *int     `json:"year,omitempty"`
	Type     string   `json:"type,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// MarshalJSON renders the single-value view of list-or-scalar fields.
func (p PublicationRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicationJSON{
		Title:    p.Title,
		Year:     p.Year,
		Type:     p.Type(),
		Venue:    p.Venue(),
		Journal:  p.Journal,
		Keywords: p.Keywords,
		Authors:  p.Authors,
		URL:      p.URL,
	})
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
