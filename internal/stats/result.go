package stats

import (
	"encoding/json"
	"errors"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// Outcome is one source's contribution to a lookup: either a summary or the
// error that prevented it.
type Outcome struct {
	Source domain.SourceType
	Stats  *domain.SubjectStats
	Err    error
}

// Failed reports whether the source could not be queried.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// MarshalJSON renders the summary, or an {error, source} block on failure.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(newErrorBlock(o.Source, o.Err))
	}
	if o.Stats == nil {
		return json.Marshal(domain.EmptySubjectStats(o.Source))
	}
	return json.Marshal(o.Stats)
}

// ErrorBlock is the wire form of a failed source.
type ErrorBlock struct {
	Error  string            `json:"error"`
	Source domain.SourceType `json:"source"`
}

func newErrorBlock(source domain.SourceType, err error) ErrorBlock {
	msg := err.Error()
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		msg = upstreamErr.Message()
	}
	return ErrorBlock{Error: msg, Source: source}
}

// PersonResult combines the HAL and DBLP summaries of one researcher.
type PersonResult struct {
	HAL  Outcome
	DBLP Outcome
}

// Partial reports whether exactly one of the two sources failed.
func (r *PersonResult) Partial() bool {
	return r.HAL.Failed() != r.DBLP.Failed()
}

// MarshalJSON implements json.Marshaler.
func (r *PersonResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		HAL     Outcome `json:"hal"`
		DBLP    Outcome `json:"dblp"`
		Partial bool    `json:"partial"`
	}{r.HAL, r.DBLP, r.Partial()})
}

// ProjectResult holds the HAL summary of one project.
type ProjectResult struct {
	HAL Outcome `json:"hal"`
}

// LabOutcome is the faceted HAL contribution to a lab lookup.
type LabOutcome struct {
	Source domain.SourceType
	Stats  *domain.LabFacetStats
	Err    error
}

// MarshalJSON renders the facets, or an {error, source} block on failure.
func (o LabOutcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(newErrorBlock(o.Source, o.Err))
	}
	return json.Marshal(o.Stats)
}

// UnsupportedSource marks a source that cannot answer a lookup kind at all.
// It is a static placeholder, not a failure.
type UnsupportedSource struct {
	Supported bool              `json:"supported"`
	Source    domain.SourceType `json:"source"`
	Message   string            `json:"message"`
}

// LabResult holds the lab-wide summary.
type LabResult struct {
	Lab  string            `json:"lab"`
	HAL  LabOutcome        `json:"hal"`
	DBLP UnsupportedSource `json:"dblp"`
}

func dblpLabPlaceholder() UnsupportedSource {
	return UnsupportedSource{
		Supported: false,
		Source:    domain.SourceTypeDBLP,
		Message:   "DBLP does not provide lab-wide faceted statistics",
	}
}
