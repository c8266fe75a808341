package domain

import (
	"strings"
)

// SubjectKind identifies what a statistics lookup is about.
type SubjectKind string

const (
	SubjectKindPerson  SubjectKind = "person"
	SubjectKindProject SubjectKind = "project"
	SubjectKindLab     SubjectKind = "lab"
)

// StatsRequest is the canonical input of every statistics lookup.
//
// StartYear and EndYear are independent optional bounds. The engine does not
// require StartYear <= EndYear; a record passes when it satisfies every bound
// that is present.
type StatsRequest struct {
	Subject   string
	Kind      SubjectKind
	StartYear *int
	EndYear   *int
	Keyword   string
}

// HasYearFilter reports whether either year bound is set.
func (r StatsRequest) HasYearFilter() bool {
	return r.StartYear != nil || r.EndYear != nil
}

// HasKeywordFilter reports whether a non-blank keyword filter is set.
func (r StatsRequest) HasKeywordFilter() bool {
	return strings.TrimSpace(r.Keyword) != ""
}

// CleanSubject returns the subject with runs of whitespace collapsed to a single space.
func (r StatsRequest) CleanSubject() string {
	return CollapseSpaces(r.Subject)
}

// CollapseSpaces trims s and replaces every run of whitespace with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
