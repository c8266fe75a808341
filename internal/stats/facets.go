package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/pubsources"
)

// LabIdentity names the lab whose own entries are excluded from its
// collaborating-structures facet.
type LabIdentity struct {
	Acronym string
	Name    string
}

// TranslateFacets turns raw facet sequences into ranked entries. Upstream
// order is preserved except that years are sorted ascending and the
// structures facet drops the lab itself.
func TranslateFacets(result *pubsources.FacetResult, lab LabIdentity) *domain.LabFacetStats {
	field := func(name string) []domain.FacetEntry {
		if result == nil {
			return []domain.FacetEntry{}
		}
		return PairFacet(result.Fields[name])
	}

	out := &domain.LabFacetStats{
		Years:      sortYears(field("years")),
		Keywords:   field("keywords"),
		Types:      field("types"),
		Authors:    field("authors"),
		Journals:   field("journals"),
		Languages:  field("languages"),
		Structures: excludeLab(field("structures"), lab),
	}
	if result != nil {
		out.TotalDocs = result.TotalDocs
	}
	return out
}

// PairFacet converts a flat [name1, count1, name2, count2, ...] sequence into
// entries, preserving order. A trailing unpaired element is ignored.
func PairFacet(values []any) []domain.FacetEntry {
	entries := make([]domain.FacetEntry, 0, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		entries = append(entries, domain.FacetEntry{
			Name:  facetName(values[i]),
			Value: facetCount(values[i+1]),
		})
	}
	return entries
}

func sortYears(entries []domain.FacetEntry) []domain.FacetEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return yearValue(entries[i].Name) < yearValue(entries[j].Name)
	})
	return entries
}

func yearValue(name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil {
		return 0
	}
	return n
}

func excludeLab(entries []domain.FacetEntry, lab LabIdentity) []domain.FacetEntry {
	var needles []string
	for _, s := range []string{lab.Acronym, lab.Name} {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			needles = append(needles, s)
		}
	}
	if len(needles) == 0 {
		return entries
	}

	kept := make([]domain.FacetEntry, 0, len(entries))
	for _, e := range entries {
		name := strings.ToLower(e.Name)
		self := false
		for _, n := range needles {
			if strings.Contains(name, n) {
				self = true
				break
			}
		}
		if !self {
			kept = append(kept, e)
		}
	}
	return kept
}

func facetName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func facetCount(v any) int {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t))
	case int:
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return int(math.Round(f))
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return 0
}
