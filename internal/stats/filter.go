package stats

import (
	"strings"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// Filter re-applies the request's year and keyword constraints to records
// locally. Sources without a native filter clause depend on it, and for
// sources that do filter server-side it is a no-op.
//
// A record of unknown year is never dropped by the year range. While a
// keyword filter is active, a record without keywords is dropped.
func Filter(records []domain.PublicationRecord, req domain.StatsRequest) []domain.PublicationRecord {
	if !req.HasYearFilter() && !req.HasKeywordFilter() {
		return records
	}

	term := strings.ToLower(strings.TrimSpace(req.Keyword))

	kept := make([]domain.PublicationRecord, 0, len(records))
	for _, r := range records {
		if !inYearRange(r.Year, req.StartYear, req.EndYear) {
			continue
		}
		if term != "" && !hasKeyword(r.Keywords, term) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func inYearRange(year, start, end *int) bool {
	if year == nil {
		return true
	}
	if start != nil && *year < *start {
		return false
	}
	if end != nil && *year > *end {
		return false
	}
	return true
}

// hasKeyword reports whether any keyword contains term. term must already
// be lower-cased.
func hasKeyword(keywords []string, term string) bool {
	for _, k := range keywords {
		if strings.Contains(strings.ToLower(k), term) {
			return true
		}
	}
	return false
}
