package stats

import (
	"sort"
	"strings"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// Ranking sizes.
const (
	TopKeywordsLimit      = 20
	TopCollaboratorsLimit = 10
	TopJournalsLimit      = 10
	TopVenuesLimit        = 10
	RecentLimit           = 5
)

// SameName reports whether two author names denote the same person:
// whitespace runs collapsed, case folded, then compared exactly.
// Accents are not normalized.
func SameName(a, b string) bool {
	return strings.ToLower(domain.CollapseSpaces(a)) == strings.ToLower(domain.CollapseSpaces(b))
}

// Aggregate reduces records into a bounded summary. Authors matching self
// (see SameName) are left out of the collaborator ranking; an empty self
// keeps every author.
//
// An empty record set yields a successful summary with Found=false.
func Aggregate(records []domain.PublicationRecord, source domain.SourceType, self string) *domain.SubjectStats {
	if len(records) == 0 {
		return domain.EmptySubjectStats(source)
	}

	years := make(map[int]int)
	types := newCounter()
	keywords := newCounter()
	collaborators := newCounter()
	journals := newCounter()
	venues := newCounter()

	for _, r := range records {
		if r.Year != nil {
			years[*r.Year]++
		}
		types.add(r.Type())
		keywords.addAll(r.Keywords)
		journals.add(r.Journal)
		venues.addAll(r.Venues)

		for _, a := range r.Authors {
			if self != "" && SameName(a, self) {
				continue
			}
			collaborators.add(a)
		}
	}

	return &domain.SubjectStats{
		Found:              true,
		Source:             source,
		TotalPublications:  len(records),
		YearsDistribution:  years,
		TypesDistribution:  types.distribution(),
		TopKeywords:        keywords.top(TopKeywordsLimit),
		TopCollaborators:   collaborators.top(TopCollaboratorsLimit),
		TopJournals:        journals.top(TopJournalsLimit),
		TopVenues:          venues.top(TopVenuesLimit),
		RecentPublications: recent(records, RecentLimit),
	}
}

// recent returns the first n records after a stable sort by year
// descending; unknown years sort as 0.
func recent(records []domain.PublicationRecord, n int) []domain.PublicationRecord {
	sorted := make([]domain.PublicationRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].YearOrZero() > sorted[j].YearOrZero()
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
