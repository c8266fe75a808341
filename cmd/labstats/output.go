package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/stats"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	failedColor  = color.New(color.FgRed, color.Bold)
	partialColor = color.New(color.FgYellow)
	mutedColor   = color.New(color.Faint)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderPerson(w io.Writer, name string, result *stats.PersonResult) error {
	headingColor.Fprintf(w, "Researcher: %s\n", name)
	if result.Partial() {
		partialColor.Fprintln(w, "partial result: one source could not be queried")
	}
	if err := renderOutcome(w, result.HAL); err != nil {
		return err
	}
	return renderOutcome(w, result.DBLP)
}

func renderProject(w io.Writer, name string, result *stats.ProjectResult) error {
	headingColor.Fprintf(w, "Project: %s\n", name)
	return renderOutcome(w, result.HAL)
}

// renderOutcome prints one source's summary, or its failure.
func renderOutcome(w io.Writer, o stats.Outcome) error {
	fmt.Fprintln(w)
	if o.Failed() {
		failedColor.Fprintf(w, "%s: unavailable\n", o.Source)
		mutedColor.Fprintln(w, o.Err.Error())
		return nil
	}

	s := o.Stats
	if s == nil {
		s = domain.EmptySubjectStats(o.Source)
	}
	headingColor.Fprintf(w, "%s\n", o.Source)
	if !s.Found {
		mutedColor.Fprintln(w, "no publications found")
		return nil
	}

	if err := renderKeyValues(w, []string{"Metric", "Value"}, [][]string{
		{"Publications", strconv.Itoa(s.TotalPublications)},
		{"Years", yearSpan(s.YearsDistribution)},
	}); err != nil {
		return err
	}

	if err := renderCountTable(w, "Year", yearRows(s.YearsDistribution)); err != nil {
		return err
	}
	if err := renderCountTable(w, "Type", mapRows(s.TypesDistribution)); err != nil {
		return err
	}
	for _, section := range []struct {
		title   string
		ranking domain.Ranking
	}{
		{"Keyword", s.TopKeywords},
		{"Collaborator", s.TopCollaborators},
		{"Journal", s.TopJournals},
		{"Venue", s.TopVenues},
	} {
		if err := renderCountTable(w, section.title, rankingRows(section.ranking)); err != nil {
			return err
		}
	}
	return renderRecent(w, s.RecentPublications)
}

func renderLab(w io.Writer, result *stats.LabResult) error {
	headingColor.Fprintf(w, "Lab: %s\n", result.Lab)
	if result.HAL.Err != nil {
		failedColor.Fprintf(w, "%s: unavailable\n", result.HAL.Source)
		mutedColor.Fprintln(w, result.HAL.Err.Error())
	} else if f := result.HAL.Stats; f != nil {
		fmt.Fprintf(w, "Documents: %d\n", f.TotalDocs)
		for _, facet := range []struct {
			title   string
			entries []domain.FacetEntry
		}{
			{"Year", f.Years},
			{"Type", f.Types},
			{"Keyword", f.Keywords},
			{"Author", f.Authors},
			{"Journal", f.Journals},
			{"Language", f.Languages},
			{"Partner structure", f.Structures},
		} {
			if err := renderCountTable(w, facet.title, facetRows(facet.entries)); err != nil {
				return err
			}
		}
	}
	mutedColor.Fprintf(w, "\n%s: %s\n", result.DBLP.Source, result.DBLP.Message)
	return nil
}

func renderRecent(w io.Writer, recent []domain.PublicationRecord) error {
	if len(recent) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(recent))
	for _, p := range recent {
		year := ""
		if p.Year != nil {
			year = strconv.Itoa(*p.Year)
		}
		rows = append(rows, []string{year, p.Title, p.Type(), p.Venue()})
	}
	return renderTable(w, []string{"Year", "Recent publication", "Type", "Venue"}, rows, tw.AlignLeft)
}

// renderCountTable prints name/count rows under the given title, skipping
// empty sections.
func renderCountTable(w io.Writer, title string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	return renderTable(w, []string{title, "Count"}, rows, tw.AlignRight)
}

func renderKeyValues(w io.Writer, headers []string, rows [][]string) error {
	return renderTable(w, headers, rows, tw.AlignLeft)
}

func renderTable(w io.Writer, headers []string, rows [][]string, align tw.Align) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = align
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// yearRows lists years newest first, with unknown years (0) last.
func yearRows(dist map[int]int) [][]string {
	years := make([]int, 0, len(dist))
	for y := range dist {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool {
		if (years[i] == 0) != (years[j] == 0) {
			return years[j] == 0
		}
		return years[i] > years[j]
	})

	rows := make([][]string, 0, len(years))
	for _, y := range years {
		label := strconv.Itoa(y)
		if y == 0 {
			label = "unknown"
		}
		rows = append(rows, []string{label, strconv.Itoa(dist[y])})
	}
	return rows
}

func yearSpan(dist map[int]int) string {
	lo, hi := 0, 0
	for y := range dist {
		if y == 0 {
			continue
		}
		if lo == 0 || y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	switch {
	case lo == 0:
		return "-"
	case lo == hi:
		return strconv.Itoa(lo)
	default:
		return fmt.Sprintf("%d-%d", lo, hi)
	}
}

// mapRows sorts by count, then name, for stable output.
func mapRows(dist map[string]int) [][]string {
	ranking := make(domain.Ranking, 0, len(dist))
	for name, n := range dist {
		ranking = append(ranking, domain.RankEntry{Name: name, Count: n})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Name < ranking[j].Name
	})
	return rankingRows(ranking)
}

func rankingRows(r domain.Ranking) [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		rows = append(rows, []string{e.Name, strconv.Itoa(e.Count)})
	}
	return rows
}

func facetRows(entries []domain.FacetEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, strconv.Itoa(e.Value)})
	}
	return rows
}

// detailSummary renders a profile's extra fields as "key: value" pairs in
// key order, for the catalog listing.
func detailSummary(details map[string]any, limit int) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(parts) == limit {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, details[k]))
	}
	return strings.Join(parts, ", ")
}
