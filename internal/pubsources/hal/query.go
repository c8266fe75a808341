package hal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/helixir/lab-stats-service/internal/domain"
)

const (
	// PersonRows caps the documents analysed for one researcher.
	PersonRows = 500

	// ProjectRows caps the documents analysed for one project.
	ProjectRows = 100

	// DefaultFacetLimit is the number of values returned per lab facet.
	DefaultFacetLimit = 20

	fieldList = "title_s,producedDateY_i,docType_s,keyword_s,authFullName_s,journalTitle_s,uri_s"
	sortOrder = "producedDateY_i desc"
)

// FacetFields maps canonical facet names to HAL index fields, in the order
// they are requested.
var FacetFields = []struct {
	Name  string
	Field string
}{
	{Name: "years", Field: "producedDateY_i"},
	{Name: "keywords", Field: "keyword_s"},
	{Name: "types", Field: "docType_s"},
	{Name: "authors", Field: "authFullName_s"},
	{Name: "journals", Field: "journalTitle_s"},
	{Name: "languages", Field: "language_s"},
	{Name: "structures", Field: "structName_s"},
}

// PersonQuery builds the parameters of an author lookup.
func PersonQuery(req domain.StatsRequest) url.Values {
	params := recordQuery(fmt.Sprintf("authFullName_t:%s", quote(req.CleanSubject())), PersonRows)
	addFilter(params, req)
	return params
}

// ProjectQuery builds the parameters of an exact-phrase project lookup
// across all indexed text.
func ProjectQuery(req domain.StatsRequest) url.Values {
	params := recordQuery(quote(req.CleanSubject()), ProjectRows)
	addFilter(params, req)
	return params
}

// LabQuery builds a rows=0 faceted query over every document attached to
// the structure acronym.
func LabQuery(req domain.StatsRequest, facetLimit int) url.Values {
	if facetLimit <= 0 {
		facetLimit = DefaultFacetLimit
	}

	params := url.Values{}
	params.Set("q", fmt.Sprintf("structAcronym_s:%s", quote(req.CleanSubject())))
	params.Set("wt", "json")
	params.Set("rows", "0")
	params.Set("facet", "true")
	params.Set("facet.mincount", "1")
	params.Set("facet.limit", strconv.Itoa(facetLimit))
	for _, f := range FacetFields {
		params.Add("facet.field", f.Field)
	}
	addFilter(params, req)
	return params
}

// FilterClause renders the optional year range and keyword constraints as a
// Solr filter query. It returns "" when req carries no filter.
//
// The keyword matches the tokenized keyword_t field so the upstream clause is
// never stricter than the local substring filter.
func FilterClause(req domain.StatsRequest) string {
	var clauses []string

	if req.HasYearFilter() {
		clauses = append(clauses, fmt.Sprintf("producedDateY_i:[%s TO %s]", bound(req.StartYear), bound(req.EndYear)))
	}
	if req.HasKeywordFilter() {
		clauses = append(clauses, "keyword_t:"+quote(strings.TrimSpace(req.Keyword)))
	}

	return strings.Join(clauses, " AND ")
}

func recordQuery(q string, rows int) url.Values {
	params := url.Values{}
	params.Set("q", q)
	params.Set("wt", "json")
	params.Set("fl", fieldList)
	params.Set("rows", strconv.Itoa(rows))
	params.Set("sort", sortOrder)
	return params
}

func addFilter(params url.Values, req domain.StatsRequest) {
	if fq := FilterClause(req); fq != "" {
		params.Set("fq", fq)
	}
}

func bound(v *int) string {
	if v == nil {
		return "*"
	}
	return strconv.Itoa(*v)
}

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote wraps s in a Solr phrase, escaping characters that would end it.
func quote(s string) string {
	return `"` + phraseEscaper.Replace(s) + `"`
}
