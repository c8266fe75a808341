package dblp

import (
	"net/url"
	"strconv"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// PersonHits caps the hits analysed for one researcher.
const PersonHits = 500

// PersonQuery builds the parameters of a free-text author lookup. DBLP has
// no filter-query clause and no year range syntax, so year and keyword
// constraints are never sent: the caller filters the PersonHits records.
func PersonQuery(req domain.StatsRequest) url.Values {
	params := url.Values{}
	params.Set("q", req.CleanSubject())
	params.Set("format", "json")
	params.Set("h", strconv.Itoa(PersonHits))
	return params
}
