package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// Year bounds accepted for start_year and end_year.
const (
	minYear = 1000
	maxYear = 9999
)

// statsQuery holds the filter and subject parameters of a statistics lookup.
type statsQuery struct {
	Name      string `query:"name" validate:"max=300"`
	StartYear *int   `query:"start_year" validate:"omitempty,gte=1000,lte=9999"`
	EndYear   *int   `query:"end_year" validate:"omitempty,gte=1000,lte=9999"`
	Keyword   string `query:"keyword" validate:"max=200"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// parseStatsQuery reads and validates the lookup parameters of r. Year
// bounds are independent: start_year > end_year is accepted and simply
// matches nothing with a known year.
func (s *Server) parseStatsQuery(r *http.Request) (statsQuery, error) {
	values := r.URL.Query()
	q := statsQuery{
		Name:    strings.TrimSpace(values.Get("name")),
		Keyword: strings.TrimSpace(values.Get("keyword")),
	}

	var err error
	if q.StartYear, err = parseYear(values.Get("start_year"), "start_year"); err != nil {
		return q, err
	}
	if q.EndYear, err = parseYear(values.Get("end_year"), "end_year"); err != nil {
		return q, err
	}

	if err := s.validate.Struct(q); err != nil {
		return q, translateValidationError(err)
	}
	return q, nil
}

// request converts q into a StatsRequest for subject.
func (q statsQuery) request(kind domain.SubjectKind, subject string) domain.StatsRequest {
	return domain.StatsRequest{
		Subject:   subject,
		Kind:      kind,
		StartYear: q.StartYear,
		EndYear:   q.EndYear,
		Keyword:   q.Keyword,
	}
}

func parseYear(raw, field string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be an integer year")
	}
	return &year, nil
}

func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("query", err.Error())
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "gte", "lte":
		return domain.NewValidationError(fe.Field(), fmt.Sprintf("must be between %d and %d", minYear, maxYear))
	case "max":
		return domain.NewValidationError(fe.Field(), fmt.Sprintf("must be at most %s characters", fe.Param()))
	default:
		return domain.NewValidationError(fe.Field(), fmt.Sprintf("failed %q validation", fe.Tag()))
	}
}
