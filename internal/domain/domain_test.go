package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("researcher", "jdoe")

	assert.Equal(t, "researcher not found: jdoe", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidInput))

	wrapped := fmt.Errorf("failed to get researcher: %w", err)
	var nf *NotFoundError
	require.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, "researcher", nf.Entity)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("start_year", "must be an integer year")

	assert.Equal(t, "validation error: start_year: must be an integer year", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestUpstreamError(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := NewUpstreamError(SourceTypeHAL, 503, errors.New("service unavailable"))
		assert.Equal(t, "HAL upstream error (status 503): service unavailable", err.Error())
		assert.Equal(t, "status 503: service unavailable", err.Message())
	})

	t.Run("network failure", func(t *testing.T) {
		err := NewUpstreamError(SourceTypeDBLP, 0, context.DeadlineExceeded)
		assert.Equal(t, "DBLP upstream error: context deadline exceeded", err.Error())
		assert.Equal(t, "context deadline exceeded", err.Message())
		assert.True(t, errors.Is(err, ErrUpstream))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("nil cause", func(t *testing.T) {
		err := NewUpstreamError(SourceTypeHAL, 0, nil)
		assert.Equal(t, "unknown error", err.Message())
		assert.True(t, errors.Is(err, ErrUpstream))
	})
}

func TestIsValidSourceType(t *testing.T) {
	assert.True(t, IsValidSourceType(SourceTypeHAL))
	assert.True(t, IsValidSourceType(SourceTypeDBLP))
	assert.False(t, IsValidSourceType("scopus"))
	assert.False(t, IsValidSourceType(""))
}

func TestRanking(t *testing.T) {
	r := Ranking{{Name: "zeta", Count: 5}, {Name: "alpha", Count: 2}}

	assert.Equal(t, 5, r.Get("zeta"))
	assert.Equal(t, 0, r.Get("missing"))
	assert.Equal(t, []string{"zeta", "alpha"}, r.Names())

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":5,"alpha":2}`, string(b), "keys keep rank order")

	b, err = json.Marshal(Ranking{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestEmptySubjectStatsJSON(t *testing.T) {
	b, err := json.Marshal(EmptySubjectStats(SourceTypeDBLP))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"found": false,
		"source": "DBLP",
		"total_publications": 0,
		"years_distribution": {},
		"types_distribution": {},
		"top_keywords": {},
		"top_collaborators": {},
		"top_journals": {},
		"top_venues": {},
		"recent_publications": []
	}`, string(b))
}

func TestPublicationRecordJSON(t *testing.T) {
	p := PublicationRecord{
		Title:  "Fuzzy fusion",
		Year:   IntPtr(2022),
		Types:  []string{"ART", "COMM"},
		Venues: []string{"FSS", "IPMU"},
	}

	assert.Equal(t, "ART", p.Type())
	assert.Equal(t, "FSS", p.Venue())
	assert.Equal(t, 2022, p.YearOrZero())

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Fuzzy fusion","year":2022,"type":"ART","venue":"FSS"}`, string(b))

	assert.Equal(t, 0, PublicationRecord{}.YearOrZero())
	assert.Equal(t, "", PublicationRecord{}.Type())
}

func TestStatsRequest(t *testing.T) {
	req := StatsRequest{Subject: "  Jane \t Doe  ", Keyword: "  "}

	assert.Equal(t, "Jane Doe", req.CleanSubject())
	assert.False(t, req.HasYearFilter())
	assert.False(t, req.HasKeywordFilter())

	req.EndYear = IntPtr(2020)
	req.Keyword = "fuzzy"
	assert.True(t, req.HasYearFilter())
	assert.True(t, req.HasKeywordFilter())
}
