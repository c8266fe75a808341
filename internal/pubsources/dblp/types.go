package dblp

import (
	"encoding/json"

	"github.com/helixir/lab-stats-service/internal/pubsources"
)

// SearchResponse is the top-level document returned by the DBLP
// publication search API.
type SearchResponse struct {
	Result Result `json:"result"`
}

// Result wraps the hit list.
type Result struct {
	Hits Hits `json:"hits"`
}

// Hits carries the match count and the hits themselves. DBLP reports counts
// as strings.
type Hits struct {
	Total    json.Number `json:"@total"`
	Computed json.Number `json:"@computed"`
	Sent     json.Number `json:"@sent"`
	Hit      []Hit       `json:"hit"`
}

// Hit is one search hit.
type Hit struct {
	Score json.Number `json:"@score"`
	ID    string      `json:"@id"`
	Info  Info        `json:"info"`
}

// Info is the bibliographic payload of a hit. Venue and type appear either
// as a string or as a list; author entries are objects with a text member,
// a bare object when there is a single author, or plain strings in older
// exports.
type Info struct {
	Authors Authors               `json:"authors"`
	Title   pubsources.StringList `json:"title"`
	Venue   pubsources.StringList `json:"venue"`
	Year    pubsources.FlexYear   `json:"year"`
	Type    pubsources.StringList `json:"type"`
	Key     string                `json:"key"`
	DOI     string                `json:"doi"`
	EE      pubsources.StringList `json:"ee"`
	URL     string                `json:"url"`
}

// Authors holds the author block.
type Authors struct {
	Author pubsources.StringList `json:"author"`
}
