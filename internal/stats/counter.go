package stats

import (
	"sort"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// counter tallies string occurrences while remembering the order in which
// each value was first seen, so rankings break ties deterministically.
type counter struct {
	index   map[string]int
	entries []domain.RankEntry
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

// add counts one occurrence of value. Empty values are ignored.
func (c *counter) add(value string) {
	if value == "" {
		return
	}
	if i, ok := c.index[value]; ok {
		c.entries[i].Count++
		return
	}
	c.index[value] = len(c.entries)
	c.entries = append(c.entries, domain.RankEntry{Name: value, Count: 1})
}

func (c *counter) addAll(values []string) {
	for _, v := range values {
		c.add(v)
	}
}

// top returns at most n entries ordered by count descending; equal counts
// keep first-seen order.
func (c *counter) top(n int) domain.Ranking {
	ranked := make(domain.Ranking, len(c.entries))
	copy(ranked, c.entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// distribution returns the counts as a plain map.
func (c *counter) distribution() map[string]int {
	out := make(map[string]int, len(c.entries))
	for _, e := range c.entries {
		out[e.Name] = e.Count
	}
	return out
}
