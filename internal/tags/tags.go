// Package tags derives topical tags from conversation text.
package tags

import (
	"sort"
	"strings"

	"leona-console/internal/domain"
)

// Vocabulary is the fixed set of domain terms recognised as tags.
var Vocabulary = []string{
	"deforestation",
	"urban heat",
	"irrigation",
	"agriculture",
	"crop",
	"forest",
	"vegetation",
	"ndvi",
	"drought",
	"water",
	"temperature",
	"climate",
	"flood",
	"wildfire",
	"land use",
	"satellite",
	"sentinel",
	"landsat",
}

// Extract returns up to domain.MaxTags vocabulary terms found in the
// messages, ordered by where each term first appears.
func Extract(msgs []domain.Message) []string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.IsSeed() {
			continue
		}
		parts = append(parts, m.Content.String())
	}
	return FromText(strings.Join(parts, "\n"))
}

// FromText is Extract over a single text.
func FromText(text string) []string {
	lower := strings.ToLower(text)

	type hit struct {
		term string
		pos  int
		rank int
	}
	var hits []hit
	for rank, term := range Vocabulary {
		if pos := strings.Index(lower, term); pos >= 0 {
			hits = append(hits, hit{term: term, pos: pos, rank: rank})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].rank < hits[j].rank
	})

	out := make([]string, 0, domain.MaxTags)
	for _, h := range hits {
		if len(out) == domain.MaxTags {
			break
		}
		out = append(out, h.term)
	}
	return out
}
