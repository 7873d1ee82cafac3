// Package standings derives a ranked league table from a fixture list.
//
// The table is rebuilt from scratch on every call. Nothing is cached between
// computations, so the result is a pure function of the matches passed in.
package standings

import (
	"golang.org/x/text/language"

	"github.com/XavierBriggs/Pallas/pkg/models"
)

// Engine computes standings
type Engine struct {
	locale language.Tag
}

// NewEngine creates a standings engine. locale drives the alphabetical
// tie-break; language.Und falls back to the root collation order.
func NewEngine(locale language.Tag) *Engine {
	return &Engine{locale: locale}
}

// Compute aggregates matches and returns the fully ranked table. An empty
// fixture list yields an empty, non-nil table.
func (e *Engine) Compute(matches []models.Match) []models.TeamStanding {
	entries := aggregate(matches)

	NewRanker(e.locale).Rank(entries)

	result := make([]models.TeamStanding, len(entries))
	for i, entry := range entries {
		result[i] = *entry
	}
	return result
}
