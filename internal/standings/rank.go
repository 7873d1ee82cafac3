package standings

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/XavierBriggs/Pallas/pkg/models"
)

// Ranker orders standings with the tie-break chain:
// points, two-team head-to-head, goal difference, goals for, team name.
// A Ranker is not safe for concurrent use; the collator keeps internal buffers.
type Ranker struct {
	collator *collate.Collator
}

// NewRanker creates a ranker whose final name tie-break follows the collation
// rules of tag
func NewRanker(tag language.Tag) *Ranker {
	return &Ranker{collator: collate.New(tag)}
}

// Rank sorts entries in place
func (r *Ranker) Rank(entries []*models.TeamStanding) {
	tiedOnPoints := make(map[int]int, len(entries))
	for _, e := range entries {
		tiedOnPoints[e.Points]++
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return r.compare(entries[i], entries[j], tiedOnPoints) < 0
	})
}

// compare returns a negative value when a ranks above b
func (r *Ranker) compare(a, b *models.TeamStanding, tiedOnPoints map[int]int) int {
	if a.Points != b.Points {
		return b.Points - a.Points
	}

	// Head-to-head only settles a tie between exactly two teams. Larger tied
	// groups fall straight through to goal difference.
	if tiedOnPoints[a.Points] == 2 {
		aPts := headToHeadPoints(a, b.TeamName)
		bPts := headToHeadPoints(b, a.TeamName)
		if aPts != bPts {
			return bPts - aPts
		}
	}

	if a.GoalDifference != b.GoalDifference {
		return b.GoalDifference - a.GoalDifference
	}

	if a.GoalsFor != b.GoalsFor {
		return b.GoalsFor - a.GoalsFor
	}

	if c := r.collator.CompareString(a.TeamName, b.TeamName); c != 0 {
		return c
	}

	// Collation can treat distinct names as equal (e.g. case); fall back to bytes.
	switch {
	case a.TeamName < b.TeamName:
		return -1
	case a.TeamName > b.TeamName:
		return 1
	default:
		return 0
	}
}
