// Package ranking merges per-user tier lists of a category into one global
// ranking.
package ranking

import (
	"math"
	"sort"

	"gamerank/backend/internal/models"
)

// Entry is one game's standing in the global ranking of a category.
type Entry struct {
	Game            models.Game
	Score           float64 // mean points, 2 decimals
	AveragePosition float64 // mean 1-based position, 1 decimal
	Votes           int
}

type tally struct {
	points    int
	positions int
	votes     int
}

// Aggregate scores games from the rankings of one category. In a list of N
// codes the game at index i earns N-i points and position i+1. Games that no
// ranking mentions are left out, as are ranked codes missing from games.
// Entries are ordered by score descending, then by game code.
func Aggregate(rankings []models.Ranking, games []models.Game) []Entry {
	tallies := make(map[int]*tally)
	for _, r := range rankings {
		n := len(r.RankedGames)
		for i, code := range r.RankedGames {
			t, ok := tallies[code]
			if !ok {
				t = &tally{}
				tallies[code] = t
			}
			t.points += n - i
			t.positions += i + 1
			t.votes++
		}
	}

	entries := make([]Entry, 0, len(tallies))
	seen := make(map[int]bool, len(games))
	for _, g := range games {
		t, ok := tallies[g.Code]
		if !ok || seen[g.Code] {
			continue
		}
		seen[g.Code] = true
		votes := float64(t.votes)
		entries = append(entries, Entry{
			Game:            g,
			Score:           round(float64(t.points)/votes, 2),
			AveragePosition: round(float64(t.positions)/votes, 1),
			Votes:           t.votes,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Game.Code < entries[j].Game.Code
	})
	return entries
}

// Validate checks that codes are distinct games of the category. It returns
// the first offending code and false when the list is not acceptable.
func Validate(codes []int, games []models.Game) (int, bool) {
	allowed := make(map[int]bool, len(games))
	for _, g := range games {
		allowed[g.Code] = true
	}
	used := make(map[int]bool, len(codes))
	for _, code := range codes {
		if !allowed[code] || used[code] {
			return code, false
		}
		used[code] = true
	}
	return 0, true
}

// Split partitions the category's games into the caller's ranked order and the
// games not yet ranked, keeping catalog order for the latter.
func Split(codes []int, games []models.Game) (ranked, unranked []models.Game) {
	byCode := make(map[int]models.Game, len(games))
	for _, g := range games {
		byCode[g.Code] = g
	}
	ranked = []models.Game{}
	inList := make(map[int]bool, len(codes))
	for _, code := range codes {
		g, ok := byCode[code]
		if !ok || inList[code] {
			continue
		}
		inList[code] = true
		ranked = append(ranked, g)
	}
	unranked = []models.Game{}
	for _, g := range games {
		if !inList[g.Code] {
			unranked = append(unranked, g)
		}
	}
	return ranked, unranked
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
