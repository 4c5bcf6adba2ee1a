package app

import (
	"sort"

	"classroom-quiz-service/internal/domain"
)

// Rank orders standings by points, highest first, and numbers them 1..N.
// Equal points are not collapsed: they keep their input order and receive
// consecutive, distinct rankings.
func Rank(standings []domain.Standing) []domain.StudentResult {
	sorted := make([]domain.Standing, len(standings))
	copy(sorted, standings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ObtainedPoints > sorted[j].ObtainedPoints
	})

	results := make([]domain.StudentResult, 0, len(sorted))
	for i, s := range sorted {
		results = append(results, domain.StudentResult{
			Ranking:        i + 1,
			ObtainedPoints: s.ObtainedPoints,
			Student:        s.Student,
		})
	}
	return results
}

// Podium returns the occupants of positions 1, 2 and 3. Vacant positions are nil.
func Podium(results []domain.StudentResult) [3]*domain.StudentResult {
	var podium [3]*domain.StudentResult
	for i := range results {
		r := results[i]
		if r.Ranking >= 1 && r.Ranking <= 3 {
			podium[r.Ranking-1] = &r
		}
	}
	return podium
}
