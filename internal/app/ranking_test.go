package app_test

import (
	"testing"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

func standings(points ...int) []domain.Standing {
	out := make([]domain.Standing, len(points))
	for i, p := range points {
		out[i] = domain.Standing{Student: domain.Student{ID: string(rune('a' + i))}, ObtainedPoints: p}
	}
	return out
}

func TestRankTiesGetDistinctRankings(t *testing.T) {
	results := app.Rank(standings(70, 90, 90))

	want := []struct {
		id      string
		ranking int
		points  int
	}{{"b", 1, 90}, {"c", 2, 90}, {"a", 3, 70}}
	for i, w := range want {
		r := results[i]
		if r.Student.ID != w.id || r.Ranking != w.ranking || r.ObtainedPoints != w.points {
			t.Fatalf("position %d: expected %+v, got %+v", i, w, r)
		}
	}
}

func TestRankIsIdempotent(t *testing.T) {
	first := app.Rank(standings(10, 40, 20, 40, 0))
	again := make([]domain.Standing, len(first))
	for i, r := range first {
		again[i] = domain.Standing{Student: r.Student, ObtainedPoints: r.ObtainedPoints}
	}
	second := app.Rank(again)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ranking changed at %d: %+v vs %+v", i, first[i], second[i])
		}
		if first[i].Ranking != i+1 {
			t.Fatalf("rankings must be contiguous, got %d at %d", first[i].Ranking, i)
		}
	}
	if first[0].ObtainedPoints != 40 {
		t.Fatalf("rank 1 must hold the maximum, got %d", first[0].ObtainedPoints)
	}
}

func TestPodiumVacancies(t *testing.T) {
	podium := app.Podium(app.Rank(standings(5, 8)))
	if podium[0] == nil || podium[0].ObtainedPoints != 8 {
		t.Fatalf("unexpected first place %+v", podium[0])
	}
	if podium[1] == nil || podium[1].ObtainedPoints != 5 {
		t.Fatalf("unexpected second place %+v", podium[1])
	}
	if podium[2] != nil {
		t.Fatalf("third place should be vacant, got %+v", podium[2])
	}
	if empty := app.Podium(nil); empty != [3]*domain.StudentResult{} {
		t.Fatalf("expected empty podium")
	}
}

func TestAggregateByCompetency(t *testing.T) {
	roster := []domain.Student{{ID: "s1"}, {ID: "s2"}}
	attempt := domain.StudentQuizAttempt{
		StudentID:      "s1",
		PointsObtained: 8,
		Questions: []domain.QuestionAttempt{
			{Question: domain.Question{ID: "q1", CompetencesID: []string{"comp-geo"}}, PointsObtained: 5},
			{Question: domain.Question{ID: "q2", CompetencesID: []string{"comp-read"}}, PointsObtained: 3},
		},
	}
	outsider := domain.StudentQuizAttempt{StudentID: "s9", PointsObtained: 100}

	general := app.Aggregate(roster, []domain.StudentQuizAttempt{attempt, outsider}, app.GeneralFilter)
	if len(general) != 2 || general[0].ObtainedPoints != 8 || general[1].ObtainedPoints != 0 {
		t.Fatalf("unexpected general standings %+v", general)
	}
	geo := app.Aggregate(roster, []domain.StudentQuizAttempt{attempt}, "comp-geo")
	if geo[0].ObtainedPoints != 5 {
		t.Fatalf("expected 5 geography points, got %d", geo[0].ObtainedPoints)
	}
}
