package app

import "classroom-quiz-service/internal/domain"

// GeneralFilter selects every question of every quiz in the classroom.
const GeneralFilter = "general"

// Aggregate sums attempt points per roster student. With a competency id only
// question attempts tagged with it contribute. Students without attempts
// stand at zero; attempts of students outside the roster are ignored.
func Aggregate(roster []domain.Student, attempts []domain.StudentQuizAttempt, competencyID string) []domain.Standing {
	points := make(map[string]int, len(roster))
	for _, attempt := range attempts {
		if competencyID == "" || competencyID == GeneralFilter {
			points[attempt.StudentID] += attempt.PointsObtained
			continue
		}
		for _, q := range attempt.Questions {
			if hasCompetency(q.CompetencesID, competencyID) {
				points[attempt.StudentID] += q.PointsObtained
			}
		}
	}

	standings := make([]domain.Standing, 0, len(roster))
	for _, student := range roster {
		standings = append(standings, domain.Standing{
			Student:        student,
			ObtainedPoints: points[student.ID],
		})
	}
	return standings
}

func hasCompetency(ids []string, id string) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
