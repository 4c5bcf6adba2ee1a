package cli

import (
	"time"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
)

const demoClassroom = "classroom-1"

// sampleData seeds a demo classroom with one open quiz; swap for Postgres in production.
func sampleData(now time.Time) (map[string]domain.QuizDefinition, *memory.Directory) {
	start := now.Add(-time.Minute)
	end := now.Add(2 * time.Hour)
	questions := []domain.Question{
		{
			ID:            "q1",
			Statement:     "What is the capital of France?",
			Points:        5,
			AnswerBase:    domain.FreeTextBase(),
			AnswerCorrect: "Paris",
			CompetencesID: []string{"comp-geo"},
		},
		{
			ID:            "q2",
			Statement:     "Which option is the letter B?",
			Points:        5,
			AnswerBase:    domain.MultipleChoiceBase("A", "B", "C"),
			AnswerCorrect: "B",
			CompetencesID: []string{"comp-read"},
		},
	}
	quizzes := map[string]domain.QuizDefinition{
		"quiz-1": {
			ID:          "quiz-1",
			ClassroomID: demoClassroom,
			Title:       "Welcome quiz",
			Instruction: "Answer both questions before the time runs out.",
			StartTime:   &start,
			EndTime:     &end,
			Questions:   questions,
			TotalPoints: domain.SumPoints(questions),
			CreatedAt:   now,
		},
	}

	directory := memory.NewDirectory()
	directory.AddStudents(demoClassroom,
		domain.Student{ID: "student-1", Name: "Ana", LastName: "Torres", Email: "ana@example.com"},
		domain.Student{ID: "student-2", Name: "Luis", LastName: "Rojas", Email: "luis@example.com"},
		domain.Student{ID: "student-3", Name: "Sara", LastName: "Quispe", Email: "sara@example.com"},
	)
	directory.AddCompetency(domain.Competency{ID: "comp-geo", ClassroomID: demoClassroom, Name: "Geography", Description: "Places and capitals"})
	directory.AddCompetency(domain.Competency{ID: "comp-read", ClassroomID: demoClassroom, Name: "Reading", Description: "Reading comprehension"})
	return quizzes, directory
}
