package memory

import (
	"context"
	"errors"
	"testing"

	"classroom-quiz-service/internal/domain"
)

func TestDirectoryRosterAndCompetencies(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory()
	dir.AddStudents("classroom-1", domain.Student{ID: "s2"}, domain.Student{ID: "s1"})
	dir.AddCompetency(domain.Competency{ID: "comp-geo", Name: "Geography"})

	roster, _ := dir.ListStudents(ctx, "classroom-1")
	if len(roster) != 2 || roster[0].ID != "s2" {
		t.Fatalf("roster should keep insertion order, got %+v", roster)
	}
	roster[0].ID = "mutated"
	again, _ := dir.ListStudents(ctx, "classroom-1")
	if again[0].ID != "s2" {
		t.Fatalf("roster must be returned as a copy")
	}

	if _, err := dir.GetCompetency(ctx, "comp-geo"); err != nil {
		t.Fatalf("get competency: %v", err)
	}
	if _, err := dir.GetCompetency(ctx, "comp-x"); !errors.Is(err, domain.ErrCompetencyNotFound) {
		t.Fatalf("expected competency not found, got %v", err)
	}
}
