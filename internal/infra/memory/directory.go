package memory

import (
	"context"
	"sync"

	"classroom-quiz-service/internal/domain"
)

// Directory is an in-memory classroom roster and competency catalogue.
type Directory struct {
	mu           sync.RWMutex
	students     map[string][]domain.Student
	competencies map[string]domain.Competency
}

func NewDirectory() *Directory {
	return &Directory{
		students:     make(map[string][]domain.Student),
		competencies: make(map[string]domain.Competency),
	}
}

// AddStudents appends students to a classroom roster, keeping insertion order.
func (d *Directory) AddStudents(classroomID string, students ...domain.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.students[classroomID] = append(d.students[classroomID], students...)
}

func (d *Directory) AddCompetency(c domain.Competency) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.competencies[c.ID] = c
}

func (d *Directory) ListStudents(_ context.Context, classroomID string) ([]domain.Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.Student(nil), d.students[classroomID]...), nil
}

func (d *Directory) GetCompetency(_ context.Context, competencyID string) (domain.Competency, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.competencies[competencyID]
	if !ok {
		return domain.Competency{}, domain.ErrCompetencyNotFound
	}
	return c, nil
}
