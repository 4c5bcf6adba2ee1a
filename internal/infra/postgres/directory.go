package postgres

import (
	"context"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Directory reads the classroom roster and competencies.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// ListStudents returns the roster in join order.
func (d *Directory) ListStudents(ctx context.Context, classroomID string) ([]domain.Student, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT student_id, name, last_name, email
		FROM classroom_students
		WHERE classroom_id=$1
		ORDER BY joined_at, student_id`, classroomID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Student, 0)
	for rows.Next() {
		var st domain.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.LastName, &st.Email); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (d *Directory) GetCompetency(ctx context.Context, competencyID string) (domain.Competency, error) {
	var c domain.Competency
	err := d.pool.QueryRow(ctx,
		`SELECT id, classroom_id, name, description FROM competencies WHERE id=$1`, competencyID).
		Scan(&c.ID, &c.ClassroomID, &c.Name, &c.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Competency{}, domain.ErrCompetencyNotFound
	}
	if err != nil {
		return domain.Competency{}, fmt.Errorf("load competency: %w", err)
	}
	return c, nil
}

// AddStudent enrolls a student; used by seeding and tests.
func (d *Directory) AddStudent(ctx context.Context, classroomID string, st domain.Student) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO classroom_students (classroom_id, student_id, name, last_name, email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (classroom_id, student_id) DO UPDATE SET
			name=EXCLUDED.name, last_name=EXCLUDED.last_name, email=EXCLUDED.email`,
		classroomID, st.ID, st.Name, st.LastName, st.Email)
	return err
}

func (d *Directory) AddCompetency(ctx context.Context, c domain.Competency) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO competencies (id, classroom_id, name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			classroom_id=EXCLUDED.classroom_id, name=EXCLUDED.name, description=EXCLUDED.description`,
		c.ID, c.ClassroomID, c.Name, c.Description)
	return err
}
