package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore keeps graded attempts in quiz_attempts, one row per (quiz, student).
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) GetAttempt(ctx context.Context, quizID, studentID string) (domain.StudentQuizAttempt, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM quiz_attempts WHERE quiz_id=$1 AND student_id=$2`, quizID, studentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StudentQuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.StudentQuizAttempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return decodeAttempt(raw)
}

func (s *AttemptStore) PutAttempt(ctx context.Context, attempt domain.StudentQuizAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (quiz_id, student_id, classroom_id, points_obtained, data, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		ON CONFLICT (quiz_id, student_id) DO UPDATE SET
			classroom_id=EXCLUDED.classroom_id,
			points_obtained=EXCLUDED.points_obtained,
			data=EXCLUDED.data,
			submitted_at=EXCLUDED.submitted_at,
			updated_at=EXCLUDED.updated_at`,
		attempt.QuizID, attempt.StudentID, attempt.ClassroomID, attempt.PointsObtained, string(data), attempt.CreatedAt, attempt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.StudentQuizAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (quiz_id, student_id, classroom_id, points_obtained, data, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		ON CONFLICT (quiz_id, student_id) DO NOTHING`,
		attempt.QuizID, attempt.StudentID, attempt.ClassroomID, attempt.PointsObtained, string(data), attempt.CreatedAt, attempt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptExists
	}
	return nil
}

func (s *AttemptStore) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.StudentQuizAttempt, error) {
	return s.query(ctx, `SELECT data FROM quiz_attempts WHERE quiz_id=$1 ORDER BY submitted_at, student_id`, quizID)
}

func (s *AttemptStore) ListAttemptsByClassroom(ctx context.Context, classroomID string) ([]domain.StudentQuizAttempt, error) {
	return s.query(ctx, `SELECT data FROM quiz_attempts WHERE classroom_id=$1 ORDER BY quiz_id, student_id`, classroomID)
}

func (s *AttemptStore) query(ctx context.Context, sql string, arg string) ([]domain.StudentQuizAttempt, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StudentQuizAttempt, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		attempt, err := decodeAttempt(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

func decodeAttempt(raw []byte) (domain.StudentQuizAttempt, error) {
	var attempt domain.StudentQuizAttempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.StudentQuizAttempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}
