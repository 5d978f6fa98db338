package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-attempt-service/internal/domain"
)

// QuizLoader reads quiz content straight from Postgres for the cache layer.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx, `
		SELECT id, code, title, description, max_marks, number_of_questions, active,
		       creator_id, teacher_id, created_at
		FROM quizzes WHERE id = $1`, quizID).Scan(
		&quiz.ID, &quiz.Code, &quiz.Title, &quiz.Description, &quiz.MaxMarks,
		&quiz.NumberOfQuestions, &quiz.Active, &quiz.CreatorID, &quiz.TeacherID, &quiz.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizContent{}, fmt.Errorf("%w: quiz %d", domain.ErrNotFound, quizID)
	}
	if err != nil {
		return domain.QuizContent{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, quiz_id, content, image, option1, option2, option3, option4, answer
		FROM questions WHERE quiz_id = $1 ORDER BY id`, quizID)
	if err != nil {
		return domain.QuizContent{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, quiz.NumberOfQuestions)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Content, &q.Image,
			&q.Option1, &q.Option2, &q.Option3, &q.Option4, &q.Answer); err != nil {
			return domain.QuizContent{}, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.QuizContent{}, fmt.Errorf("load questions: %w", err)
	}
	return domain.QuizContent{Quiz: quiz, Questions: questions}, nil
}
