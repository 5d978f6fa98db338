package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore implements app.AttemptRepository. The partial unique indexes created by the
// migrations back the one-open/one-completed rule; violations surface as ErrDuplicateAttempt.
type AttemptStore struct {
	*Store
}

func (s *AttemptStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runInTx(ctx, func(ctx context.Context, _ bun.IDB) error {
		return fn(ctx)
	})
}

func (s *AttemptStore) Create(ctx context.Context, attempt *domain.Attempt) error {
	row := attemptFromDomain(*attempt)
	row.ID = 0
	if _, err := s.idb(ctx).NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: student %d quiz %d", domain.ErrDuplicateAttempt, attempt.StudentID, attempt.QuizID)
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	attempt.ID = row.ID
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, id int64) (domain.Attempt, error) {
	var row attemptRow
	err := s.idb(ctx).NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if isNoRows(err) {
		return domain.Attempt{}, fmt.Errorf("%w: attempt %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("select attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (s *AttemptStore) FindByStudentQuiz(ctx context.Context, studentID, quizID int64, completed bool) (domain.Attempt, error) {
	var row attemptRow
	err := s.byStudentQuiz(ctx, &row, studentID, quizID, completed).Limit(1).Scan(ctx)
	if isNoRows(err) {
		return domain.Attempt{}, fmt.Errorf("%w: attempt for student %d quiz %d", domain.ErrNotFound, studentID, quizID)
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("select attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (s *AttemptStore) ExistsByStudentQuiz(ctx context.Context, studentID, quizID int64, completed bool) (bool, error) {
	ok, err := s.byStudentQuiz(ctx, (*attemptRow)(nil), studentID, quizID, completed).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("attempt exists: %w", err)
	}
	return ok, nil
}

func (s *AttemptStore) ListByStudent(ctx context.Context, studentID int64, completed bool) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := s.idb(ctx).NewSelect().Model(&rows).
		Where("student_id = ?", studentID).
		Where("completed = ?", completed).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attemptsToDomain(rows), nil
}

func (s *AttemptStore) ListByQuizzes(ctx context.Context, quizIDs ...int64) ([]domain.Attempt, error) {
	if len(quizIDs) == 0 {
		return []domain.Attempt{}, nil
	}
	var rows []attemptRow
	err := s.idb(ctx).NewSelect().Model(&rows).
		Where("quiz_id IN (?)", bun.In(quizIDs)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attemptsToDomain(rows), nil
}

// Finalize only touches rows that are still open, so a lost race reports ErrNoOpenAttempt.
func (s *AttemptStore) Finalize(ctx context.Context, id int64, score, correctAnswers int, endTime time.Time) error {
	res, err := s.idb(ctx).NewUpdate().Model((*attemptRow)(nil)).
		Set("score = ?", score).
		Set("correct_answers = ?", correctAnswers).
		Set("end_time = ?", endTime).
		Set("completed = ?", true).
		Where("id = ?", id).
		Where("completed = ?", false).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: attempt %d", domain.ErrDuplicateAttempt, id)
		}
		return fmt.Errorf("finalize attempt: %w", err)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("%w: attempt %d", domain.ErrNoOpenAttempt, id)
	}
	return nil
}

func (s *AttemptStore) Delete(ctx context.Context, id int64) error {
	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewDelete().Model((*answerRow)(nil)).Where("attempt_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		res, err := db.NewDelete().Model((*attemptRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete attempt: %w", err)
		}
		if rowsAffected(res) == 0 {
			return fmt.Errorf("%w: attempt %d", domain.ErrNotFound, id)
		}
		return nil
	})
}

// SaveAnswers inserts row by row so every dialect reports the generated IDs.
func (s *AttemptStore) SaveAnswers(ctx context.Context, answers []domain.StudentAnswer) error {
	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		for i := range answers {
			row := answerRow{
				AttemptID:      answers[i].AttemptID,
				QuestionID:     answers[i].QuestionID,
				SelectedAnswer: answers[i].SelectedAnswer,
				Correct:        answers[i].Correct,
			}
			if _, err := db.NewInsert().Model(&row).Exec(ctx); err != nil {
				return fmt.Errorf("insert answer: %w", err)
			}
			answers[i].ID = row.ID
		}
		return nil
	})
}

func (s *AttemptStore) ListAnswers(ctx context.Context, attemptID int64) ([]domain.StudentAnswer, error) {
	var rows []answerRow
	err := s.idb(ctx).NewSelect().Model(&rows).Where("attempt_id = ?", attemptID).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]domain.StudentAnswer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *AttemptStore) byStudentQuiz(ctx context.Context, model interface{}, studentID, quizID int64, completed bool) *bun.SelectQuery {
	return s.idb(ctx).NewSelect().Model(model).
		Where("student_id = ?", studentID).
		Where("quiz_id = ?", quizID).
		Where("completed = ?", completed)
}

func attemptsToDomain(rows []attemptRow) []domain.Attempt {
	out := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
