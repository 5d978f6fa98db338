package memory

import (
	"context"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	*Store
}

func (s *AttemptStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.withinTx(ctx, fn)
}

func (s *AttemptStore) Create(ctx context.Context, attempt *domain.Attempt) error {
	defer s.lock(ctx)()
	if _, ok := s.findLocked(attempt.StudentID, attempt.QuizID, attempt.Completed); ok {
		return fmt.Errorf("%w: student %d quiz %d", domain.ErrDuplicateAttempt, attempt.StudentID, attempt.QuizID)
	}
	s.attemptSeq++
	attempt.ID = s.attemptSeq
	s.attempts[attempt.ID] = *attempt
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, id int64) (domain.Attempt, error) {
	defer s.rlock(ctx)()
	a, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, fmt.Errorf("%w: attempt %d", domain.ErrNotFound, id)
	}
	return a, nil
}

func (s *AttemptStore) FindByStudentQuiz(ctx context.Context, studentID, quizID int64, completed bool) (domain.Attempt, error) {
	defer s.rlock(ctx)()
	a, ok := s.findLocked(studentID, quizID, completed)
	if !ok {
		return domain.Attempt{}, fmt.Errorf("%w: attempt for student %d quiz %d", domain.ErrNotFound, studentID, quizID)
	}
	return a, nil
}

func (s *AttemptStore) ExistsByStudentQuiz(ctx context.Context, studentID, quizID int64, completed bool) (bool, error) {
	defer s.rlock(ctx)()
	_, ok := s.findLocked(studentID, quizID, completed)
	return ok, nil
}

func (s *AttemptStore) ListByStudent(ctx context.Context, studentID int64, completed bool) ([]domain.Attempt, error) {
	defer s.rlock(ctx)()
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if a.StudentID == studentID && a.Completed == completed {
			out = append(out, a)
		}
	}
	return sortedByID(out, attemptID), nil
}

func (s *AttemptStore) ListByQuizzes(ctx context.Context, quizIDs ...int64) ([]domain.Attempt, error) {
	defer s.rlock(ctx)()
	wanted := make(map[int64]struct{}, len(quizIDs))
	for _, id := range quizIDs {
		wanted[id] = struct{}{}
	}
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if _, ok := wanted[a.QuizID]; ok {
			out = append(out, a)
		}
	}
	return sortedByID(out, attemptID), nil
}

func (s *AttemptStore) Finalize(ctx context.Context, id int64, score, correctAnswers int, endTime time.Time) error {
	defer s.lock(ctx)()
	a, ok := s.attempts[id]
	if !ok || a.Completed {
		return fmt.Errorf("%w: attempt %d", domain.ErrNoOpenAttempt, id)
	}
	if _, dup := s.findLocked(a.StudentID, a.QuizID, true); dup {
		return fmt.Errorf("%w: student %d quiz %d", domain.ErrDuplicateAttempt, a.StudentID, a.QuizID)
	}
	if err := a.Finalize(score, correctAnswers, endTime); err != nil {
		return err
	}
	s.attempts[id] = a
	return nil
}

func (s *AttemptStore) Delete(ctx context.Context, id int64) error {
	defer s.lock(ctx)()
	if _, ok := s.attempts[id]; !ok {
		return fmt.Errorf("%w: attempt %d", domain.ErrNotFound, id)
	}
	s.deleteAttemptLocked(id)
	return nil
}

func (s *AttemptStore) SaveAnswers(ctx context.Context, answers []domain.StudentAnswer) error {
	defer s.lock(ctx)()
	for i := range answers {
		if _, ok := s.attempts[answers[i].AttemptID]; !ok {
			return fmt.Errorf("%w: attempt %d", domain.ErrNotFound, answers[i].AttemptID)
		}
		s.answerSeq++
		answers[i].ID = s.answerSeq
		s.answers[answers[i].ID] = answers[i]
	}
	return nil
}

func (s *AttemptStore) ListAnswers(ctx context.Context, id int64) ([]domain.StudentAnswer, error) {
	defer s.rlock(ctx)()
	out := make([]domain.StudentAnswer, 0)
	for _, a := range s.answers {
		if a.AttemptID == id {
			out = append(out, a)
		}
	}
	return sortedByID(out, func(a domain.StudentAnswer) int64 { return a.ID }), nil
}

func (s *AttemptStore) findLocked(studentID, quizID int64, completed bool) (domain.Attempt, bool) {
	for _, a := range s.attempts {
		if a.StudentID == studentID && a.QuizID == quizID && a.Completed == completed {
			return a, true
		}
	}
	return domain.Attempt{}, false
}

func attemptID(a domain.Attempt) int64 { return a.ID }
