package memory

import (
	"context"
	"fmt"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// CatalogStore is an in-memory implementation of app.CatalogRepository.
type CatalogStore struct {
	*Store
}

func (s *CatalogStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.withinTx(ctx, fn)
}

// LockQuiz is GetQuiz: a transaction already holds the store's write lock.
func (s *CatalogStore) LockQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.GetQuiz(ctx, id)
}

func (s *CatalogStore) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	defer s.rlock(ctx)()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %d", domain.ErrNotFound, id)
	}
	return quiz, nil
}

func (s *CatalogStore) ListQuizzes(ctx context.Context, filter app.QuizFilter) ([]domain.Quiz, error) {
	defer s.rlock(ctx)()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		if filter.ActiveOnly && !q.Active {
			continue
		}
		if filter.OwnerID != 0 && q.CreatorID != filter.OwnerID && q.TeacherID != filter.OwnerID {
			continue
		}
		out = append(out, q)
	}
	return sortedByID(out, func(q domain.Quiz) int64 { return q.ID }), nil
}

func (s *CatalogStore) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	defer s.lock(ctx)()
	if s.codeTakenLocked(quiz.Code, 0) {
		return fmt.Errorf("%w: quiz code %q already in use", domain.ErrInvalidArgument, quiz.Code)
	}
	s.quizSeq++
	quiz.ID = s.quizSeq
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *CatalogStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	defer s.lock(ctx)()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return fmt.Errorf("%w: quiz %d", domain.ErrNotFound, quiz.ID)
	}
	if s.codeTakenLocked(quiz.Code, quiz.ID) {
		return fmt.Errorf("%w: quiz code %q already in use", domain.ErrInvalidArgument, quiz.Code)
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *CatalogStore) DeleteQuiz(ctx context.Context, id int64) error {
	defer s.lock(ctx)()
	if _, ok := s.quizzes[id]; !ok {
		return fmt.Errorf("%w: quiz %d", domain.ErrNotFound, id)
	}
	for attemptID, attempt := range s.attempts {
		if attempt.QuizID == id {
			s.deleteAttemptLocked(attemptID)
		}
	}
	for questionID, question := range s.questions {
		if question.QuizID == id {
			delete(s.questions, questionID)
		}
	}
	delete(s.quizzes, id)
	return nil
}

func (s *CatalogStore) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	defer s.rlock(ctx)()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, fmt.Errorf("%w: question %d", domain.ErrNotFound, id)
	}
	return q, nil
}

func (s *CatalogStore) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	defer s.rlock(ctx)()
	return s.questionsLocked(quizID), nil
}

func (s *CatalogStore) CountQuestions(ctx context.Context, quizID int64) (int, error) {
	defer s.rlock(ctx)()
	return len(s.questionsLocked(quizID)), nil
}

func (s *CatalogStore) CreateQuestion(ctx context.Context, question *domain.Question) error {
	defer s.lock(ctx)()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return fmt.Errorf("%w: quiz %d", domain.ErrNotFound, question.QuizID)
	}
	s.questionSeq++
	question.ID = s.questionSeq
	s.questions[question.ID] = *question
	return nil
}

func (s *CatalogStore) UpdateQuestion(ctx context.Context, question domain.Question) error {
	defer s.lock(ctx)()
	existing, ok := s.questions[question.ID]
	if !ok {
		return fmt.Errorf("%w: question %d", domain.ErrNotFound, question.ID)
	}
	question.QuizID = existing.QuizID
	s.questions[question.ID] = question
	return nil
}

func (s *CatalogStore) DeleteQuestion(ctx context.Context, id int64) error {
	defer s.lock(ctx)()
	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("%w: question %d", domain.ErrNotFound, id)
	}
	for answerID, answer := range s.answers {
		if answer.QuestionID == id {
			delete(s.answers, answerID)
		}
	}
	delete(s.questions, id)
	return nil
}

// LoadQuizContent implements QuizLoader.
func (s *CatalogStore) LoadQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error) {
	defer s.rlock(ctx)()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizContent{}, fmt.Errorf("%w: quiz %d", domain.ErrNotFound, quizID)
	}
	return domain.QuizContent{Quiz: quiz, Questions: s.questionsLocked(quizID)}, nil
}

func (s *CatalogStore) questionsLocked(quizID int64) []domain.Question {
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return sortedByID(out, func(q domain.Question) int64 { return q.ID })
}

func (s *CatalogStore) codeTakenLocked(code string, except int64) bool {
	for id, q := range s.quizzes {
		if id != except && q.Code == code {
			return true
		}
	}
	return false
}
