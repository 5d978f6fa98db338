package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-attempt-service/internal/domain"
)

// AttemptService contains the quiz-attempt use cases.
type AttemptService struct {
	quizzes  QuizRepository
	catalog  CatalogRepository
	attempts AttemptRepository
	locks    Locker
	now      func() time.Time
}

func NewAttemptService(quizzes QuizRepository, catalog CatalogRepository, attempts AttemptRepository, locks Locker) *AttemptService {
	return NewAttemptServiceWithClock(quizzes, catalog, attempts, locks, time.Now)
}

// NewAttemptServiceWithClock allows deterministic timestamps in tests.
func NewAttemptServiceWithClock(quizzes QuizRepository, catalog CatalogRepository, attempts AttemptRepository, locks Locker, now func() time.Time) *AttemptService {
	return &AttemptService{
		quizzes:  quizzes,
		catalog:  catalog,
		attempts: attempts,
		locks:    locks,
		now:      now,
	}
}

// StartAttempt creates an open attempt, or returns the student's existing open attempt unchanged.
func (s *AttemptService) StartAttempt(ctx context.Context, quizID int64, p domain.Principal) (domain.AttemptSummary, error) {
	if err := requireTaker(p); err != nil {
		return domain.AttemptSummary{}, err
	}
	content, err := s.quizzes.GetQuizContent(ctx, quizID)
	if err != nil {
		return domain.AttemptSummary{}, err
	}
	quiz := content.Quiz
	if !quiz.Active {
		return domain.AttemptSummary{}, fmt.Errorf("%w: quiz %d", domain.ErrQuizInactive, quizID)
	}

	unlock, err := s.locks.Lock(ctx, attemptLockKey(p.ID(), quizID))
	if err != nil {
		return domain.AttemptSummary{}, fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	var attempt domain.Attempt
	err = s.attempts.WithinTx(ctx, func(ctx context.Context) error {
		// the cached copy may predate a deactivation
		if quiz, err = s.activeQuiz(ctx, quizID); err != nil {
			return err
		}
		attempt, err = s.openOrCreate(ctx, quiz, p)
		return err
	})
	if errors.Is(err, domain.ErrDuplicateAttempt) {
		// Another instance inserted the open attempt between our lookup and insert.
		attempt, err = s.attempts.FindByStudentQuiz(ctx, p.ID(), quizID, false)
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: quiz %d", domain.ErrAlreadyCompleted, quizID)
		}
	}
	if err != nil {
		return domain.AttemptSummary{}, err
	}
	return Summarize(quiz, attempt), nil
}

// activeQuiz reads the quiz from the catalog, joining the transaction carried by ctx.
func (s *AttemptService) activeQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !quiz.Active {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %d", domain.ErrQuizInactive, quizID)
	}
	return quiz, nil
}

func (s *AttemptService) openOrCreate(ctx context.Context, quiz domain.Quiz, p domain.Principal) (domain.Attempt, error) {
	completed, err := s.attempts.ExistsByStudentQuiz(ctx, p.ID(), quiz.ID, true)
	if err != nil {
		return domain.Attempt{}, err
	}
	if completed {
		return domain.Attempt{}, fmt.Errorf("%w: quiz %d", domain.ErrAlreadyCompleted, quiz.ID)
	}

	existing, err := s.attempts.FindByStudentQuiz(ctx, p.ID(), quiz.ID, false)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Attempt{}, err
	}

	attempt := domain.Attempt{
		QuizID:         quiz.ID,
		StudentID:      p.ID(),
		Student:        domain.ProfileOf(p),
		TotalMarks:     quiz.MaxMarks,
		TotalQuestions: quiz.NumberOfQuestions,
		StartTime:      s.now(),
	}
	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	log.Printf("attempt %d started: quiz=%d student=%d", attempt.ID, quiz.ID, p.ID())
	return attempt, nil
}

// SubmitAttempt grades the student's open attempt and finalizes it in one transaction.
func (s *AttemptService) SubmitAttempt(ctx context.Context, quizID int64, answers map[int64]string, p domain.Principal) (domain.Result, error) {
	if err := requireTaker(p); err != nil {
		return domain.Result{}, err
	}
	content, err := s.quizzes.GetQuizContent(ctx, quizID)
	if err != nil {
		return domain.Result{}, err
	}
	if !content.Quiz.Active {
		return domain.Result{}, fmt.Errorf("%w: quiz %d", domain.ErrQuizInactive, quizID)
	}

	unlock, err := s.locks.Lock(ctx, attemptLockKey(p.ID(), quizID))
	if err != nil {
		return domain.Result{}, fmt.Errorf("lock attempt: %w", err)
	}
	defer unlock()

	var (
		attempt domain.Attempt
		grade   Grade
	)
	err = s.attempts.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.activeQuiz(ctx, quizID); err != nil {
			return err
		}
		attempt, err = s.attempts.FindByStudentQuiz(ctx, p.ID(), quizID, false)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: quiz %d", domain.ErrNoOpenAttempt, quizID)
		}
		if err != nil {
			return err
		}

		grade = GradeSubmission(content.Quiz, content.Questions, answers)
		for i := range grade.Answers {
			grade.Answers[i].AttemptID = attempt.ID
		}
		if err := s.attempts.SaveAnswers(ctx, grade.Answers); err != nil {
			return err
		}

		if err := attempt.Finalize(grade.Score, grade.CorrectAnswers, s.now()); err != nil {
			return err
		}
		return s.attempts.Finalize(ctx, attempt.ID, attempt.Score, attempt.CorrectAnswers, *attempt.EndTime)
	})
	if errors.Is(err, domain.ErrDuplicateAttempt) {
		err = fmt.Errorf("%w: quiz %d", domain.ErrNoOpenAttempt, quizID)
	}
	if err != nil {
		return domain.Result{}, err
	}

	log.Printf("attempt %d completed: quiz=%d student=%d score=%d/%d", attempt.ID, quizID, p.ID(), attempt.Score, attempt.TotalMarks)
	return BuildResult(content, attempt, grade.Answers), nil
}

// GetResult returns the detailed result of an attempt the principal may read.
func (s *AttemptService) GetResult(ctx context.Context, attemptID int64, p domain.Principal) (domain.Result, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Result{}, err
	}
	content, err := s.quizzes.GetQuizContent(ctx, attempt.QuizID)
	if err != nil {
		return domain.Result{}, err
	}
	if err := AuthorizeRead(content.Quiz, attempt, p); err != nil {
		return domain.Result{}, err
	}
	answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return domain.Result{}, err
	}
	return BuildResult(content, attempt, answers), nil
}

// ListMyAttempts returns the principal's completed attempts.
func (s *AttemptService) ListMyAttempts(ctx context.Context, p domain.Principal) ([]domain.AttemptSummary, error) {
	if err := requireTaker(p); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByStudent(ctx, p.ID(), true)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, attempts, nil)
}

// ListAttemptsForQuiz returns the completed attempts of a quiz the principal owns (or any quiz, for admins).
func (s *AttemptService) ListAttemptsForQuiz(ctx context.Context, quizID int64, p domain.Principal) ([]domain.AttemptSummary, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeQuizResultsList(quiz, p); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByQuizzes(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, completedOnly(attempts), map[int64]domain.Quiz{quiz.ID: quiz})
}

// ListAttemptsForMyQuizzes returns the completed attempts across all quizzes the principal owns.
func (s *AttemptService) ListAttemptsForMyQuizzes(ctx context.Context, p domain.Principal) ([]domain.AttemptSummary, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	quizzes, err := s.catalog.ListQuizzes(ctx, QuizFilter{OwnerID: p.ID()})
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return []domain.AttemptSummary{}, nil
	}
	known := make(map[int64]domain.Quiz, len(quizzes))
	ids := make([]int64, 0, len(quizzes))
	for _, q := range quizzes {
		known[q.ID] = q
		ids = append(ids, q.ID)
	}
	attempts, err := s.attempts.ListByQuizzes(ctx, ids...)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, completedOnly(attempts), known)
}

// DeleteAttempt removes an attempt and its answers. Admin only.
func (s *AttemptService) DeleteAttempt(ctx context.Context, attemptID int64, p domain.Principal) error {
	if !domain.IsAdmin(p) {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return s.attempts.Delete(ctx, attemptID)
}

func (s *AttemptService) summarize(ctx context.Context, attempts []domain.Attempt, known map[int64]domain.Quiz) ([]domain.AttemptSummary, error) {
	if known == nil {
		known = make(map[int64]domain.Quiz)
	}
	out := make([]domain.AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		quiz, ok := known[attempt.QuizID]
		if !ok {
			content, err := s.quizzes.GetQuizContent(ctx, attempt.QuizID)
			if err != nil {
				return nil, err
			}
			quiz = content.Quiz
			known[quiz.ID] = quiz
		}
		out = append(out, Summarize(quiz, attempt))
	}
	return out, nil
}

func completedOnly(attempts []domain.Attempt) []domain.Attempt {
	out := attempts[:0]
	for _, a := range attempts {
		if a.Completed {
			out = append(out, a)
		}
	}
	return out
}

func attemptLockKey(studentID, quizID int64) string {
	return fmt.Sprintf("%d:%d", studentID, quizID)
}
