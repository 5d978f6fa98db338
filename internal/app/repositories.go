package app

import (
	"context"
	"time"

	"quiz-attempt-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error)
	Invalidate(ctx context.Context, quizID int64) error
}

// QuizLoader fetches quiz content from the backing store on a cache miss.
type QuizLoader interface {
	LoadQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error)
}

// QuizFilter narrows catalog listings. Zero values mean "no filter".
type QuizFilter struct {
	ActiveOnly bool
	OwnerID    int64
}

// CatalogRepository holds quizzes and their questions.
//
// WithinTx shares its transaction with AttemptRepository.WithinTx when both views come from one store.
// LockQuiz reads a quiz and blocks other LockQuiz callers until the surrounding transaction ends.
type CatalogRepository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockQuiz(ctx context.Context, id int64) (domain.Quiz, error)

	GetQuiz(ctx context.Context, id int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, filter QuizFilter) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	// DeleteQuiz removes the quiz together with its questions, attempts and answers.
	DeleteQuiz(ctx context.Context, id int64) error

	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error)
	CountQuestions(ctx context.Context, quizID int64) (int, error)
	CreateQuestion(ctx context.Context, question *domain.Question) error
	UpdateQuestion(ctx context.Context, question domain.Question) error
	// DeleteQuestion removes the question and the answers recorded against it.
	DeleteQuestion(ctx context.Context, id int64) error
}

// AttemptRepository holds attempts and their answers.
//
// WithinTx runs fn atomically; repository calls made with the ctx passed to fn join the
// transaction. Implementations must enforce at most one open and at most one completed
// attempt per (student, quiz), reporting violations as domain.ErrDuplicateAttempt.
type AttemptRepository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, attempt *domain.Attempt) error
	Get(ctx context.Context, id int64) (domain.Attempt, error)
	FindByStudentQuiz(ctx context.Context, studentID, quizID int64, completed bool) (domain.Attempt, error)
	ExistsByStudentQuiz(ctx context.Context, studentID, quizID int64, completed bool) (bool, error)
	ListByStudent(ctx context.Context, studentID int64, completed bool) ([]domain.Attempt, error)
	ListByQuizzes(ctx context.Context, quizIDs ...int64) ([]domain.Attempt, error)
	// Finalize persists the completion of an open attempt. It fails with
	// domain.ErrNoOpenAttempt if the attempt is already completed.
	Finalize(ctx context.Context, attemptID int64, score, correctAnswers int, endTime time.Time) error
	Delete(ctx context.Context, id int64) error

	SaveAnswers(ctx context.Context, answers []domain.StudentAnswer) error
	// ListAnswers returns the answers of an attempt in insertion order.
	ListAnswers(ctx context.Context, attemptID int64) ([]domain.StudentAnswer, error)
}

// Locker serializes lifecycle calls for the same key across goroutines (and instances, when shared).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
