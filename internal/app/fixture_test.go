package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

var (
	teacher      = domain.User{UserID: 1, Login: "teacher", FirstName: "Tess", LastName: "Teacher", RoleSet: domain.NewRoleSet(domain.RoleTeacher)}
	otherTeacher = domain.User{UserID: 2, Login: "teacher2", RoleSet: domain.NewRoleSet(domain.RoleTeacher)}
	admin        = domain.User{UserID: 3, Login: "admin", RoleSet: domain.NewRoleSet(domain.RoleAdmin)}
	alice        = domain.User{UserID: 10, Login: "alice", FirstName: "Alice", LastName: "Liddell", Mail: "alice@example.com", RoleSet: domain.NewRoleSet(domain.RoleStudent)}
	bob          = domain.User{UserID: 11, Login: "bob", RoleSet: domain.NewRoleSet(domain.RoleStudent)}
)

type fixture struct {
	store    *memory.Store
	catalog  *app.CatalogService
	attempts *app.AttemptService
	stats    *app.StatisticsService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		now:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	catalog := f.store.Catalog()
	quizzes := memory.NewQuizRepository(catalog, time.Minute)
	clock := func() time.Time { return f.now }

	f.catalog = app.NewCatalogService(catalog, quizzes)
	f.attempts = app.NewAttemptServiceWithClock(quizzes, catalog, f.store.Attempts(), memory.NewLocker(), clock)
	f.stats = app.NewStatisticsService(catalog, quizzes, f.store.Attempts())
	return f
}

// seedQuiz creates an active quiz owned by teacher with one question per answer.
func (f *fixture) seedQuiz(t *testing.T, maxMarks int, answers ...string) (domain.Quiz, []domain.Question) {
	t.Helper()
	ctx := context.Background()
	quiz, err := f.catalog.CreateQuiz(ctx, app.QuizInput{
		Title:             "Quiz",
		MaxMarks:          maxMarks,
		NumberOfQuestions: len(answers),
		Active:            true,
	}, teacher)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	questions := make([]domain.Question, 0, len(answers))
	for _, answer := range answers {
		q, err := f.catalog.AddQuestion(ctx, quiz.ID, app.QuestionInput{
			Content: "Pick " + answer,
			Option1: "A", Option2: "B", Option3: "C", Option4: "D",
			Answer: answer,
		}, teacher)
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
		questions = append(questions, q)
	}
	return quiz, questions
}
