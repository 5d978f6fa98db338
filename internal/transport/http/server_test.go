package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

var (
	teacher = domain.User{UserID: 1, Login: "teacher", RoleSet: domain.NewRoleSet(domain.RoleTeacher)}
	student = domain.User{UserID: 10, Login: "alice", FirstName: "Alice", Mail: "alice@example.com", RoleSet: domain.NewRoleSet(domain.RoleStudent)}
	other   = domain.User{UserID: 11, Login: "bob", RoleSet: domain.NewRoleSet(domain.RoleStudent)}
)

type testServer struct {
	*httptest.Server
	auth    *Authenticator
	catalog *app.CatalogService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	catalog := store.Catalog()
	quizzes := memory.NewQuizRepository(catalog, time.Minute)

	attempts := app.NewAttemptService(quizzes, catalog, store.Attempts(), memory.NewLocker())
	catalogService := app.NewCatalogService(catalog, quizzes)
	stats := app.NewStatisticsService(catalog, quizzes, store.Attempts())

	auth := NewAuthenticator("test-secret", "quiz-service", time.Hour)
	router := NewRouter(NewHandlers(attempts, catalogService, stats), NewWSHandler(attempts), auth, RouterOptions{})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, auth: auth, catalog: catalogService}
}

// seedQuiz creates an active 20-mark quiz with two questions answered "A" and "B".
func (s *testServer) seedQuiz(t *testing.T) (domain.Quiz, []domain.Question) {
	t.Helper()
	ctx := context.Background()
	quiz, err := s.catalog.CreateQuiz(ctx, app.QuizInput{Title: "Basics", MaxMarks: 20, NumberOfQuestions: 2, Active: true}, teacher)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	var questions []domain.Question
	for _, answer := range []string{"A", "B"} {
		q, err := s.catalog.AddQuestion(ctx, quiz.ID, app.QuestionInput{Content: "pick " + answer, Option1: "A", Option2: "B", Answer: answer}, teacher)
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
		questions = append(questions, q)
	}
	return quiz, questions
}

func (s *testServer) token(t *testing.T, user domain.User) string {
	t.Helper()
	tok, err := s.auth.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path string, user *domain.User, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, *user))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}
