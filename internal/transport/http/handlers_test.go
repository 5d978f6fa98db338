package http

import (
	"fmt"
	"net/http"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestAttemptFlowOverREST(t *testing.T) {
	srv := newTestServer(t)
	quiz, questions := srv.seedQuiz(t)

	var started domain.AttemptSummary
	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/attempts/start/%d", quiz.ID), &student, nil, &started); code != http.StatusOK {
		t.Fatalf("start: status %d", code)
	}
	if started.Completed || started.TotalMarks != 20 || started.StudentName != "Alice" {
		t.Fatalf("unexpected start %+v", started)
	}

	var result domain.Result
	body := map[string]interface{}{
		"quizId": quiz.ID,
		"answers": map[string]string{
			fmt.Sprint(questions[0].ID): "A",
			fmt.Sprint(questions[1].ID): "C",
		},
	}
	if code := srv.do(t, http.MethodPost, "/api/attempts/submit", &student, body, &result); code != http.StatusOK {
		t.Fatalf("submit: status %d", code)
	}
	if result.Score != 10 || result.Percentage != 50 || len(result.QuestionResults) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	var errBody errorBody
	if code := srv.do(t, http.MethodPost, "/api/attempts/submit", &student, body, &errBody); code != http.StatusConflict || errBody.Kind != "no_open_attempt" {
		t.Fatalf("expected 409 no_open_attempt, got %d %+v", code, errBody)
	}
	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/attempts/start/%d", quiz.ID), &student, nil, &errBody); code != http.StatusConflict || errBody.Kind != "already_completed" {
		t.Fatalf("expected 409 already_completed, got %d %+v", code, errBody)
	}

	if code := srv.do(t, http.MethodGet, fmt.Sprintf("/api/attempts/%d/result", result.ID), &other, nil, &errBody); code != http.StatusForbidden || errBody.Kind != "forbidden" {
		t.Fatalf("expected 403, got %d %+v", code, errBody)
	}
	var read domain.Result
	if code := srv.do(t, http.MethodGet, fmt.Sprintf("/api/attempts/%d/result", result.ID), &teacher, nil, &read); code != http.StatusOK || read.Score != 10 {
		t.Fatalf("expected owner to read result, got %d %+v", code, read)
	}

	var mine []domain.AttemptSummary
	if code := srv.do(t, http.MethodGet, "/api/attempts/mine", &student, nil, &mine); code != http.StatusOK || len(mine) != 1 {
		t.Fatalf("unexpected mine %d %+v", code, mine)
	}
	var byQuiz []domain.AttemptSummary
	if code := srv.do(t, http.MethodGet, fmt.Sprintf("/api/attempts/quiz/%d", quiz.ID), &teacher, nil, &byQuiz); code != http.StatusOK || len(byQuiz) != 1 {
		t.Fatalf("unexpected quiz listing %d %+v", code, byQuiz)
	}
	var stats domain.QuizStatistics
	if code := srv.do(t, http.MethodGet, fmt.Sprintf("/api/statistics/quiz/%d", quiz.ID), &teacher, nil, &stats); code != http.StatusOK || stats.TotalAttempts != 1 {
		t.Fatalf("unexpected stats %d %+v", code, stats)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	quiz, _ := srv.seedQuiz(t)

	var errBody errorBody
	if code := srv.do(t, http.MethodPost, "/api/attempts/start/999", &student, nil, &errBody); code != http.StatusNotFound || errBody.Kind != "not_found" {
		t.Fatalf("expected 404, got %d %+v", code, errBody)
	}
	if code := srv.do(t, http.MethodPost, "/api/attempts/start/abc", &student, nil, &errBody); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", code)
	}
	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/attempts/start/%d", quiz.ID), &teacher, nil, &errBody); code != http.StatusForbidden {
		t.Fatalf("expected 403 for teacher, got %d", code)
	}
	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/attempts/start/%d", quiz.ID), nil, nil, &errBody); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := srv.do(t, http.MethodPost, "/api/attempts/submit", &student, map[string]interface{}{"answers": map[string]string{}}, &errBody); code != http.StatusBadRequest || errBody.Kind != "invalid_argument" {
		t.Fatalf("expected 400 for missing quizId, got %d %+v", code, errBody)
	}

	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/toggle", quiz.ID), &teacher, nil, nil); code != http.StatusOK {
		t.Fatalf("toggle: status %d", code)
	}
	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/attempts/start/%d", quiz.ID), &student, nil, &errBody); code != http.StatusConflict || errBody.Kind != "quiz_inactive" {
		t.Fatalf("expected 409 quiz_inactive, got %d %+v", code, errBody)
	}
}

func TestCatalogOverREST(t *testing.T) {
	srv := newTestServer(t)

	var quiz domain.Quiz
	req := map[string]interface{}{"title": "Geography", "maxMarks": 10, "numberOfQuestions": 1, "active": true}
	if code := srv.do(t, http.MethodPost, "/api/quizzes", &teacher, req, &quiz); code != http.StatusCreated {
		t.Fatalf("create quiz: status %d", code)
	}
	if quiz.ID == 0 || quiz.Code == "" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	var errBody errorBody
	if code := srv.do(t, http.MethodPost, "/api/quizzes", &teacher, map[string]interface{}{"numberOfQuestions": 1}, &errBody); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", code)
	}

	q := map[string]interface{}{"content": "Capital of France?", "option1": "Paris", "option2": "Rome", "answer": "Paris"}
	var question domain.Question
	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/questions", quiz.ID), &teacher, q, &question); code != http.StatusCreated {
		t.Fatalf("add question: status %d", code)
	}
	if code := srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/questions", quiz.ID), &teacher, q, &errBody); code != http.StatusBadRequest {
		t.Fatalf("expected cap enforced, got %d", code)
	}

	var listed []domain.Question
	if code := srv.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/%d/questions", quiz.ID), &student, nil, &listed); code != http.StatusOK {
		t.Fatalf("list questions: status %d", code)
	}
	if len(listed) != 1 || listed[0].Answer != "" {
		t.Fatalf("expected answers hidden, got %+v", listed)
	}

	if code := srv.do(t, http.MethodDelete, fmt.Sprintf("/api/questions/%d", question.ID), &student, nil, &errBody); code != http.StatusForbidden {
		t.Fatalf("expected 403 for student delete, got %d", code)
	}
	if code := srv.do(t, http.MethodDelete, fmt.Sprintf("/api/quizzes/%d", quiz.ID), &teacher, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete quiz: status %d", code)
	}
	if code := srv.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quiz.ID), &teacher, nil, &errBody); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
