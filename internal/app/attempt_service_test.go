package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestStartSubmitAndReadResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, questions := f.seedQuiz(t, 20, "A", "B")

	started, err := f.attempts.StartAttempt(ctx, quiz.ID, alice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Completed || started.Score != 0 || started.TotalMarks != 20 || started.TotalQuestions != 2 {
		t.Fatalf("unexpected open attempt %+v", started)
	}
	if started.StudentName != "Alice Liddell" || started.StudentEmail != "alice@example.com" {
		t.Fatalf("expected profile snapshot, got %q / %q", started.StudentName, started.StudentEmail)
	}

	f.now = f.now.Add(5 * time.Minute)
	result, err := f.attempts.SubmitAttempt(ctx, quiz.ID, map[int64]string{
		questions[0].ID: "A",
		questions[1].ID: "C",
	}, alice)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.ID != started.ID {
		t.Fatalf("expected same attempt, got %d vs %d", result.ID, started.ID)
	}
	if !result.Completed || result.Score != 10 || result.CorrectAnswers != 1 || result.Percentage != 50 {
		t.Fatalf("unexpected result %+v", result.AttemptSummary)
	}
	if result.CompletedAt == nil || !result.CompletedAt.Equal(f.now) {
		t.Fatalf("expected completion time %v, got %v", f.now, result.CompletedAt)
	}
	if len(result.QuestionResults) != 2 {
		t.Fatalf("expected 2 breakdown lines, got %d", len(result.QuestionResults))
	}
	if !result.QuestionResults[0].Correct || result.QuestionResults[1].Correct {
		t.Fatalf("unexpected breakdown %+v", result.QuestionResults)
	}
	if result.QuestionResults[1].CorrectAnswer != "B" || *result.QuestionResults[1].SelectedAnswer != "C" {
		t.Fatalf("unexpected wrong answer line %+v", result.QuestionResults[1])
	}

	read, err := f.attempts.GetResult(ctx, result.ID, alice)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if read.Score != 10 || len(read.QuestionResults) != 2 || read.QuestionResults[0].QuestionID != questions[0].ID {
		t.Fatalf("stored result differs %+v", read)
	}
}

func TestStartAttemptIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, _ := f.seedQuiz(t, 10, "A")

	first, err := f.attempts.StartAttempt(ctx, quiz.ID, alice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.now = f.now.Add(time.Minute)
	second, err := f.attempts.StartAttempt(ctx, quiz.ID, alice)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.ID != second.ID || !first.StartTime.Equal(second.StartTime) {
		t.Fatalf("expected unchanged open attempt, got %+v then %+v", first, second)
	}
}

func TestConcurrentStartCreatesOneAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, _ := f.seedQuiz(t, 10, "A")

	const n = 16
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := f.attempts.StartAttempt(ctx, quiz.ID, alice)
			if err != nil {
				t.Errorf("start: %v", err)
				return
			}
			ids[i] = s.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected a single attempt, got ids %v", ids)
		}
	}
}

func TestConcurrentSubmitFinalizesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, questions := f.seedQuiz(t, 10, "A")
	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); err != nil {
		t.Fatalf("start: %v", err)
	}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.attempts.SubmitAttempt(ctx, quiz.ID, map[int64]string{questions[0].ID: "A"}, alice)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, domain.ErrNoOpenAttempt):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful submit, got %d", succeeded)
	}
}

func TestSubmitTwiceThenRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, questions := f.seedQuiz(t, 10, "A")

	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := map[int64]string{questions[0].ID: "A"}
	if _, err := f.attempts.SubmitAttempt(ctx, quiz.ID, answers, alice); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.attempts.SubmitAttempt(ctx, quiz.ID, answers, alice); !errors.Is(err, domain.ErrNoOpenAttempt) {
		t.Fatalf("expected no open attempt, got %v", err)
	}
	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}

	mine, err := f.attempts.ListMyAttempts(ctx, alice)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].Score != 10 {
		t.Fatalf("expected one completed attempt, got %+v", mine)
	}
}

func TestSubmitWithoutStart(t *testing.T) {
	f := newFixture(t)
	quiz, _ := f.seedQuiz(t, 10, "A")
	if _, err := f.attempts.SubmitAttempt(context.Background(), quiz.ID, nil, alice); !errors.Is(err, domain.ErrNoOpenAttempt) {
		t.Fatalf("expected no open attempt, got %v", err)
	}
}

func TestSubmitEmptyAnswersRecordsEveryQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, _ := f.seedQuiz(t, 9, "A", "B", "C")
	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	result, err := f.attempts.SubmitAttempt(ctx, quiz.ID, map[int64]string{}, alice)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 0 || result.CorrectAnswers != 0 || len(result.QuestionResults) != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	for _, line := range result.QuestionResults {
		if line.SelectedAnswer != nil || line.Correct {
			t.Fatalf("expected unanswered line, got %+v", line)
		}
	}
}

func TestStartRejectsInactiveAndMissingQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, _ := f.seedQuiz(t, 10, "A")

	if _, err := f.attempts.StartAttempt(ctx, 999, alice); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.catalog.ToggleActive(ctx, quiz.ID, teacher); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); !errors.Is(err, domain.ErrQuizInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}
}

func TestTeacherCannotTakeQuiz(t *testing.T) {
	f := newFixture(t)
	quiz, _ := f.seedQuiz(t, 10, "A")
	if _, err := f.attempts.StartAttempt(context.Background(), quiz.ID, teacher); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.attempts.StartAttempt(context.Background(), quiz.ID, admin); err != nil {
		t.Fatalf("admin may take quizzes: %v", err)
	}
}

func TestResultVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, questions := f.seedQuiz(t, 10, "A")
	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	result, err := f.attempts.SubmitAttempt(ctx, quiz.ID, map[int64]string{questions[0].ID: "A"}, alice)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	for _, p := range []domain.Principal{alice, teacher, admin} {
		if _, err := f.attempts.GetResult(ctx, result.ID, p); err != nil {
			t.Fatalf("%s should read result: %v", p.Username(), err)
		}
	}
	for _, p := range []domain.Principal{bob, otherTeacher} {
		if _, err := f.attempts.GetResult(ctx, result.ID, p); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("%s should be forbidden, got %v", p.Username(), err)
		}
	}
	if _, err := f.attempts.GetResult(ctx, 999, alice); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// Quizzes stored before max marks had to be positive still grade without dividing by zero.
func TestZeroMaxMarksScoresZeroPercent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	catalog := f.store.Catalog()
	quiz := domain.Quiz{Code: "LEGACY01", Title: "Legacy", NumberOfQuestions: 1, Active: true, CreatorID: teacher.UserID, TeacherID: teacher.UserID}
	if err := catalog.CreateQuiz(ctx, &quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	questions := []domain.Question{{QuizID: quiz.ID, Content: "Pick A", Answer: "A"}}
	if err := catalog.CreateQuestion(ctx, &questions[0]); err != nil {
		t.Fatalf("create question: %v", err)
	}
	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	result, err := f.attempts.SubmitAttempt(ctx, quiz.ID, map[int64]string{questions[0].ID: "A"}, alice)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 0 || result.CorrectAnswers != 1 || result.Percentage != 0 {
		t.Fatalf("unexpected result %+v", result.AttemptSummary)
	}
}

func TestReviewerListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, questions := f.seedQuiz(t, 10, "A")
	for _, s := range []domain.User{alice, bob} {
		if _, err := f.attempts.StartAttempt(ctx, quiz.ID, s); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	if _, err := f.attempts.SubmitAttempt(ctx, quiz.ID, map[int64]string{questions[0].ID: "A"}, alice); err != nil {
		t.Fatalf("submit: %v", err)
	}

	byQuiz, err := f.attempts.ListAttemptsForQuiz(ctx, quiz.ID, teacher)
	if err != nil {
		t.Fatalf("list for quiz: %v", err)
	}
	if len(byQuiz) != 1 || byQuiz[0].StudentName != "Alice Liddell" {
		t.Fatalf("expected alice's completed attempt only, got %+v", byQuiz)
	}
	if _, err := f.attempts.ListAttemptsForQuiz(ctx, quiz.ID, otherTeacher); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if _, err := f.attempts.ListAttemptsForQuiz(ctx, quiz.ID, alice); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for student, got %v", err)
	}

	mine, err := f.attempts.ListAttemptsForMyQuizzes(ctx, teacher)
	if err != nil {
		t.Fatalf("list for my quizzes: %v", err)
	}
	if len(mine) != 1 || mine[0].QuizTitle != quiz.Title {
		t.Fatalf("unexpected listing %+v", mine)
	}
	none, err := f.attempts.ListAttemptsForMyQuizzes(ctx, otherTeacher)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty listing, got %+v, %v", none, err)
	}
}

func TestDeleteAttemptRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, _ := f.seedQuiz(t, 10, "A")
	started, err := f.attempts.StartAttempt(ctx, quiz.ID, alice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.attempts.DeleteAttempt(ctx, started.ID, teacher); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := f.attempts.DeleteAttempt(ctx, started.ID, admin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	again, err := f.attempts.StartAttempt(ctx, quiz.ID, alice)
	if err != nil {
		t.Fatalf("restart after delete: %v", err)
	}
	if again.ID == started.ID {
		t.Fatalf("expected a fresh attempt")
	}
}

func TestSummarizeCarriesPercentage(t *testing.T) {
	end := time.Now()
	s := app.Summarize(domain.Quiz{Title: "T"}, domain.Attempt{Score: 3, TotalMarks: 4, Completed: true, EndTime: &end, Student: domain.StudentProfile{Username: "u"}})
	if s.Percentage != 75 || s.StudentName != "u" || s.StudentEmail != "u" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestStartRejectsQuizDeactivatedDuringCacheLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	catalog := store.Catalog()
	loader := &gatedLoader{loader: catalog, loaded: make(chan struct{}), release: make(chan struct{})}
	quizzes := memory.NewQuizRepository(loader, time.Minute)
	catalogSvc := app.NewCatalogService(catalog, quizzes)
	attempts := app.NewAttemptService(quizzes, catalog, store.Attempts(), memory.NewLocker())

	quiz, err := catalogSvc.CreateQuiz(ctx, app.QuizInput{Title: "Quiz", MaxMarks: 10, NumberOfQuestions: 1, Active: true}, teacher)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	started := make(chan error, 1)
	go func() {
		_, err := attempts.StartAttempt(ctx, quiz.ID, alice)
		started <- err
	}()

	<-loader.loaded
	if _, err := catalogSvc.ToggleActive(ctx, quiz.ID, teacher); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	close(loader.release)

	if err := <-started; !errors.Is(err, domain.ErrQuizInactive) {
		t.Fatalf("expected ErrQuizInactive for the racing start, got %v", err)
	}
	if _, err := attempts.StartAttempt(ctx, quiz.ID, alice); !errors.Is(err, domain.ErrQuizInactive) {
		t.Fatalf("expected ErrQuizInactive after toggle, got %v", err)
	}
	if open, _ := store.Attempts().ExistsByStudentQuiz(ctx, alice.UserID, quiz.ID, false); open {
		t.Fatalf("no attempt may exist on a deactivated quiz")
	}
}

func TestSubmitRejectsDeactivatedQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, questions := f.seedQuiz(t, 10, "A")
	if _, err := f.attempts.StartAttempt(ctx, quiz.ID, alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.catalog.ToggleActive(ctx, quiz.ID, teacher); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := f.attempts.SubmitAttempt(ctx, quiz.ID, map[int64]string{questions[0].ID: "A"}, alice); !errors.Is(err, domain.ErrQuizInactive) {
		t.Fatalf("expected ErrQuizInactive, got %v", err)
	}
}

// gatedLoader reads the catalog, then blocks its first call until release is closed.
type gatedLoader struct {
	loader  app.QuizLoader
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *gatedLoader) LoadQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error) {
	content, err := l.loader.LoadQuizContent(ctx, quizID)
	l.once.Do(func() {
		close(l.loaded)
		<-l.release
	})
	return content, err
}
