package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

var _ app.QuizRepository = (*QuizRepository)(nil)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{content: sampleContent()}
	repo := NewQuizRepository(client, loader, time.Minute)

	content, err := repo.GetQuizContent(context.Background(), 1)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:1:content") {
		t.Fatalf("expected content cached in redis")
	}
	if ttl := mr.TTL("quiz:1:content"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with up to 10%% jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuizContent(context.Background(), 1)
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Quiz.Title != content.Quiz.Title || len(cached.Questions) != 1 || cached.Questions[0].Answer != "4" {
		t.Fatalf("cached content differs: %+v", cached)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{content: sampleContent()}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetQuizContent(ctx, 1); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if err := repo.Invalidate(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:1:content") {
		t.Fatalf("expected key removed")
	}
	if _, err := repo.GetQuizContent(ctx, 1); err != nil {
		t.Fatalf("get quiz after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryPropagatesLoaderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), &countingLoader{err: domain.ErrNotFound}, time.Minute)
	if _, err := repo.GetQuizContent(context.Background(), 9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if mr.Exists("quiz:9:content") {
		t.Fatalf("errors must not be cached")
	}
}

type countingLoader struct {
	content domain.QuizContent
	err     error
	calls   int
}

func (l *countingLoader) LoadQuizContent(_ context.Context, _ int64) (domain.QuizContent, error) {
	l.calls++
	if l.err != nil {
		return domain.QuizContent{}, l.err
	}
	return l.content, nil
}

func sampleContent() domain.QuizContent {
	return domain.QuizContent{
		Quiz: domain.Quiz{ID: 1, Code: "ARITH", Title: "Arithmetic", MaxMarks: 10, NumberOfQuestions: 1, Active: true},
		Questions: []domain.Question{
			{ID: 11, QuizID: 1, Content: "What is 2 + 2?", Option1: "3", Option2: "4", Answer: "4"},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestQuizRepositoryDropsLoadRacingInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &gatedLoader{content: sampleContent(), loaded: make(chan struct{}), release: make(chan struct{})}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	done := make(chan domain.QuizContent, 1)
	go func() {
		content, err := repo.GetQuizContent(ctx, 1)
		if err != nil {
			t.Errorf("get quiz: %v", err)
		}
		done <- content
	}()

	<-loader.loaded
	if err := repo.Invalidate(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	<-done

	if mr.Exists("quiz:1:content") {
		t.Fatalf("content loaded before the invalidation must not be cached")
	}
	if _, err := repo.GetQuizContent(ctx, 1); err != nil {
		t.Fatalf("get quiz after invalidate: %v", err)
	}
	if !mr.Exists("quiz:1:content") {
		t.Fatalf("expected a fresh load to be cached")
	}
}

// gatedLoader signals once it has read the content and waits for release before returning it.
type gatedLoader struct {
	content domain.QuizContent
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *gatedLoader) LoadQuizContent(_ context.Context, _ int64) (domain.QuizContent, error) {
	content := l.content
	l.once.Do(func() {
		close(l.loaded)
		<-l.release
	})
	return content, nil
}
