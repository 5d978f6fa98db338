package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// Store is an in-memory implementation of the catalog and attempt repositories.
// Both views share one lock so quiz deletion can cascade to attempts.
type Store struct {
	mu sync.RWMutex

	quizzes   map[int64]domain.Quiz
	questions map[int64]domain.Question
	attempts  map[int64]domain.Attempt
	answers   map[int64]domain.StudentAnswer

	quizSeq, questionSeq, attemptSeq, answerSeq int64
}

func NewStore() *Store {
	return &Store{
		quizzes:   make(map[int64]domain.Quiz),
		questions: make(map[int64]domain.Question),
		attempts:  make(map[int64]domain.Attempt),
		answers:   make(map[int64]domain.StudentAnswer),
	}
}

// Catalog returns the app.CatalogRepository view of the store.
func (s *Store) Catalog() *CatalogStore { return &CatalogStore{s} }

// Attempts returns the app.AttemptRepository view of the store.
func (s *Store) Attempts() *AttemptStore { return &AttemptStore{s} }

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

type snapshot struct {
	quizzes   map[int64]domain.Quiz
	questions map[int64]domain.Question
	attempts  map[int64]domain.Attempt
	answers   map[int64]domain.StudentAnswer

	quizSeq, questionSeq, attemptSeq, answerSeq int64
}

func (s *Store) snapshotLocked() snapshot {
	return snapshot{
		quizzes:     copyMap(s.quizzes),
		questions:   copyMap(s.questions),
		attempts:    copyMap(s.attempts),
		answers:     copyMap(s.answers),
		quizSeq:     s.quizSeq,
		questionSeq: s.questionSeq,
		attemptSeq:  s.attemptSeq,
		answerSeq:   s.answerSeq,
	}
}

func (s *Store) restoreLocked(snap snapshot) {
	s.quizzes = snap.quizzes
	s.questions = snap.questions
	s.attempts = snap.attempts
	s.answers = snap.answers
	s.quizSeq = snap.quizSeq
	s.questionSeq = snap.questionSeq
	s.attemptSeq = snap.attemptSeq
	s.answerSeq = snap.answerSeq
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// withinTx holds the write lock for the duration of fn and rolls every map back if fn fails.
func (s *Store) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshotLocked()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restoreLocked(snap)
		return err
	}
	return nil
}

func (s *Store) deleteAttemptLocked(id int64) {
	delete(s.attempts, id)
	for answerID, answer := range s.answers {
		if answer.AttemptID == id {
			delete(s.answers, answerID)
		}
	}
}

func sortedByID[T any](items []T, id func(T) int64) []T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
	return items
}
