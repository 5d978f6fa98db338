package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// QuizRepository caches quiz content with TTL to avoid repeated DB hits.
type QuizRepository struct {
	loader app.QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedQuiz
	gen   map[int64]uint64
}

type cachedQuiz struct {
	content   domain.QuizContent
	expiresAt time.Time
}

func NewQuizRepository(loader app.QuizLoader, ttl time.Duration) *QuizRepository {
	return NewQuizRepositoryWithClock(loader, ttl, time.Now)
}

// NewQuizRepositoryWithClock lets tests drive expiry.
func NewQuizRepositoryWithClock(loader app.QuizLoader, ttl time.Duration, clock func() time.Time) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuiz),
		gen:    make(map[int64]uint64),
	}
}

func (r *QuizRepository) GetQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error) {
	if content, ok := r.lookup(quizID); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		if content, ok := r.lookup(quizID); ok {
			return content, nil
		}

		r.mu.RLock()
		gen := r.gen[quizID]
		r.mu.RUnlock()

		content, err := r.loader.LoadQuizContent(ctx, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			r.mu.Lock()
			// an Invalidate during the load means content may predate the write
			if r.gen[quizID] == gen {
				r.cache[quizID] = cachedQuiz{
					content:   content,
					expiresAt: r.clock().Add(ttl),
				}
			}
			r.mu.Unlock()
		}
		return content, nil
	})
	if err != nil {
		return domain.QuizContent{}, err
	}
	return cloneContent(result.(domain.QuizContent)), nil
}

// Invalidate drops the cached entry so the next read goes to the loader.
func (r *QuizRepository) Invalidate(_ context.Context, quizID int64) error {
	r.sf.Forget(strconv.FormatInt(quizID, 10))
	r.mu.Lock()
	delete(r.cache, quizID)
	r.gen[quizID]++
	r.mu.Unlock()
	return nil
}

func (r *QuizRepository) lookup(quizID int64) (domain.QuizContent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.QuizContent{}, false
	}
	return cloneContent(entry.content), true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// callers may mutate the question slice (e.g. stripping answers), so never hand out the cached one
func cloneContent(c domain.QuizContent) domain.QuizContent {
	c.Questions = append([]domain.Question(nil), c.Questions...)
	return c
}
