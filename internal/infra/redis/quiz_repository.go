package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// QuizRepository caches quiz content in Redis and falls back to a loader on cache miss.
// Content is stored as JSON: SET quiz:{quizID}:content {json} PX ttl
// Invalidate bumps quiz:{quizID}:gen; a load only fills the cache if the generation it
// started under is still current.
type QuizRepository struct {
	client *redis.Client
	loader app.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader app.QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error) {
	if content, ok := r.cached(ctx, quizID); ok {
		return content, nil
	}

	result, err, _ := r.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if content, ok := r.cached(ctx, quizID); ok {
			return content, nil
		}

		gen, err := r.generation(ctx, r.client, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}
		content, err := r.loader.LoadQuizContent(ctx, quizID)
		if err != nil {
			return domain.QuizContent{}, err
		}
		if err := r.fill(ctx, quizID, gen, content); err != nil {
			log.Printf("cache quiz %d: %v", quizID, err)
		}
		return content, nil
	})
	if err != nil {
		return domain.QuizContent{}, err
	}
	content := result.(domain.QuizContent)
	content.Questions = append([]domain.Question(nil), content.Questions...)
	return content, nil
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

var errStaleLoad = errors.New("quiz invalidated during load")

// fill stores content unless Invalidate ran since gen was read.
func (r *QuizRepository) fill(ctx context.Context, quizID int64, gen int64, content domain.QuizContent) error {
	ttl := r.ttlWithJitter()
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.generation(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.contentKey(quizID), raw, ttl)
			return nil
		})
		return err
	}, r.genKey(quizID))
	if errors.Is(err, errStaleLoad) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops the cached content so every instance reloads on next read.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID int64) error {
	r.sf.Forget(strconv.FormatInt(quizID, 10))
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.genKey(quizID))
		pipe.Del(ctx, r.contentKey(quizID))
		return nil
	})
	return err
}

func (r *QuizRepository) generation(ctx context.Context, c stringGetter, quizID int64) (int64, error) {
	gen, err := c.Get(ctx, r.genKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read quiz %d generation: %w", quizID, err)
	}
	return gen, nil
}

func (r *QuizRepository) cached(ctx context.Context, quizID int64) (domain.QuizContent, bool) {
	raw, err := r.client.Get(ctx, r.contentKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached quiz %d: %v", quizID, err)
		}
		return domain.QuizContent{}, false
	}
	var content domain.QuizContent
	if err := json.Unmarshal(raw, &content); err != nil {
		log.Printf("decode cached quiz %d: %v", quizID, err)
		return domain.QuizContent{}, false
	}
	return content, true
}

func (r *QuizRepository) contentKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":content"
}

func (r *QuizRepository) genKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":gen"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
