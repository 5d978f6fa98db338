package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// CatalogStore implements app.CatalogRepository and app.QuizLoader.
type CatalogStore struct {
	*Store
}

func (s *CatalogStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runInTx(ctx, func(ctx context.Context, _ bun.IDB) error {
		return fn(ctx)
	})
}

// LockQuiz reads the quiz row with FOR UPDATE on postgres. sqlite needs no row lock:
// its single connection already serializes transactions.
func (s *CatalogStore) LockQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.getQuiz(ctx, id, s.db.Dialect().Name() == dialect.PG)
}

func (s *CatalogStore) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.getQuiz(ctx, id, false)
}

func (s *CatalogStore) getQuiz(ctx context.Context, id int64, forUpdate bool) (domain.Quiz, error) {
	var row quizRow
	q := s.idb(ctx).NewSelect().Model(&row).Where("id = ?", id)
	if forUpdate {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if isNoRows(err) {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *CatalogStore) ListQuizzes(ctx context.Context, filter app.QuizFilter) ([]domain.Quiz, error) {
	var rows []quizRow
	q := s.idb(ctx).NewSelect().Model(&rows).Order("id ASC")
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.OwnerID != 0 {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("creator_id = ?", filter.OwnerID).WhereOr("teacher_id = ?", filter.OwnerID)
		})
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *CatalogStore) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	row := quizFromDomain(*quiz)
	row.ID = 0
	if _, err := s.idb(ctx).NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: quiz code %q already in use", domain.ErrInvalidArgument, quiz.Code)
		}
		return fmt.Errorf("insert quiz: %w", err)
	}
	quiz.ID = row.ID
	return nil
}

func (s *CatalogStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := quizFromDomain(quiz)
	res, err := s.idb(ctx).NewUpdate().Model(&row).ExcludeColumn("created_at").WherePK().Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: quiz code %q already in use", domain.ErrInvalidArgument, quiz.Code)
		}
		return fmt.Errorf("update quiz: %w", err)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("%w: quiz %d", domain.ErrNotFound, quiz.ID)
	}
	return nil
}

// DeleteQuiz removes answers, attempts and questions before the quiz itself.
func (s *CatalogStore) DeleteQuiz(ctx context.Context, id int64) error {
	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		attemptIDs := db.NewSelect().Model((*attemptRow)(nil)).Column("id").Where("quiz_id = ?", id)
		questionIDs := db.NewSelect().Model((*questionRow)(nil)).Column("id").Where("quiz_id = ?", id)

		if _, err := db.NewDelete().Model((*answerRow)(nil)).
			Where("attempt_id IN (?)", attemptIDs).
			WhereOr("question_id IN (?)", questionIDs).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		if _, err := db.NewDelete().Model((*attemptRow)(nil)).Where("quiz_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		if _, err := db.NewDelete().Model((*questionRow)(nil)).Where("quiz_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		res, err := db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		if rowsAffected(res) == 0 {
			return fmt.Errorf("%w: quiz %d", domain.ErrNotFound, id)
		}
		return nil
	})
}

func (s *CatalogStore) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	var row questionRow
	err := s.idb(ctx).NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if isNoRows(err) {
		return domain.Question{}, fmt.Errorf("%w: question %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("select question: %w", err)
	}
	return row.toDomain(), nil
}

func (s *CatalogStore) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	var rows []questionRow
	if err := s.idb(ctx).NewSelect().Model(&rows).Where("quiz_id = ?", quizID).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *CatalogStore) CountQuestions(ctx context.Context, quizID int64) (int, error) {
	n, err := s.idb(ctx).NewSelect().Model((*questionRow)(nil)).Where("quiz_id = ?", quizID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (s *CatalogStore) CreateQuestion(ctx context.Context, question *domain.Question) error {
	if _, err := s.GetQuiz(ctx, question.QuizID); err != nil {
		return err
	}
	row := questionFromDomain(*question)
	row.ID = 0
	if _, err := s.idb(ctx).NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	question.ID = row.ID
	return nil
}

func (s *CatalogStore) UpdateQuestion(ctx context.Context, question domain.Question) error {
	row := questionFromDomain(question)
	res, err := s.idb(ctx).NewUpdate().Model(&row).ExcludeColumn("quiz_id").WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("%w: question %d", domain.ErrNotFound, question.ID)
	}
	return nil
}

func (s *CatalogStore) DeleteQuestion(ctx context.Context, id int64) error {
	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewDelete().Model((*answerRow)(nil)).Where("question_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		res, err := db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		if rowsAffected(res) == 0 {
			return fmt.Errorf("%w: question %d", domain.ErrNotFound, id)
		}
		return nil
	})
}

func (s *CatalogStore) LoadQuizContent(ctx context.Context, quizID int64) (domain.QuizContent, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	questions, err := s.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	return domain.QuizContent{Quiz: quiz, Questions: questions}, nil
}
