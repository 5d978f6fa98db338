package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/domain"
)

// QuizInput carries the authorable fields of a quiz.
type QuizInput struct {
	Code              string
	Title             string
	Description       string
	MaxMarks          int
	NumberOfQuestions int
	Active            bool
}

// QuestionInput carries the authorable fields of a question.
type QuestionInput struct {
	Content string
	Image   string
	Option1 string
	Option2 string
	Option3 string
	Option4 string
	Answer  string
}

// CatalogService enforces the catalog invariants that feed scoring.
type CatalogService struct {
	catalog CatalogRepository
	quizzes QuizRepository
	now     func() time.Time
}

func NewCatalogService(catalog CatalogRepository, quizzes QuizRepository) *CatalogService {
	return &CatalogService{catalog: catalog, quizzes: quizzes, now: time.Now}
}

func (s *CatalogService) CreateQuiz(ctx context.Context, in QuizInput, p domain.Principal) (domain.Quiz, error) {
	if err := requireReviewer(p); err != nil {
		return domain.Quiz{}, err
	}
	if err := validateQuizInput(in); err != nil {
		return domain.Quiz{}, err
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		code = generateQuizCode()
	}
	quiz := domain.Quiz{
		Code:              code,
		Title:             in.Title,
		Description:       in.Description,
		MaxMarks:          in.MaxMarks,
		NumberOfQuestions: in.NumberOfQuestions,
		Active:            in.Active,
		CreatorID:         p.ID(),
		TeacherID:         p.ID(),
		CreatedAt:         s.now(),
	}
	if err := s.catalog.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	log.Printf("quiz %d (%s) created by %d", quiz.ID, quiz.Code, p.ID())
	return quiz, nil
}

// UpdateQuiz rewrites the quiz. NumberOfQuestions may not drop below the attached question count.
func (s *CatalogService) UpdateQuiz(ctx context.Context, quizID int64, in QuizInput, p domain.Principal) (domain.Quiz, error) {
	if err := validateQuizInput(in); err != nil {
		return domain.Quiz{}, err
	}
	var quiz domain.Quiz
	err := s.catalog.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		quiz, err = s.lockOwnedQuiz(ctx, quizID, p)
		if err != nil {
			return err
		}
		existing, err := s.catalog.CountQuestions(ctx, quizID)
		if err != nil {
			return err
		}
		if in.NumberOfQuestions < existing {
			return fmt.Errorf("%w: cannot reduce to %d questions, quiz already has %d",
				domain.ErrInvalidArgument, in.NumberOfQuestions, existing)
		}

		quiz.Title = in.Title
		quiz.Description = in.Description
		quiz.MaxMarks = in.MaxMarks
		quiz.NumberOfQuestions = in.NumberOfQuestions
		quiz.Active = in.Active
		if code := strings.TrimSpace(in.Code); code != "" {
			quiz.Code = code
		}
		return s.catalog.UpdateQuiz(ctx, quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return quiz, nil
}

func (s *CatalogService) ToggleActive(ctx context.Context, quizID int64, p domain.Principal) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.catalog.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		quiz, err = s.lockOwnedQuiz(ctx, quizID, p)
		if err != nil {
			return err
		}
		quiz.Active = !quiz.Active
		return s.catalog.UpdateQuiz(ctx, quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return quiz, nil
}

func (s *CatalogService) DeleteQuiz(ctx context.Context, quizID int64, p domain.Principal) error {
	if _, err := s.ownedQuiz(ctx, quizID, p); err != nil {
		return err
	}
	if err := s.catalog.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	log.Printf("quiz %d deleted by %d", quizID, p.ID())
	return nil
}

func (s *CatalogService) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.catalog.GetQuiz(ctx, quizID)
}

func (s *CatalogService) ListActiveQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.catalog.ListQuizzes(ctx, QuizFilter{ActiveOnly: true})
}

func (s *CatalogService) ListAllQuizzes(ctx context.Context, p domain.Principal) ([]domain.Quiz, error) {
	if !domain.IsAdmin(p) {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return s.catalog.ListQuizzes(ctx, QuizFilter{})
}

func (s *CatalogService) ListMyQuizzes(ctx context.Context, p domain.Principal) ([]domain.Quiz, error) {
	if err := requireReviewer(p); err != nil {
		return nil, err
	}
	return s.catalog.ListQuizzes(ctx, QuizFilter{OwnerID: p.ID()})
}

// AddQuestion attaches a question. A quiz never holds more questions than NumberOfQuestions.
func (s *CatalogService) AddQuestion(ctx context.Context, quizID int64, in QuestionInput, p domain.Principal) (domain.Question, error) {
	question := questionFromInput(in)
	question.QuizID = quizID
	err := s.catalog.WithinTx(ctx, func(ctx context.Context) error {
		quiz, err := s.lockOwnedQuiz(ctx, quizID, p)
		if err != nil {
			return err
		}
		count, err := s.catalog.CountQuestions(ctx, quizID)
		if err != nil {
			return err
		}
		if count >= quiz.NumberOfQuestions {
			return fmt.Errorf("%w: quiz %d already has %d of %d questions",
				domain.ErrInvalidArgument, quizID, count, quiz.NumberOfQuestions)
		}
		return s.catalog.CreateQuestion(ctx, &question)
	})
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, quizID)
	return question, nil
}

// UpdateQuestion rewrites the question text. The owning quiz never changes.
func (s *CatalogService) UpdateQuestion(ctx context.Context, questionID int64, in QuestionInput, p domain.Principal) (domain.Question, error) {
	existing, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if _, err := s.ownedQuiz(ctx, existing.QuizID, p); err != nil {
		return domain.Question{}, err
	}
	question := questionFromInput(in)
	question.ID = existing.ID
	question.QuizID = existing.QuizID
	if err := s.catalog.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, existing.QuizID)
	return question, nil
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, questionID int64, p domain.Principal) error {
	existing, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if _, err := s.ownedQuiz(ctx, existing.QuizID, p); err != nil {
		return err
	}
	if err := s.catalog.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, existing.QuizID)
	return nil
}

// ListQuestions returns a quiz's questions. Answers are visible to owners and admins only,
// and an inactive quiz is hidden from everyone else.
func (s *CatalogService) ListQuestions(ctx context.Context, quizID int64, p domain.Principal) ([]domain.Question, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	privileged := domain.IsOwnerOrAdmin(quiz, p)
	if !quiz.Active && !privileged {
		return nil, fmt.Errorf("%w: quiz %d", domain.ErrQuizInactive, quizID)
	}
	questions, err := s.catalog.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !privileged {
		for i := range questions {
			questions[i].Answer = ""
		}
	}
	return questions, nil
}

func (s *CatalogService) ownedQuiz(ctx context.Context, quizID int64, p domain.Principal) (domain.Quiz, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !domain.IsOwnerOrAdmin(quiz, p) {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %d", domain.ErrForbidden, quizID)
	}
	return quiz, nil
}

// lockOwnedQuiz is ownedQuiz holding the quiz row for the rest of the transaction.
func (s *CatalogService) lockOwnedQuiz(ctx context.Context, quizID int64, p domain.Principal) (domain.Quiz, error) {
	quiz, err := s.catalog.LockQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !domain.IsOwnerOrAdmin(quiz, p) {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %d", domain.ErrForbidden, quizID)
	}
	return quiz, nil
}

func (s *CatalogService) invalidate(ctx context.Context, quizID int64) {
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		log.Printf("invalidate quiz %d: %v", quizID, err)
	}
}

func validateQuizInput(in QuizInput) error {
	if in.NumberOfQuestions <= 0 {
		return fmt.Errorf("%w: number of questions must be positive", domain.ErrInvalidArgument)
	}
	if in.MaxMarks <= 0 {
		return fmt.Errorf("%w: max marks must be positive", domain.ErrInvalidArgument)
	}
	return nil
}

func questionFromInput(in QuestionInput) domain.Question {
	return domain.Question{
		Content: in.Content,
		Image:   in.Image,
		Option1: in.Option1,
		Option2: in.Option2,
		Option3: in.Option3,
		Option4: in.Option4,
		Answer:  in.Answer,
	}
}

func generateQuizCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
