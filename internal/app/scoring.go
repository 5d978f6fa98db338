package app

import "quiz-attempt-service/internal/domain"

// Grade is the outcome of grading one submission.
type Grade struct {
	Answers          []domain.StudentAnswer
	CorrectAnswers   int
	Score            int
	MarksPerQuestion int
}

// MarksPerQuestion is the integer share of the quiz's marks awarded per correct answer.
// The remainder of MaxMarks / NumberOfQuestions is never awarded.
func MarksPerQuestion(quiz domain.Quiz) int {
	if quiz.NumberOfQuestions <= 0 {
		return 0
	}
	return quiz.MaxMarks / quiz.NumberOfQuestions
}

// GradeSubmission builds one answer record per attached question, in question order.
// Questions missing from submitted are recorded unanswered and incorrect.
func GradeSubmission(quiz domain.Quiz, questions []domain.Question, submitted map[int64]string) Grade {
	grade := Grade{
		Answers:          make([]domain.StudentAnswer, 0, len(questions)),
		MarksPerQuestion: MarksPerQuestion(quiz),
	}
	for _, question := range questions {
		var selected *string
		if value, ok := submitted[question.ID]; ok {
			v := value
			selected = &v
		}
		correct := question.IsCorrect(selected)
		if correct {
			grade.CorrectAnswers++
			grade.Score += grade.MarksPerQuestion
		}
		grade.Answers = append(grade.Answers, domain.StudentAnswer{
			QuestionID:     question.ID,
			SelectedAnswer: selected,
			Correct:        correct,
		})
	}
	return grade
}
