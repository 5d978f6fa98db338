package app

import "quiz-attempt-service/internal/domain"

// Percentage is score/totalMarks*100, or 0 when totalMarks is not positive.
func Percentage(score, totalMarks int) float64 {
	if totalMarks <= 0 {
		return 0
	}
	return float64(score) / float64(totalMarks) * 100
}

// Summarize builds the outward-facing view of attempt.
func Summarize(quiz domain.Quiz, attempt domain.Attempt) domain.AttemptSummary {
	return domain.AttemptSummary{
		ID:             attempt.ID,
		QuizID:         attempt.QuizID,
		QuizTitle:      quiz.Title,
		StudentName:    attempt.Student.Name(),
		StudentEmail:   attempt.Student.Contact(),
		Score:          attempt.Score,
		TotalMarks:     attempt.TotalMarks,
		CorrectAnswers: attempt.CorrectAnswers,
		TotalQuestions: attempt.TotalQuestions,
		StartTime:      attempt.StartTime,
		EndTime:        attempt.EndTime,
		Completed:      attempt.Completed,
		Percentage:     Percentage(attempt.Score, attempt.TotalMarks),
	}
}

// BuildResult adds the per-question breakdown to the summary. Breakdown order follows answers.
func BuildResult(content domain.QuizContent, attempt domain.Attempt, answers []domain.StudentAnswer) domain.Result {
	questions := make(map[int64]domain.Question, len(content.Questions))
	for _, q := range content.Questions {
		questions[q.ID] = q
	}

	breakdown := make([]domain.QuestionResult, 0, len(answers))
	for _, answer := range answers {
		q := questions[answer.QuestionID]
		breakdown = append(breakdown, domain.QuestionResult{
			QuestionID:      answer.QuestionID,
			QuestionContent: q.Content,
			Option1:         q.Option1,
			Option2:         q.Option2,
			Option3:         q.Option3,
			Option4:         q.Option4,
			CorrectAnswer:   q.Answer,
			SelectedAnswer:  answer.SelectedAnswer,
			Correct:         answer.Correct,
		})
	}

	return domain.Result{
		AttemptSummary:  Summarize(content.Quiz, attempt),
		CompletedAt:     attempt.EndTime,
		QuestionResults: breakdown,
	}
}
