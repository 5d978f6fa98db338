package domain

import "time"

// Quiz is the catalog entry a student attempts.
type Quiz struct {
	ID                int64     `json:"id"`
	Code              string    `json:"code"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	MaxMarks          int       `json:"maxMarks"`
	NumberOfQuestions int       `json:"numberOfQuestions"`
	Active            bool      `json:"active"`
	CreatorID         int64     `json:"creatorId"`
	TeacherID         int64     `json:"teacherId"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Question models an MCQ question with four options and one correct answer text.
type Question struct {
	ID      int64  `json:"id"`
	QuizID  int64  `json:"quizId"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
	Option1 string `json:"option1"`
	Option2 string `json:"option2"`
	Option3 string `json:"option3"`
	Option4 string `json:"option4"`
	Answer  string `json:"answer,omitempty"`
}

// IsCorrect reports whether selected exactly matches the stored answer.
// A nil selection is never correct.
func (q Question) IsCorrect(selected *string) bool {
	return selected != nil && *selected == q.Answer
}

// QuizContent is a quiz together with its attached questions, in catalog order.
type QuizContent struct {
	Quiz      Quiz       `json:"quiz"`
	Questions []Question `json:"questions"`
}

// Attempt is one student's lifecycle instance of taking a quiz.
type Attempt struct {
	ID             int64
	QuizID         int64
	StudentID      int64
	Student        StudentProfile
	Score          int
	TotalMarks     int
	CorrectAnswers int
	TotalQuestions int
	StartTime      time.Time
	EndTime        *time.Time
	Completed      bool
}

// Finalize moves an open attempt to the completed state. It is irreversible.
func (a *Attempt) Finalize(score, correctAnswers int, at time.Time) error {
	if a.Completed {
		return ErrNoOpenAttempt
	}
	a.Score = score
	a.CorrectAnswers = correctAnswers
	a.Completed = true
	end := at
	a.EndTime = &end
	return nil
}

// StudentProfile is the identity snapshot taken when the attempt starts.
type StudentProfile struct {
	Username    string
	DisplayName string
	Email       string
}

// Name returns the display name, falling back to the username.
func (p StudentProfile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Contact returns the email, falling back to the username.
func (p StudentProfile) Contact() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Username
}

// StudentAnswer records the graded answer of one question within an attempt.
type StudentAnswer struct {
	ID             int64
	AttemptID      int64
	QuestionID     int64
	SelectedAnswer *string
	Correct        bool
}
