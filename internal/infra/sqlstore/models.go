package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID                int64     `bun:"id,pk,autoincrement"`
	Code              string    `bun:"code,notnull"`
	Title             string    `bun:"title,notnull"`
	Description       string    `bun:"description,notnull"`
	MaxMarks          int       `bun:"max_marks,notnull"`
	NumberOfQuestions int       `bun:"number_of_questions,notnull"`
	Active            bool      `bun:"active,notnull"`
	CreatorID         int64     `bun:"creator_id,notnull"`
	TeacherID         int64     `bun:"teacher_id,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID      int64  `bun:"id,pk,autoincrement"`
	QuizID  int64  `bun:"quiz_id,notnull"`
	Content string `bun:"content,notnull"`
	Image   string `bun:"image,notnull"`
	Option1 string `bun:"option1,notnull"`
	Option2 string `bun:"option2,notnull"`
	Option3 string `bun:"option3,notnull"`
	Option4 string `bun:"option4,notnull"`
	Answer  string `bun:"answer,notnull"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	QuizID             int64      `bun:"quiz_id,notnull"`
	StudentID          int64      `bun:"student_id,notnull"`
	StudentUsername    string     `bun:"student_username,notnull"`
	StudentDisplayName string     `bun:"student_display_name,notnull"`
	StudentEmail       string     `bun:"student_email,notnull"`
	Score              int        `bun:"score,notnull"`
	TotalMarks         int        `bun:"total_marks,notnull"`
	CorrectAnswers     int        `bun:"correct_answers,notnull"`
	TotalQuestions     int        `bun:"total_questions,notnull"`
	StartTime          time.Time  `bun:"start_time,notnull"`
	EndTime            *time.Time `bun:"end_time"`
	Completed          bool       `bun:"completed,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:student_answers"`

	ID             int64   `bun:"id,pk,autoincrement"`
	AttemptID      int64   `bun:"attempt_id,notnull"`
	QuestionID     int64   `bun:"question_id,notnull"`
	SelectedAnswer *string `bun:"selected_answer"`
	Correct        bool    `bun:"is_correct,notnull"`
}

func quizFromDomain(q domain.Quiz) quizRow {
	return quizRow{
		ID:                q.ID,
		Code:              q.Code,
		Title:             q.Title,
		Description:       q.Description,
		MaxMarks:          q.MaxMarks,
		NumberOfQuestions: q.NumberOfQuestions,
		Active:            q.Active,
		CreatorID:         q.CreatorID,
		TeacherID:         q.TeacherID,
		CreatedAt:         q.CreatedAt,
	}
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:                r.ID,
		Code:              r.Code,
		Title:             r.Title,
		Description:       r.Description,
		MaxMarks:          r.MaxMarks,
		NumberOfQuestions: r.NumberOfQuestions,
		Active:            r.Active,
		CreatorID:         r.CreatorID,
		TeacherID:         r.TeacherID,
		CreatedAt:         r.CreatedAt,
	}
}

func questionFromDomain(q domain.Question) questionRow {
	return questionRow{
		ID:      q.ID,
		QuizID:  q.QuizID,
		Content: q.Content,
		Image:   q.Image,
		Option1: q.Option1,
		Option2: q.Option2,
		Option3: q.Option3,
		Option4: q.Option4,
		Answer:  q.Answer,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:      r.ID,
		QuizID:  r.QuizID,
		Content: r.Content,
		Image:   r.Image,
		Option1: r.Option1,
		Option2: r.Option2,
		Option3: r.Option3,
		Option4: r.Option4,
		Answer:  r.Answer,
	}
}

func attemptFromDomain(a domain.Attempt) attemptRow {
	return attemptRow{
		ID:                 a.ID,
		QuizID:             a.QuizID,
		StudentID:          a.StudentID,
		StudentUsername:    a.Student.Username,
		StudentDisplayName: a.Student.DisplayName,
		StudentEmail:       a.Student.Email,
		Score:              a.Score,
		TotalMarks:         a.TotalMarks,
		CorrectAnswers:     a.CorrectAnswers,
		TotalQuestions:     a.TotalQuestions,
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		Completed:          a.Completed,
	}
}

func (r attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:        r.ID,
		QuizID:    r.QuizID,
		StudentID: r.StudentID,
		Student: domain.StudentProfile{
			Username:    r.StudentUsername,
			DisplayName: r.StudentDisplayName,
			Email:       r.StudentEmail,
		},
		Score:          r.Score,
		TotalMarks:     r.TotalMarks,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Completed:      r.Completed,
	}
}

func (r answerRow) toDomain() domain.StudentAnswer {
	return domain.StudentAnswer{
		ID:             r.ID,
		AttemptID:      r.AttemptID,
		QuestionID:     r.QuestionID,
		SelectedAnswer: r.SelectedAnswer,
		Correct:        r.Correct,
	}
}
