package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Table snapshots as of this migration.
type quiz struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID                int64     `bun:"id,pk,autoincrement"`
	Code              string    `bun:"code,notnull,unique"`
	Title             string    `bun:"title,notnull"`
	Description       string    `bun:"description,notnull"`
	MaxMarks          int       `bun:"max_marks,notnull"`
	NumberOfQuestions int       `bun:"number_of_questions,notnull"`
	Active            bool      `bun:"active,notnull"`
	CreatorID         int64     `bun:"creator_id,notnull"`
	TeacherID         int64     `bun:"teacher_id,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

type question struct {
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

type attempt struct {
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

type studentAnswer struct {
	bun.BaseModel `bun:"table:student_answers"`

	ID             int64   `bun:"id,pk,autoincrement"`
	AttemptID      int64   `bun:"attempt_id,notnull"`
	QuestionID     int64   `bun:"question_id,notnull"`
	SelectedAnswer *string `bun:"selected_answer"`
	Correct        bool    `bun:"is_correct,notnull"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				if _, err := tx.NewCreateTable().Model((*quiz)(nil)).IfNotExists().Exec(ctx); err != nil {
					return err
				}
				if _, err := tx.NewCreateTable().Model((*question)(nil)).IfNotExists().
					ForeignKey(`("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`).
					Exec(ctx); err != nil {
					return err
				}
				if _, err := tx.NewCreateTable().Model((*attempt)(nil)).IfNotExists().
					ForeignKey(`("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`).
					Exec(ctx); err != nil {
					return err
				}
				if _, err := tx.NewCreateTable().Model((*studentAnswer)(nil)).IfNotExists().
					ForeignKey(`("attempt_id") REFERENCES "attempts" ("id") ON DELETE CASCADE`).
					ForeignKey(`("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`).
					Exec(ctx); err != nil {
					return err
				}

				// at most one open and one completed attempt per (student, quiz)
				for name, completed := range map[string]bool{
					"attempts_open_student_quiz_uq":      false,
					"attempts_completed_student_quiz_uq": true,
				} {
					if _, err := tx.NewCreateIndex().Model((*attempt)(nil)).
						Index(name).
						Unique().
						IfNotExists().
						Column("student_id", "quiz_id").
						Where("completed = ?", completed).
						Exec(ctx); err != nil {
						return err
					}
				}
				if _, err := tx.NewCreateIndex().Model((*question)(nil)).
					Index("questions_quiz_id_idx").
					IfNotExists().
					Column("quiz_id").
					Exec(ctx); err != nil {
					return err
				}
				_, err := tx.NewCreateIndex().Model((*studentAnswer)(nil)).
					Index("student_answers_attempt_id_idx").
					IfNotExists().
					Column("attempt_id").
					Exec(ctx)
				return err
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, model := range []interface{}{(*studentAnswer)(nil), (*attempt)(nil), (*question)(nil), (*quiz)(nil)} {
				if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
