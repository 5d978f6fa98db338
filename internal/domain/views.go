package domain

import "time"

// AttemptSummary is the outward-facing view of an attempt.
type AttemptSummary struct {
	ID             int64      `json:"id"`
	QuizID         int64      `json:"quizId"`
	QuizTitle      string     `json:"quizTitle"`
	StudentName    string     `json:"studentName"`
	StudentEmail   string     `json:"studentEmail"`
	Score          int        `json:"score"`
	TotalMarks     int        `json:"totalMarks"`
	CorrectAnswers int        `json:"correctAnswers"`
	TotalQuestions int        `json:"totalQuestions"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Completed      bool       `json:"completed"`
	Percentage     float64    `json:"percentage"`
}

// QuestionResult is one line of the per-question breakdown.
type QuestionResult struct {
	QuestionID      int64   `json:"questionId"`
	QuestionContent string  `json:"questionContent"`
	Option1         string  `json:"option1"`
	Option2         string  `json:"option2"`
	Option3         string  `json:"option3"`
	Option4         string  `json:"option4"`
	CorrectAnswer   string  `json:"correctAnswer"`
	SelectedAnswer  *string `json:"selectedAnswer"`
	Correct         bool    `json:"correct"`
}

// Result is the summary of a completed attempt plus its breakdown.
type Result struct {
	AttemptSummary
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	QuestionResults []QuestionResult `json:"questionResults"`
}

// ScoreEntry names a single noteworthy attempt in a statistics report.
type ScoreEntry struct {
	QuizTitle  string  `json:"quizTitle,omitempty"`
	Username   string  `json:"username,omitempty"`
	Score      int     `json:"score"`
	MaxMarks   int     `json:"maxMarks,omitempty"`
	Percentage float64 `json:"percentage"`
}

// DistributionBuckets lists the percentage buckets of QuizStatistics.Distribution in display order.
var DistributionBuckets = []string{"90-100", "80-89", "70-79", "60-69", "50-59", "0-49"}

// QuizStatistics aggregates the completed attempts of one quiz.
type QuizStatistics struct {
	QuizID        int64          `json:"quizId"`
	QuizTitle     string         `json:"quizTitle"`
	TotalAttempts int            `json:"totalAttempts"`
	AverageScore  float64        `json:"averageScore"`
	Highest       *ScoreEntry    `json:"highestScore,omitempty"`
	Lowest        *ScoreEntry    `json:"lowestScore,omitempty"`
	Distribution  map[string]int `json:"scoreDistribution"`
}

// StudentStatistics aggregates the completed attempts of one student.
type StudentStatistics struct {
	TotalQuizzesAttempted int         `json:"totalQuizzesAttempted"`
	AveragePercentage     float64     `json:"averagePercentage"`
	BestPerformance       *ScoreEntry `json:"bestPerformance,omitempty"`
}
