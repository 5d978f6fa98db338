package app

import (
	"context"
	"math"

	"quiz-attempt-service/internal/domain"
)

// StatisticsService is a read-side report over completed attempts.
type StatisticsService struct {
	catalog  CatalogRepository
	quizzes  QuizRepository
	attempts AttemptRepository
}

func NewStatisticsService(catalog CatalogRepository, quizzes QuizRepository, attempts AttemptRepository) *StatisticsService {
	return &StatisticsService{catalog: catalog, quizzes: quizzes, attempts: attempts}
}

func (s *StatisticsService) QuizStatistics(ctx context.Context, quizID int64, p domain.Principal) (domain.QuizStatistics, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizStatistics{}, err
	}
	if err := AuthorizeQuizResultsList(quiz, p); err != nil {
		return domain.QuizStatistics{}, err
	}
	attempts, err := s.attempts.ListByQuizzes(ctx, quizID)
	if err != nil {
		return domain.QuizStatistics{}, err
	}
	attempts = completedOnly(attempts)

	stats := domain.QuizStatistics{
		QuizID:        quiz.ID,
		QuizTitle:     quiz.Title,
		TotalAttempts: len(attempts),
		Distribution:  make(map[string]int, len(domain.DistributionBuckets)),
	}
	for _, b := range domain.DistributionBuckets {
		stats.Distribution[b] = 0
	}
	if len(attempts) == 0 {
		return stats, nil
	}

	total := 0
	highest, lowest := attempts[0], attempts[0]
	for _, a := range attempts {
		total += a.Score
		if a.Score > highest.Score {
			highest = a
		}
		if a.Score < lowest.Score {
			lowest = a
		}
		stats.Distribution[bucketOf(Percentage(a.Score, a.TotalMarks))]++
	}
	stats.AverageScore = round2(float64(total) / float64(len(attempts)))
	stats.Highest = &domain.ScoreEntry{
		Username:   highest.Student.Username,
		Score:      highest.Score,
		MaxMarks:   highest.TotalMarks,
		Percentage: round2(Percentage(highest.Score, highest.TotalMarks)),
	}
	stats.Lowest = &domain.ScoreEntry{
		Username:   lowest.Student.Username,
		Score:      lowest.Score,
		MaxMarks:   lowest.TotalMarks,
		Percentage: round2(Percentage(lowest.Score, lowest.TotalMarks)),
	}
	return stats, nil
}

func (s *StatisticsService) MyStatistics(ctx context.Context, p domain.Principal) (domain.StudentStatistics, error) {
	if err := requireTaker(p); err != nil {
		return domain.StudentStatistics{}, err
	}
	attempts, err := s.attempts.ListByStudent(ctx, p.ID(), true)
	if err != nil {
		return domain.StudentStatistics{}, err
	}
	stats := domain.StudentStatistics{TotalQuizzesAttempted: len(attempts)}
	if len(attempts) == 0 {
		return stats, nil
	}

	score, maxMarks := 0, 0
	best := attempts[0]
	for _, a := range attempts {
		score += a.Score
		maxMarks += a.TotalMarks
		if Percentage(a.Score, a.TotalMarks) > Percentage(best.Score, best.TotalMarks) {
			best = a
		}
	}
	stats.AveragePercentage = round2(Percentage(score, maxMarks))

	content, err := s.quizzes.GetQuizContent(ctx, best.QuizID)
	if err != nil {
		return domain.StudentStatistics{}, err
	}
	stats.BestPerformance = &domain.ScoreEntry{
		QuizTitle:  content.Quiz.Title,
		Score:      best.Score,
		MaxMarks:   best.TotalMarks,
		Percentage: round2(Percentage(best.Score, best.TotalMarks)),
	}
	return stats, nil
}

func bucketOf(percentage float64) string {
	switch {
	case percentage >= 90:
		return "90-100"
	case percentage >= 80:
		return "80-89"
	case percentage >= 70:
		return "70-79"
	case percentage >= 60:
		return "60-69"
	case percentage >= 50:
		return "50-59"
	default:
		return "0-49"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
