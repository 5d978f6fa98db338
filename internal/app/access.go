package app

import (
	"fmt"

	"quiz-attempt-service/internal/domain"
)

// AuthorizeRead allows the attempt's student, the quiz's creator or teacher, and admins.
func AuthorizeRead(quiz domain.Quiz, attempt domain.Attempt, p domain.Principal) error {
	if p != nil && attempt.StudentID == p.ID() {
		return nil
	}
	if domain.IsOwnerOrAdmin(quiz, p) {
		return nil
	}
	return fmt.Errorf("%w: result of attempt %d", domain.ErrForbidden, attempt.ID)
}

// AuthorizeQuizResultsList allows the quiz's creator or teacher, and admins.
func AuthorizeQuizResultsList(quiz domain.Quiz, p domain.Principal) error {
	if domain.IsOwnerOrAdmin(quiz, p) {
		return nil
	}
	return fmt.Errorf("%w: results of quiz %d", domain.ErrForbidden, quiz.ID)
}

func requireTaker(p domain.Principal) error {
	if !domain.CanTakeQuizzes(p) {
		return fmt.Errorf("%w: student or admin role required", domain.ErrForbidden)
	}
	return nil
}

func requireReviewer(p domain.Principal) error {
	if !domain.CanReviewQuizzes(p) {
		return fmt.Errorf("%w: teacher or admin role required", domain.ErrForbidden)
	}
	return nil
}
