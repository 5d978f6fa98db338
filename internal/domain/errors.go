package domain

import "errors"

var (
	// ErrNotFound is returned when a quiz, question, attempt or result does not exist.
	ErrNotFound = errors.New("not found")
	// ErrQuizInactive is returned when starting or submitting against a deactivated quiz.
	ErrQuizInactive = errors.New("quiz is not active")
	// ErrAlreadyCompleted is returned when a student tries to retake a finished quiz.
	ErrAlreadyCompleted = errors.New("quiz already completed")
	// ErrNoOpenAttempt is returned when a submission has no matching open attempt.
	ErrNoOpenAttempt = errors.New("no open quiz attempt")
	// ErrForbidden is returned when the principal may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument indicates a request that violates a catalog invariant.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicateAttempt is raised by stores when a uniqueness constraint on attempts fires.
	ErrDuplicateAttempt = errors.New("duplicate attempt")
)

// Kind is the stable, machine-readable failure category exposed to clients.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindQuizInactive     Kind = "quiz_inactive"
	KindAlreadyCompleted Kind = "already_completed"
	KindNoOpenAttempt    Kind = "no_open_attempt"
	KindForbidden        Kind = "forbidden"
	KindInvalidArgument  Kind = "invalid_argument"
	KindInternal         Kind = "internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrQuizInactive, KindQuizInactive},
	{ErrAlreadyCompleted, KindAlreadyCompleted},
	{ErrNoOpenAttempt, KindNoOpenAttempt},
	{ErrForbidden, KindForbidden},
	{ErrInvalidArgument, KindInvalidArgument},
}

// KindOf classifies err. Anything that is not a domain error is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
