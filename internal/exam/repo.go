package exam

import "context"

type ListOpts struct {
	Q      string // case-insensitive title filter
	Limit  int
	Offset int
}

type AttemptListOpts struct {
	ExamID string
	Status string // in_progress|submitted; "" for both
	Limit  int
	Offset int
}

type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)      // candidate-safe (no answer key)
	GetExamAdmin(ctx context.Context, id string) (Exam, error) // full exam, for export/scoring
	ListExams(ctx context.Context, opts ListOpts) ([]ExamSummary, error)

	NewAttempt(ctx context.Context, examID string) (Attempt, error)
	// SaveAnswer records letter for the question at index; "" clears it. Feedback is
	// non-nil only for exams with immediate feedback.
	SaveAnswer(ctx context.Context, attemptID string, index int, letter string) (Attempt, *Feedback, error)
	Navigate(ctx context.Context, attemptID string, target int) (Attempt, error)
	// Submit finalizes the attempt and is idempotent. first reports whether this call
	// made the transition to submitted.
	Submit(ctx context.Context, attemptID string) (a Attempt, first bool, err error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
}

func (o ListOpts) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 50
	}
	return o.Limit
}

func (o AttemptListOpts) limit() int { return ListOpts{Limit: o.Limit}.limit() }
