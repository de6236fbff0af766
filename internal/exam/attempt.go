package exam

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/examsim/internal/formats"
	"github.com/mind-engage/examsim/internal/grading"
)

func newAttempt(e Exam, now time.Time) Attempt {
	a := Attempt{
		ID:        uuid.NewString(),
		ExamID:    e.ID,
		Status:    StatusInProgress,
		Answers:   map[int]string{},
		StartedAt: now.Unix(),
	}
	if e.Policy.TimeLimitSec > 0 {
		a.Deadline = a.StartedAt + int64(e.Policy.TimeLimitSec)
	}
	return a
}

// TimeLeft is the remaining time, zero once the deadline passed and -1 when untimed.
func (a Attempt) TimeLeft(now time.Time) time.Duration {
	if a.Deadline == 0 {
		return -1
	}
	left := time.Unix(a.Deadline, 0).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func (a Attempt) expired(now time.Time) bool {
	return a.Deadline > 0 && now.Unix() >= a.Deadline
}

func applyAnswer(e Exam, a *Attempt, index int, letter string, now time.Time) (*Feedback, error) {
	if a.Status == StatusSubmitted {
		return nil, ErrSubmitted
	}
	if a.expired(now) {
		return nil, ErrTimeUp
	}
	if index < 0 || index >= len(e.Questions) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexRange, index, len(e.Questions))
	}
	if a.Answers == nil {
		a.Answers = map[int]string{}
	}
	a.Current = index

	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		delete(a.Answers, index)
		return nil, nil
	}
	q := e.Questions[index]
	if _, ok := q.Option(letter); !ok {
		return nil, fmt.Errorf("%w: %q for question %d", ErrInvalidAnswer, letter, q.Number)
	}
	a.Answers[index] = letter

	if e.Policy.Feedback != formats.FeedbackImmediate {
		return nil, nil
	}
	ok, want := grading.Check(e.AnswerKey, q.Number, letter)
	return &Feedback{Index: index, Number: q.Number, Answer: letter, Correct: ok, CorrectAnswer: want}, nil
}

// navigate moves the cursor, clamped to the exam's questions.
func navigate(e Exam, a *Attempt, target int) error {
	if a.Status == StatusSubmitted {
		return ErrSubmitted
	}
	a.Current = max(0, min(target, len(e.Questions)-1))
	return nil
}

func finish(e Exam, a *Attempt, now time.Time) {
	rep := grading.Score(grading.Input{
		TotalQuestions: len(e.Questions),
		PositiveMarks:  e.Policy.Scoring.Positive,
		NegativeMarks:  e.Policy.Scoring.Penalty,
		Key:            e.AnswerKey,
		Questions:      e.Questions,
		Answers:        a.Answers,
	})
	a.Report = &rep
	a.Status = StatusSubmitted
	a.SubmittedAt = now.Unix()
}
