package exam

import (
	"errors"

	"github.com/mind-engage/examsim/internal/extract"
	"github.com/mind-engage/examsim/internal/formats"
	"github.com/mind-engage/examsim/internal/grading"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrSubmitted     = errors.New("attempt already submitted")
	ErrTimeUp        = errors.New("time is up")
	ErrIndexRange    = errors.New("question index out of range")
	ErrInvalidAnswer = errors.New("answer is not one of the question's options")
)

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

type Exam struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	CandidateName  string              `json:"candidate_name,omitempty"`
	CandidateEmail string              `json:"candidate_email,omitempty"`
	Profile        string              `json:"profile"`
	Policy         formats.Policy      `json:"policy"`
	SourceKey      string              `json:"source_key,omitempty"` // archived upload, if kept
	Questions      []extract.Question  `json:"questions"`
	AnswerKey      extract.AnswerKey   `json:"answer_key"`
	Diagnostics    extract.Diagnostics `json:"diagnostics"`
	CreatedAt      int64               `json:"created_at,omitempty"`
}

// Public returns a copy that is safe to show a candidate: the key's letters are
// removed, its source is kept.
func (e Exam) Public() Exam {
	e.AnswerKey = extract.AnswerKey{Source: e.AnswerKey.Source}
	e.Diagnostics = extract.Diagnostics{}
	return e
}

func (e Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:             e.ID,
		Title:          e.Title,
		CandidateName:  e.CandidateName,
		Profile:        e.Profile,
		TotalQuestions: len(e.Questions),
		KeySource:      e.AnswerKey.Source,
		CreatedAt:      e.CreatedAt,
	}
}

type ExamSummary struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	CandidateName  string            `json:"candidate_name,omitempty"`
	Profile        string            `json:"profile"`
	TotalQuestions int               `json:"total_questions"`
	KeySource      extract.KeySource `json:"answer_key_source"`
	CreatedAt      int64             `json:"created_at"`
}

type Attempt struct {
	ID          string          `json:"id"`
	ExamID      string          `json:"exam_id"`
	Status      string          `json:"status"` // in_progress|submitted
	Current     int             `json:"current"`
	Answers     map[int]string  `json:"answers"` // question index -> letter
	StartedAt   int64           `json:"started_at"`
	Deadline    int64           `json:"deadline,omitempty"` // unix seconds; 0 = untimed
	SubmittedAt int64           `json:"submitted_at,omitempty"`
	Report      *grading.Report `json:"report,omitempty"`
}

// Feedback is returned for a saved answer when the exam gives immediate feedback.
type Feedback struct {
	Index         int    `json:"index"`
	Number        int    `json:"number"`
	Answer        string `json:"answer"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
}
