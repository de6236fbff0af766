// Package grading scores a learner's answers against an extracted answer key.
package grading

import (
	"strings"

	"github.com/mind-engage/examsim/internal/extract"
)

// Status is the outcome for one question.
type Status string

const (
	StatusCorrect    Status = "correct"
	StatusIncorrect  Status = "incorrect"
	StatusUnanswered Status = "unanswered"
)

// MaxQuestions bounds TotalQuestions for callers that take it from untrusted input.
const MaxQuestions = 10000

// Input is everything Score needs. Answers is keyed by 0-based question index.
type Input struct {
	TotalQuestions int
	PositiveMarks  float64
	NegativeMarks  float64
	Key            extract.AnswerKey
	Questions      []extract.Question
	Answers        map[int]string
}

// ScoredQuestion is the per-question view of a report.
type ScoredQuestion struct {
	Index         int              `json:"index"`
	Number        int              `json:"number"`
	Question      extract.Question `json:"question"`
	UserAnswer    string           `json:"user_answer"`
	CorrectAnswer string           `json:"correct_answer"`
	Status        Status           `json:"status"`
	Score         float64          `json:"score"`
}

// Report aggregates a scoring run.
type Report struct {
	TotalQuestions int               `json:"total_questions"`
	Attempted      int               `json:"attempted"`
	Correct        int               `json:"correct"`
	Incorrect      int               `json:"incorrect"`
	Unanswered     int               `json:"unanswered"`
	TotalScore     float64           `json:"total_score"`
	MaxScore       float64           `json:"max_score"`
	Percentage     float64           `json:"percentage"`
	KeySource      extract.KeySource `json:"key_source"`
	Questions      []ScoredQuestion  `json:"questions"`
}

// Score grades every index in [0, TotalQuestions). The key is looked up by the
// question's declared number, or by index+1 when no question is known at that index.
func Score(in Input) Report {
	rep := Report{
		TotalQuestions: in.TotalQuestions,
		KeySource:      in.Key.Source,
		Questions:      make([]ScoredQuestion, 0, max(in.TotalQuestions, 0)),
	}
	for i := 0; i < in.TotalQuestions; i++ {
		sq := ScoredQuestion{Index: i, Number: i + 1, UserAnswer: strings.TrimSpace(in.Answers[i])}
		if i < len(in.Questions) {
			sq.Question = in.Questions[i]
			if sq.Question.Number > 0 {
				sq.Number = sq.Question.Number
			}
		}
		sq.CorrectAnswer = in.Key.Lookup(sq.Number)

		switch {
		case sq.UserAnswer == "":
			sq.Status = StatusUnanswered
			rep.Unanswered++
		case strings.EqualFold(sq.UserAnswer, sq.CorrectAnswer):
			sq.Status = StatusCorrect
			sq.Score = in.PositiveMarks
			rep.Correct++
		default:
			sq.Status = StatusIncorrect
			sq.Score = -in.NegativeMarks
			rep.Incorrect++
		}
		if sq.Status != StatusUnanswered {
			rep.Attempted++
		}
		rep.TotalScore += sq.Score
		rep.Questions = append(rep.Questions, sq)
	}
	rep.MaxScore = float64(max(in.TotalQuestions, 0)) * in.PositiveMarks
	if rep.MaxScore > 0 {
		rep.Percentage = max(0, rep.TotalScore/rep.MaxScore*100)
	}
	return rep
}

// Check grades a single answer for immediate feedback. It returns whether the answer
// matches and the keyed letter ("" when the key has no entry for number).
func Check(key extract.AnswerKey, number int, answer string) (bool, string) {
	want := key.Lookup(number)
	answer = strings.TrimSpace(answer)
	return answer != "" && strings.EqualFold(answer, want), want
}
