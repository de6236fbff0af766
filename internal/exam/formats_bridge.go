package exam

import (
	"github.com/mind-engage/examsim/internal/extract"
	"github.com/mind-engage/examsim/internal/formats"
)

// --- bridge to formats.ExamLike ---

func (e Exam) GetID() string    { return e.ID }
func (e Exam) GetTitle() string { return e.Title }
func (e Exam) GetQuestions() []formats.QuestionLike {
	out := make([]formats.QuestionLike, len(e.Questions))
	for i := range e.Questions {
		out[i] = questionView{q: e.Questions[i]}
	}
	return out
}

type questionView struct{ q extract.Question }

func (v questionView) GetNumber() int       { return v.q.Number }
func (v questionView) GetChoices() []string { return v.q.Letters() }
