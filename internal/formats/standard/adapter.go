package standard

import (
	"fmt"

	"github.com/mind-engage/examsim/internal/formats"
)

func init() {
	formats.Register("standard.v1", New())
}

// AdapterStandard is plain practice marking: one mark per correct answer, no penalty.
type AdapterStandard struct{}

func New() *AdapterStandard { return &AdapterStandard{} }

func (a *AdapterStandard) Defaults() formats.Policy {
	return formats.Policy{
		Feedback:    formats.FeedbackFinal,
		Scoring:     formats.Scoring{Positive: 1},
		Constraints: formats.Constraints{MinChoices: 2, MaxChoices: 4},
	}
}

func (a *AdapterStandard) Validate(ex formats.ExamLike, pol formats.Policy) error {
	if err := formats.ValidatePolicy("standard.v1", &pol); err != nil {
		return err
	}
	if len(ex.GetQuestions()) == 0 {
		return fmt.Errorf("standard.v1: exam %s has no questions", ex.GetID())
	}
	return formats.CheckChoices("standard.v1", ex, pol.Constraints)
}
