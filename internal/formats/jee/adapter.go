package jee

import (
	"errors"
	"fmt"

	"github.com/mind-engage/examsim/internal/formats"
)

func init() {
	formats.Register("jee.v1", New())
}

// AdapterJEE marks +4 for a correct answer and -1 for a wrong one; four-choice items.
type AdapterJEE struct{}

func New() *AdapterJEE { return &AdapterJEE{} }

func (a *AdapterJEE) Defaults() formats.Policy {
	return formats.Policy{
		TimeLimitSec: 180 * 60,
		Feedback:     formats.FeedbackFinal,
		Scoring:      formats.Scoring{Positive: 4, Penalty: 1},
		Constraints:  formats.Constraints{MinChoices: 2, MaxChoices: 4},
	}
}

func (a *AdapterJEE) Validate(ex formats.ExamLike, pol formats.Policy) error {
	if err := formats.ValidatePolicy("jee.v1", &pol); err != nil {
		return err
	}
	// Negative marking only makes sense when a correct answer is worth something.
	if pol.Scoring.Penalty > 0 && pol.Scoring.Positive == 0 {
		return errors.New("jee.v1: penalty set without positive marks")
	}
	if pol.Scoring.Penalty > pol.Scoring.Positive {
		return fmt.Errorf("jee.v1: penalty %.2f exceeds positive marks %.2f", pol.Scoring.Penalty, pol.Scoring.Positive)
	}
	return formats.CheckChoices("jee.v1", ex, pol.Constraints)
}
