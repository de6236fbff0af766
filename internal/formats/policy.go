package formats

import (
	"errors"
	"fmt"
)

type FeedbackMode string

const (
	FeedbackFinal     FeedbackMode = "final"     // results only after submission
	FeedbackImmediate FeedbackMode = "immediate" // each saved answer is checked at once
)

// Policy holds timing, feedback and marking rules, independent of the item content.
type Policy struct {
	TimeLimitSec int          `json:"time_limit_sec,omitempty"`
	Feedback     FeedbackMode `json:"feedback_mode,omitempty"`
	Scoring      Scoring      `json:"scoring"`
	Constraints  Constraints  `json:"item_constraints,omitempty"`
}

type Scoring struct {
	Positive float64 `json:"positive"`
	Penalty  float64 `json:"penalty,omitempty"` // subtracted per wrong answer (e.g., JEE)
}

type Constraints struct {
	MinChoices int `json:"min_choices,omitempty"`
	MaxChoices int `json:"max_choices,omitempty"`
}

// ValidatePolicy runs basic consistency checks.
func ValidatePolicy(profile string, pol *Policy) error {
	if pol == nil {
		return errors.New("policy is required")
	}
	if pol.TimeLimitSec < 0 {
		return fmt.Errorf("%s: negative time_limit_sec", profile)
	}
	switch pol.Feedback {
	case "", FeedbackFinal, FeedbackImmediate:
	default:
		return fmt.Errorf("%s: unknown feedback mode %q", profile, pol.Feedback)
	}
	if pol.Scoring.Positive < 0 || pol.Scoring.Penalty < 0 {
		return fmt.Errorf("%s: marks must not be negative", profile)
	}
	c := pol.Constraints
	if c.MaxChoices > 0 && c.MinChoices > c.MaxChoices {
		return fmt.Errorf("%s: min_choices %d above max_choices %d", profile, c.MinChoices, c.MaxChoices)
	}
	// Additional profile-specific checks are enforced by Adapter.Validate.
	return nil
}

// CheckChoices applies the choice-count constraints to every question.
func CheckChoices(profile string, ex ExamLike, c Constraints) error {
	for _, q := range ex.GetQuestions() {
		n := len(q.GetChoices())
		if c.MinChoices > 0 && n < c.MinChoices {
			return fmt.Errorf("%s: question %d must have at least %d choices", profile, q.GetNumber(), c.MinChoices)
		}
		if c.MaxChoices > 0 && n > c.MaxChoices {
			return fmt.Errorf("%s: question %d has more than %d choices", profile, q.GetNumber(), c.MaxChoices)
		}
	}
	return nil
}
