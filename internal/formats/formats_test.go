package formats_test

import (
	"strings"
	"testing"

	"github.com/mind-engage/examsim/internal/formats"
	_ "github.com/mind-engage/examsim/internal/formats/jee"
	_ "github.com/mind-engage/examsim/internal/formats/standard"
)

type fakeQuestion struct {
	n       int
	choices []string
}

func (q fakeQuestion) GetNumber() int       { return q.n }
func (q fakeQuestion) GetChoices() []string { return q.choices }

type fakeExam struct{ qs []fakeQuestion }

func (e fakeExam) GetID() string    { return "exam-1" }
func (e fakeExam) GetTitle() string { return "Practice" }
func (e fakeExam) GetQuestions() []formats.QuestionLike {
	out := make([]formats.QuestionLike, len(e.qs))
	for i, q := range e.qs {
		out[i] = q
	}
	return out
}

func TestProfilesRegistered(t *testing.T) {
	got := strings.Join(formats.Profiles(), ",")
	if got != "jee.v1,standard.v1" {
		t.Fatalf("Profiles = %s", got)
	}
	a, ok := formats.Lookup("jee.v1")
	if !ok {
		t.Fatal("jee.v1 not registered")
	}
	if s := a.Defaults().Scoring; s.Positive != 4 || s.Penalty != 1 {
		t.Errorf("jee scoring = %+v", s)
	}
	if _, ok := formats.Lookup("sat.v1"); ok {
		t.Error("unexpected sat.v1 profile")
	}
}

func TestValidate(t *testing.T) {
	good := fakeExam{qs: []fakeQuestion{{1, []string{"A", "B", "C", "D"}}, {2, []string{"A", "B"}}}}
	lonely := fakeExam{qs: []fakeQuestion{{1, []string{"A"}}}}
	cases := []struct {
		name    string
		profile string
		ex      fakeExam
		mutate  func(*formats.Policy)
		wantErr string
	}{
		{"standard ok", "standard.v1", good, nil, ""},
		{"jee ok", "jee.v1", good, nil, ""},
		{"single choice", "standard.v1", lonely, nil, "at least 2 choices"},
		{"empty exam", "standard.v1", fakeExam{}, nil, "no questions"},
		{"negative marks", "standard.v1", good, func(p *formats.Policy) { p.Scoring.Positive = -1 }, "must not be negative"},
		{"bad feedback", "jee.v1", good, func(p *formats.Policy) { p.Feedback = "sometimes" }, "unknown feedback"},
		{"penalty too high", "jee.v1", good, func(p *formats.Policy) { p.Scoring.Penalty = 5 }, "exceeds"},
		{"negative time", "jee.v1", good, func(p *formats.Policy) { p.TimeLimitSec = -1 }, "time_limit_sec"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := formats.Lookup(tc.profile)
			pol := a.Defaults()
			if tc.mutate != nil {
				tc.mutate(&pol)
			}
			err := a.Validate(tc.ex, pol)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}
