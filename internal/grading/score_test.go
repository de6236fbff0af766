package grading

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/mind-engage/examsim/internal/extract"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScore(t *testing.T) {
	key := extract.AnswerKey{Source: extract.KeyReal, Answers: map[int]string{1: "A", 2: "B", 3: "C"}}
	cases := []struct {
		name                           string
		in                             Input
		correct, incorrect, unanswered int
		total, pct                     float64
	}{
		{
			name:       "mixed with negative marking",
			in:         Input{TotalQuestions: 3, PositiveMarks: 1, NegativeMarks: 0.25, Key: key, Answers: map[int]string{0: "A", 1: "C"}},
			correct:    1,
			incorrect:  1,
			unanswered: 1,
			total:      0.75,
			pct:        25,
		},
		{
			name:      "percentage floors at zero",
			in:        Input{TotalQuestions: 3, PositiveMarks: 1, NegativeMarks: 2, Key: key, Answers: map[int]string{0: "D", 1: "D", 2: "D"}},
			incorrect: 3,
			total:     -6,
			pct:       0,
		},
		{
			name:       "zero positive marks",
			in:         Input{TotalQuestions: 2, Key: key, Answers: map[int]string{0: "a"}},
			correct:    1,
			unanswered: 1,
		},
		{
			name: "no questions",
			in:   Input{Key: key, PositiveMarks: 4, NegativeMarks: 1},
		},
		{
			name:      "unkeyed question is incorrect",
			in:        Input{TotalQuestions: 1, PositiveMarks: 4, NegativeMarks: 1, Key: extract.AnswerKey{Source: extract.KeyNone}, Answers: map[int]string{0: "B"}},
			incorrect: 1,
			total:     -1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := Score(tc.in)
			if rep.Correct != tc.correct || rep.Incorrect != tc.incorrect || rep.Unanswered != tc.unanswered {
				t.Errorf("counts = %d/%d/%d, want %d/%d/%d",
					rep.Correct, rep.Incorrect, rep.Unanswered, tc.correct, tc.incorrect, tc.unanswered)
			}
			if !near(rep.TotalScore, tc.total) {
				t.Errorf("TotalScore = %v, want %v", rep.TotalScore, tc.total)
			}
			if !near(rep.Percentage, tc.pct) {
				t.Errorf("Percentage = %v, want %v", rep.Percentage, tc.pct)
			}
			if rep.Attempted != tc.correct+tc.incorrect {
				t.Errorf("Attempted = %d", rep.Attempted)
			}
			if len(rep.Questions) != tc.in.TotalQuestions {
				t.Errorf("got %d scored questions", len(rep.Questions))
			}
		})
	}
}

func TestScoreUsesDeclaredNumbers(t *testing.T) {
	qs := []extract.Question{{Number: 5}, {Number: 9}}
	key := extract.AnswerKey{Source: extract.KeyReal, Answers: map[int]string{1: "A", 5: "C", 9: "D"}}
	rep := Score(Input{TotalQuestions: 2, PositiveMarks: 1, Key: key, Questions: qs, Answers: map[int]string{0: "C", 1: "D"}})
	if rep.Correct != 2 {
		t.Fatalf("Correct = %d, want 2: %+v", rep.Correct, rep.Questions)
	}
	if rep.Questions[1].Number != 9 || rep.Questions[1].CorrectAnswer != "D" {
		t.Errorf("question 1 = %+v", rep.Questions[1])
	}
}

func TestScoreRoundTrip(t *testing.T) {
	res, err := extract.New().Extract("Q1. Which planet is closest to the Sun?\n(a) Venus (b) Mercury (c) Earth (d) Mars\n" +
		"Q2. Which colour is considered primary?\nA) Red\nB) Green\nC) Purple\n" +
		"Q3. Which gas do plants absorb from the air?\n(a) Oxygen (b) Carbon dioxide (c) Helium\n" +
		"Answer Key:\n1. B\n2. A\n3. B")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	rnd := rand.New(rand.NewSource(7))
	answers := map[int]string{}
	for i, q := range res.Questions {
		letter := res.AnswerKey.Lookup(q.Number)
		if rnd.Intn(2) == 0 {
			letter = strings.ToLower(letter)
		}
		answers[i] = letter
	}
	rep := Score(Input{
		TotalQuestions: len(res.Questions),
		PositiveMarks:  4,
		NegativeMarks:  1,
		Key:            res.AnswerKey,
		Questions:      res.Questions,
		Answers:        answers,
	})
	if rep.TotalQuestions != 3 || rep.Percentage != 100 || rep.Incorrect != 0 || rep.Unanswered != 0 {
		t.Errorf("report = %+v", rep)
	}
	if rep.KeySource != extract.KeyReal {
		t.Errorf("KeySource = %q", rep.KeySource)
	}
}

func TestCheck(t *testing.T) {
	key := extract.AnswerKey{Source: extract.KeyReal, Answers: map[int]string{2: "B"}}
	cases := []struct {
		number int
		answer string
		ok     bool
		want   string
	}{
		{2, "b", true, "B"},
		{2, "C", false, "B"},
		{2, "", false, "B"},
		{3, "A", false, ""},
	}
	for _, tc := range cases {
		ok, want := Check(key, tc.number, tc.answer)
		if ok != tc.ok || want != tc.want {
			t.Errorf("Check(%d, %q) = %v, %q; want %v, %q", tc.number, tc.answer, ok, want, tc.ok, tc.want)
		}
	}
}
