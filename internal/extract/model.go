package extract

import "sort"

// Option is one lettered candidate answer.
type Option struct {
	Letter      string `json:"letter"`                // A..D
	Text        string `json:"text"`                  // option text or image placeholder
	Placeholder bool   `json:"placeholder,omitempty"` // text was empty/degenerate in the source
}

// Question is a structured multiple-choice item recovered from a span.
type Question struct {
	Number  int      `json:"number"` // as declared in the source (Q<n>)
	Stem    string   `json:"stem"`
	Options []Option `json:"options"` // sorted A..D, unique letters
	// PossibleImage marks short stems; the source usually prints a diagram there.
	PossibleImage bool `json:"possible_image,omitempty"`
}

// Letters returns the option letters in order.
func (q Question) Letters() []string {
	out := make([]string, len(q.Options))
	for i, o := range q.Options {
		out[i] = o.Letter
	}
	return out
}

// Option returns the option with the given letter.
func (q Question) Option(letter string) (Option, bool) {
	for _, o := range q.Options {
		if o.Letter == letter {
			return o, true
		}
	}
	return Option{}, false
}

// KeySource tells callers where an answer key came from.
type KeySource string

const (
	KeyNone      KeySource = "none"
	KeyReal      KeySource = "real"      // found in the document
	KeySynthetic KeySource = "synthetic" // fabricated; first option of every question
)

// AnswerKey maps a declared question number to an uppercase option letter.
type AnswerKey struct {
	Source  KeySource      `json:"source"`
	Answers map[int]string `json:"answers"`
}

// Lookup returns the letter for a question number, "" when the key has no entry.
func (k AnswerKey) Lookup(number int) string {
	if k.Answers == nil {
		return ""
	}
	return k.Answers[number]
}

// Synthetic reports whether the key was fabricated.
func (k AnswerKey) Synthetic() bool { return k.Source == KeySynthetic }

// Numbers returns the keyed question numbers in ascending order.
func (k AnswerKey) Numbers() []int {
	out := make([]int, 0, len(k.Answers))
	for n := range k.Answers {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// DroppedSpan records a span the pipeline discarded.
type DroppedSpan struct {
	Number int    `json:"number"`
	Reason string `json:"reason"` // too_short | unparsable
	Length int    `json:"length"`
}

// Diagnostics accumulates what happened during one extraction call.
type Diagnostics struct {
	InputBytes      int            `json:"input_bytes"`
	NormalizedBytes int            `json:"normalized_bytes"`
	HeaderPattern   string         `json:"header_pattern,omitempty"`
	KeyFound        bool           `json:"key_found"`
	TrimmedLines    int            `json:"trimmed_lines"`
	SpansFound      int            `json:"spans_found"`
	SpansTooShort   int            `json:"spans_too_short"`
	SpansUnparsable int            `json:"spans_unparsable"`
	Strategies      map[string]int `json:"strategies,omitempty"` // strategy name -> questions produced
	AnswersFound    int            `json:"answers_found"`
	SyntheticKey    bool           `json:"synthetic_key"`
	Dropped         []DroppedSpan  `json:"dropped,omitempty"`
}

// Result is the structured quiz handed to callers.
type Result struct {
	Questions   []Question  `json:"questions"`
	AnswerKey   AnswerKey   `json:"answer_key"`
	Diagnostics Diagnostics `json:"diagnostics"`
}
