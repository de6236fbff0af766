package extract

import (
	"regexp"
	"strings"
)

// DefaultTrailingLines is how many lines after the last question marker are kept
// when the document has no answer-key header.
const DefaultTrailingLines = 9

// answerLine matches a line shaped like an answer entry: "1. C", "Q2: b", "3) D, 4) A".
const answerLine = `Q?\d+ ?[.:)-]? ?[A-D](?:$|[ ,;]+Q?\d)`

// HeaderPattern is one named way of recognizing the start of an answer-key section.
type HeaderPattern struct {
	Name string
	re   *regexp.Regexp
	// reject vetoes a match at start; used to leave "Correct answers:" to its own pattern.
	reject func(text string, start int) bool
}

// HeaderPatterns are tried in order; the first that matches anywhere wins.
var HeaderPatterns = []HeaderPattern{
	{Name: "answer-key", re: regexp.MustCompile(`(?im)\banswer ?keys?\b ?:? ?(?:$|` + answerLine + `)`)},
	{Name: "answers", re: regexp.MustCompile(`(?im)\banswers?\b ?:? ?\n ?` + answerLine), reject: precededBy("correct")},
	{Name: "solution-key", re: regexp.MustCompile(`(?im)\bsolution ?keys?\b ?:? ?(?:$|` + answerLine + `)`)},
	{Name: "correct-answers", re: regexp.MustCompile(`(?im)\bcorrect ?answers?\b ?:? ?\n ?` + answerLine)},
}

var reMarkerLine = regexp.MustCompile(`(?i)^Q\d+\b`)

// Sections is the split of a normalized document.
type Sections struct {
	Questions    string
	Answers      string // includes the header; "" when no key section exists
	Header       string // name of the matched HeaderPattern
	TrimmedLines int    // lines discarded after the last question when there is no key
}

// SplitSections separates question content from answer-key content. Without a key
// header the question region is bounded to trail lines after the last line that starts
// with a question marker.
func SplitSections(text string, trail int) Sections {
	for _, hp := range HeaderPatterns {
		if pos, ok := hp.find(text); ok {
			return Sections{Questions: text[:pos], Answers: text[pos:], Header: hp.Name}
		}
	}
	q, trimmed := boundQuestions(text, trail)
	return Sections{Questions: q, TrimmedLines: trimmed}
}

func (hp HeaderPattern) find(text string) (int, bool) {
	for _, m := range hp.re.FindAllStringIndex(text, -1) {
		if hp.reject != nil && hp.reject(text, m[0]) {
			continue
		}
		return m[0], true
	}
	return 0, false
}

func precededBy(word string) func(string, int) bool {
	return func(text string, start int) bool {
		before := strings.TrimRight(text[:start], " ")
		return len(before) >= len(word) && strings.EqualFold(before[len(before)-len(word):], word)
	}
}

func boundQuestions(text string, trail int) (string, int) {
	if trail < 0 {
		trail = 0
	}
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if reMarkerLine.MatchString(strings.TrimSpace(lines[i])) {
			end := i + 1 + trail
			if end >= len(lines) {
				return text, 0
			}
			return strings.Join(lines[:end], "\n"), len(lines) - end
		}
	}
	return text, 0
}
