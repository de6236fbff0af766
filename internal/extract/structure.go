package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMinStemLength is the shortest stem (in runes) accepted as a question.
	DefaultMinStemLength = 5

	// inline option text shorter than this is treated as an image-only option.
	minOptionLength = 3

	// stems shorter than this usually sit next to a diagram.
	imageHintStemLength = 30
)

var (
	reInlineMarker = regexp.MustCompile(`(?i)\(([a-d])\)`)
	reOptionLine   = regexp.MustCompile(`(?i)^([a-d])\)\s*(.*)$`)
)

// Strategy turns one span into a question, or reports that it cannot.
type Strategy struct {
	Name  string
	Parse func(sp Span, minStem int) (Question, bool)
}

// Strategies are tried in order until one yields a valid question. Parenthesized
// inline markers are the stronger signal, so they go first.
var Strategies = []Strategy{
	{Name: "inline", Parse: parseInline},
	{Name: "multiline", Parse: parseMultiline},
}

// Structure runs the strategy table over a span. It returns the question, the name of
// the strategy that produced it, and false when no strategy could parse the span.
func Structure(sp Span, minStem int) (Question, string, bool) {
	for _, s := range Strategies {
		if q, ok := s.Parse(sp, minStem); ok {
			return q, s.Name, true
		}
	}
	return Question{}, "", false
}

func parseInline(sp Span, minStem int) (Question, bool) {
	locs := reInlineMarker.FindAllStringSubmatchIndex(sp.Text, -1)
	if len(locs) < 2 {
		return Question{}, false
	}
	stem := squash(sp.Text[:locs[0][0]])
	opts := make(map[string]Option, len(locs))
	for i, loc := range locs {
		end := len(sp.Text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		letter := strings.ToUpper(sp.Text[loc[2]:loc[3]])
		text := squash(sp.Text[loc[1]:end])
		if utf8.RuneCountInString(text) < minOptionLength {
			opts[letter] = placeholder(letter)
			continue
		}
		opts[letter] = Option{Letter: letter, Text: text}
	}
	return build(sp.Number, stem, opts, minStem)
}

func parseMultiline(sp Span, minStem int) (Question, bool) {
	var lines []string
	for _, l := range strings.Split(sp.Text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	first := -1
	for i, l := range lines {
		if reOptionLine.MatchString(l) {
			first = i
			break
		}
	}
	if first < 0 {
		return Question{}, false
	}

	texts := map[string][]string{}
	var cur string
	for _, l := range lines[first:] {
		if m := reOptionLine.FindStringSubmatch(l); m != nil {
			cur = strings.ToUpper(m[1])
			texts[cur] = nil
			if t := strings.TrimSpace(m[2]); t != "" {
				texts[cur] = append(texts[cur], t)
			}
			continue
		}
		// wrapped option text
		texts[cur] = append(texts[cur], l)
	}

	opts := make(map[string]Option, len(texts))
	for letter, parts := range texts {
		text := squash(strings.Join(parts, " "))
		if text == "" {
			opts[letter] = placeholder(letter)
			continue
		}
		opts[letter] = Option{Letter: letter, Text: text}
	}
	return build(sp.Number, squash(strings.Join(lines[:first], " ")), opts, minStem)
}

func build(number int, stem string, opts map[string]Option, minStem int) (Question, bool) {
	n := utf8.RuneCountInString(stem)
	if stem == "" || n < minStem || len(opts) < 2 {
		return Question{}, false
	}
	q := Question{
		Number:        number,
		Stem:          stem,
		Options:       make([]Option, 0, len(opts)),
		PossibleImage: n < imageHintStemLength,
	}
	for _, o := range opts {
		q.Options = append(q.Options, o)
	}
	sort.Slice(q.Options, func(i, j int) bool { return q.Options[i].Letter < q.Options[j].Letter })
	return q, true
}

func placeholder(letter string) Option {
	return Option{Letter: letter, Text: fmt.Sprintf("[Option %s - may contain image]", letter), Placeholder: true}
}

// squash joins all whitespace runs, line breaks included, into single spaces.
func squash(s string) string { return strings.Join(strings.Fields(s), " ") }
