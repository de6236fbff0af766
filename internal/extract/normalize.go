package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reHSpace     = regexp.MustCompile(`[\t\f\v\p{Zs}]+`)
	reURL        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	rePageOf     = regexp.MustCompile(`(?i)\bpage \d+(?: of \d+)?\b`)
	reOnlyNumber = regexp.MustCompile(`^\d+$`)
	reParenMark  = regexp.MustCompile(`\( ?([A-Za-z]) ?\)`)
)

// Normalize cleans text extracted from a document: NFKC folding, whitespace and
// line-break collapsing, stray single letters, URLs and page numbers, and spacing
// inside parenthesized option markers. Normalizing normalized text returns it unchanged.
//
// Passes repeat until the text stops changing. After the first pass any change only
// removes characters, so the loop terminates.
func Normalize(text string) string {
	s := normalizePass(text)
	for {
		next := normalizePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizePass(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFKC.String(s)
	s = collapseSpace(s)
	s = mapLines(s, stripStrayLetters)
	s = mapLines(s, stripNoise)
	s = reParenMark.ReplaceAllString(s, "($1)")
	return collapseSpace(s)
}

// collapseSpace turns runs of horizontal whitespace into one space, trims every line
// and drops empty lines, which also collapses runs of line breaks.
func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(reHSpace.ReplaceAllString(l, " "))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func mapLines(s string, fn func(string) string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = fn(l)
	}
	return strings.Join(lines, "\n")
}

// stripStrayLetters drops one-letter tokens left behind by PDF text layers. A letter
// next to marker punctuation ("( a )", "A )", "1. C", "Q2: b") is kept.
func stripStrayLetters(line string) string {
	toks := strings.Split(line, " ")
	out := make([]string, 0, len(toks))
	for i, t := range toks {
		if !isLoneLetter(t) {
			out = append(out, t)
			continue
		}
		var prev, next string
		if i > 0 {
			prev = toks[i-1]
		}
		if i+1 < len(toks) {
			next = toks[i+1]
		}
		if endsWithMarker(prev) || startsWithMarker(next) {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

func isLoneLetter(t string) bool {
	if len(t) != 1 {
		return false
	}
	c := t[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func endsWithMarker(t string) bool {
	if t == "" {
		return false
	}
	c := t[len(t)-1]
	return strings.IndexByte("(.:)-", c) >= 0 || (c >= '0' && c <= '9')
}

func startsWithMarker(t string) bool {
	return t != "" && strings.IndexByte(").:", t[0]) >= 0
}

// stripNoise removes URL-like tokens and page numbering.
func stripNoise(line string) string {
	line = reURL.ReplaceAllString(line, "")
	line = rePageOf.ReplaceAllString(line, "")
	if reOnlyNumber.MatchString(strings.TrimSpace(line)) {
		return ""
	}
	return line
}
