package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultMinSpanLength drops spurious "Q<n>" matches with no real content behind them.
const DefaultMinSpanLength = 10

var reQuestionMarker = regexp.MustCompile(`(?i)\bQ(\d+)[.):]?`)

// Span is the raw text of one question as found between two markers.
type Span struct {
	Number int
	Text   string
}

// Segment splits the question region at Q<n> markers. Numbers are kept verbatim, in
// text order, duplicates included. Spans shorter than minLen (after trimming) are
// returned separately as dropped.
func Segment(region string, minLen int) (spans []Span, short []Span) {
	marks := reQuestionMarker.FindAllStringSubmatchIndex(region, -1)
	type marker struct {
		num        int
		start, end int
	}
	valid := make([]marker, 0, len(marks))
	for _, m := range marks {
		n, err := strconv.Atoi(region[m[2]:m[3]])
		if err != nil || n <= 0 {
			continue
		}
		valid = append(valid, marker{num: n, start: m[0], end: m[1]})
	}
	for i, m := range valid {
		stop := len(region)
		if i+1 < len(valid) {
			stop = valid[i+1].start
		}
		sp := Span{Number: m.num, Text: strings.TrimSpace(region[m.end:stop])}
		if utf8.RuneCountInString(sp.Text) < minLen {
			short = append(short, sp)
			continue
		}
		spans = append(spans, sp)
	}
	return spans, short
}
