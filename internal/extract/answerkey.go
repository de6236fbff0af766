package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// answerPatterns are applied in order over the answer region; a later match for the
// same question number replaces an earlier one.
var answerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*[.):-]?\s*([a-d])\b`),   // 1. A, 2) b, 3 C
	regexp.MustCompile(`(?i)\bQ(\d+)\s*[.:)-]?\s*([a-d])\b`), // Q1: A, Q2 b
}

// ExtractAnswerKey collects "number -> letter" pairs from an answer-key region.
func ExtractAnswerKey(region string) map[int]string {
	key := map[int]string{}
	if strings.TrimSpace(region) == "" {
		return key
	}
	for _, re := range answerPatterns {
		for _, m := range re.FindAllStringSubmatch(region, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				continue
			}
			key[n] = strings.ToUpper(m[2])
		}
	}
	return key
}

// synthesizeKey assigns each question its first option letter. Later questions with a
// repeated number overwrite earlier ones, as real keys do.
func synthesizeKey(qs []Question) map[int]string {
	key := make(map[int]string, len(qs))
	for _, q := range qs {
		if len(q.Options) == 0 {
			continue
		}
		key[q.Number] = q.Options[0].Letter
	}
	return key
}
