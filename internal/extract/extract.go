// Package extract recovers a structured multiple-choice quiz (questions, options and an
// optional answer key) from the flattened text of a document.
//
// The pipeline is normalize -> split sections -> segment -> structure each span ->
// extract answers -> synthesize a key when none was found. It is synchronous, keeps no
// state between calls and is safe for concurrent use.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyDocument means decoding produced no text at all.
	ErrEmptyDocument = errors.New("document contains no text")
	// ErrInputTooLarge means the text is above the configured ceiling.
	ErrInputTooLarge = errors.New("document text exceeds size limit")
)

// DefaultMaxInputBytes bounds the text handed to the regular expressions.
const DefaultMaxInputBytes = 2 << 20

type config struct {
	MaxInputBytes int
	MinSpanLength int
	MinStemLength int
	TrailingLines int
	NoSynthetic   bool
	Logger        *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*config)

// WithMaxInputBytes sets the text size ceiling. Zero or less disables it.
func WithMaxInputBytes(n int) ExtractorOption { return func(c *config) { c.MaxInputBytes = n } }

// WithMinSpanLength sets the minimum length, in characters, of a question span.
func WithMinSpanLength(n int) ExtractorOption { return func(c *config) { c.MinSpanLength = n } }

// WithMinStemLength sets the minimum length, in characters, of a question stem.
func WithMinStemLength(n int) ExtractorOption { return func(c *config) { c.MinStemLength = n } }

// WithTrailingLines sets how many lines after the last question marker are kept when
// the document has no answer-key header.
func WithTrailingLines(n int) ExtractorOption { return func(c *config) { c.TrailingLines = n } }

// WithLogger sets the logger for debug diagnostics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ExtractorOption { return func(c *config) { c.Logger = l } }

// WithoutSyntheticKey leaves the answer key empty when the document has none.
func WithoutSyntheticKey() ExtractorOption { return func(c *config) { c.NoSynthetic = true } }

// Extractor runs the extraction pipeline.
type Extractor struct {
	cfg config
}

// New returns an Extractor with defaults overridden by opts.
func New(opts ...ExtractorOption) *Extractor {
	cfg := config{
		MaxInputBytes: DefaultMaxInputBytes,
		MinSpanLength: DefaultMinSpanLength,
		MinStemLength: DefaultMinStemLength,
		TrailingLines: DefaultTrailingLines,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{cfg: cfg}
}

// ExtractPages joins decoded pages with line breaks and extracts the result.
func (e *Extractor) ExtractPages(pages []string) (Result, error) {
	return e.Extract(strings.Join(pages, "\n"))
}

// Extract recovers questions and an answer key from text. Malformed content degrades
// to fewer questions or an empty key; only empty or oversized input is an error.
func (e *Extractor) Extract(text string) (Result, error) {
	diag := Diagnostics{InputBytes: len(text), Strategies: map[string]int{}}
	if e.cfg.MaxInputBytes > 0 && len(text) > e.cfg.MaxInputBytes {
		return Result{}, fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(text), e.cfg.MaxInputBytes)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyDocument
	}
	log := e.cfg.Logger

	clean := Normalize(text)
	diag.NormalizedBytes = len(clean)

	sec := SplitSections(clean, e.cfg.TrailingLines)
	diag.HeaderPattern = sec.Header
	diag.KeyFound = sec.Header != ""
	diag.TrimmedLines = sec.TrimmedLines
	if sec.Header != "" {
		log.Debug("answer key section found", "pattern", sec.Header, "offset", len(sec.Questions))
	}

	spans, short := Segment(sec.Questions, e.cfg.MinSpanLength)
	diag.SpansFound = len(spans) + len(short)
	for _, sp := range short {
		n := utf8.RuneCountInString(sp.Text)
		diag.SpansTooShort++
		diag.Dropped = append(diag.Dropped, DroppedSpan{Number: sp.Number, Reason: "too_short", Length: n})
		log.Debug("span too short", "question", sp.Number, "length", n)
	}

	questions := make([]Question, 0, len(spans))
	for _, sp := range spans {
		q, strategy, ok := Structure(sp, e.cfg.MinStemLength)
		if !ok {
			diag.SpansUnparsable++
			diag.Dropped = append(diag.Dropped, DroppedSpan{Number: sp.Number, Reason: "unparsable", Length: utf8.RuneCountInString(sp.Text)})
			log.Debug("span unparsable", "question", sp.Number)
			continue
		}
		diag.Strategies[strategy]++
		questions = append(questions, q)
	}

	key := AnswerKey{Source: KeyNone, Answers: ExtractAnswerKey(sec.Answers)}
	diag.AnswersFound = len(key.Answers)
	if len(key.Answers) > 0 {
		key.Source = KeyReal
	} else if len(questions) > 0 && !e.cfg.NoSynthetic {
		key = AnswerKey{Source: KeySynthetic, Answers: synthesizeKey(questions)}
		diag.SyntheticKey = true
		log.Debug("no answer key found, synthesized one", "questions", len(questions))
	}

	return Result{Questions: questions, AnswerKey: key, Diagnostics: diag}, nil
}
