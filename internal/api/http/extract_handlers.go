package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/mind-engage/examsim/internal/decode"
	"github.com/mind-engage/examsim/internal/extract"
	"github.com/mind-engage/examsim/internal/formats"
	"github.com/mind-engage/examsim/internal/grading"
)

// GET /capabilities
func CapabilitiesHandler(reg *decode.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caps := reg.Capabilities()
		writeJSON(w, http.StatusOK, map[string]any{
			"extensions": reg.Extensions(),
			"pdf":        caps.PDFToText,
			"ocr":        caps.Tesseract,
			"profiles":   formats.Profiles(),
		})
	}
}

// POST /extract  (body: plain document text)
func ExtractHandler(ex *extract.Extractor, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			fail(w, err)
			return
		}
		res, err := ex.Extract(string(body))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type scoreRequest struct {
	TotalQuestions int                `json:"total_questions"`
	PositiveMarks  *float64           `json:"positive_marks"`
	NegativeMarks  float64            `json:"negative_marks"`
	Questions      []extract.Question `json:"questions"`
	AnswerKey      extract.AnswerKey  `json:"answer_key"`
	Answers        map[int]string     `json:"answers"` // question index -> letter
}

// POST /score
//
// total_questions defaults to len(questions), may not exceed it when questions are
// sent, and is capped at grading.MaxQuestions.
func ScoreHandler(limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		var req scoreRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.TotalQuestions == 0 {
			req.TotalQuestions = len(req.Questions)
		}
		if req.TotalQuestions < 0 || req.NegativeMarks < 0 || (req.PositiveMarks != nil && *req.PositiveMarks < 0) {
			http.Error(w, "counts and marks must not be negative", http.StatusBadRequest)
			return
		}
		if req.TotalQuestions > grading.MaxQuestions {
			http.Error(w, fmt.Sprintf("total_questions exceeds limit %d", grading.MaxQuestions), http.StatusRequestEntityTooLarge)
			return
		}
		if len(req.Questions) > 0 && req.TotalQuestions > len(req.Questions) {
			http.Error(w, fmt.Sprintf("total_questions %d exceeds the %d questions sent", req.TotalQuestions, len(req.Questions)), http.StatusBadRequest)
			return
		}
		pos := 1.0
		if req.PositiveMarks != nil {
			pos = *req.PositiveMarks
		}
		writeJSON(w, http.StatusOK, grading.Score(grading.Input{
			TotalQuestions: req.TotalQuestions,
			PositiveMarks:  pos,
			NegativeMarks:  req.NegativeMarks,
			Key:            req.AnswerKey,
			Questions:      req.Questions,
			Answers:        req.Answers,
		}))
	}
}
