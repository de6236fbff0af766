package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/examsim/internal/auth/middleware"
	"github.com/mind-engage/examsim/internal/exam"
	syncx "github.com/mind-engage/examsim/internal/sync"
)

type attemptView struct {
	exam.Attempt
	TotalQuestions int   `json:"total_questions"`
	TimeLeftSec    int64 `json:"time_left_sec"` // -1 when untimed
}

func viewOf(a exam.Attempt, total int) attemptView {
	left := a.TimeLeft(time.Now())
	v := attemptView{Attempt: a, TotalQuestions: total, TimeLeftSec: -1}
	if left >= 0 {
		v.TimeLeftSec = int64(left / time.Second)
	}
	if a.Status == exam.StatusSubmitted {
		v.TimeLeftSec = 0
	}
	return v
}

// GET /attempts/{attemptID}
// An in-progress attempt whose time ran out is submitted on read.
func GetAttemptHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := d.Store.GetAttempt(r.Context(), id)
		if err != nil {
			fail(w, err)
			return
		}
		if a.Status == exam.StatusInProgress && a.TimeLeft(time.Now()) == 0 {
			if a, err = submit(r, d, id); err != nil {
				fail(w, err)
				return
			}
		}
		ex, err := d.Store.GetExam(r.Context(), a.ExamID)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(a, len(ex.Questions)))
	}
}

// GET /attempts/{attemptID}/exam  (questions without the answer key)
func GetAttemptExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			fail(w, err)
			return
		}
		ex, err := store.GetExam(r.Context(), a.ExamID)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ex)
	}
}

// POST /attempts/{attemptID}/answers  {"index": 0, "answer": "B"}
func SaveAnswerHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index  *int   `json:"index"`
			Answer string `json:"answer"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Index == nil {
			http.Error(w, "index required", http.StatusBadRequest)
			return
		}
		a, fb, err := store.SaveAnswer(r.Context(), chi.URLParam(r, "attemptID"), *req.Index, req.Answer)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attempt": a, "feedback": fb})
	}
}

// POST /attempts/{attemptID}/navigate  {"index": 3}
func NavigateHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Index int `json:"index"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		a, err := store.Navigate(r.Context(), chi.URLParam(r, "attemptID"), req.Index)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := submit(r, d, chi.URLParam(r, "attemptID"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}/results
func ResultsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := d.Store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			fail(w, err)
			return
		}
		if a.Status != exam.StatusSubmitted || a.Report == nil {
			http.Error(w, "attempt not submitted", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, a.Report)
	}
}

// POST /attempts/{attemptID}/restart  (new attempt on the same exam)
func RestartHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prev, err := d.Store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			fail(w, err)
			return
		}
		a, err := d.Store.NewAttempt(r.Context(), prev.ExamID)
		if err != nil {
			fail(w, err)
			return
		}
		tok, err := d.Auth.IssueJWT(a.ID, auth.RoleCandidate, d.TokenTTL)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"exam_id":      a.ExamID,
			"attempt_id":   a.ID,
			"access_token": tok,
		})
	}
}

// submit finalizes an attempt and logs the first submission only.
func submit(r *http.Request, d Deps, id string) (exam.Attempt, error) {
	a, first, err := d.Store.Submit(r.Context(), id)
	if err != nil {
		return exam.Attempt{}, err
	}
	if first && a.Report != nil {
		d.record(r, syncx.EventAttemptSubmitted, a.ID, map[string]any{
			"attempt_id":  a.ID,
			"exam_id":     a.ExamID,
			"total_score": a.Report.TotalScore,
			"max_score":   a.Report.MaxScore,
			"percentage":  a.Report.Percentage,
		})
	}
	return a, nil
}
