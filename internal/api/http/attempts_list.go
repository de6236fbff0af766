package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/examsim/internal/exam"
)

// GET /attempts?exam_id=...&status=...&limit=50&offset=0
func ListAttemptsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		switch status {
		case "", exam.StatusInProgress, exam.StatusSubmitted:
		default:
			http.Error(w, "unknown status "+status, http.StatusBadRequest)
			return
		}
		list, err := store.ListAttempts(r.Context(), exam.AttemptListOpts{
			ExamID: strings.TrimSpace(r.URL.Query().Get("exam_id")),
			Status: status,
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
