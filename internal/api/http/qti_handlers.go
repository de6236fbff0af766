package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/examsim/internal/exam"
	"github.com/mind-engage/examsim/internal/qti/export"
)

// GET /exams/{id}/export  (QTI 2.1 zip)
func ExportQTIHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		// Export needs the key; use the admin fetch.
		ex, err := store.GetExamAdmin(r.Context(), id)
		if err != nil {
			fail(w, err)
			return
		}
		pkg, err := export.BuildPackage(ex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", "attachment; filename=\""+id+".zip\"")
		http.ServeContent(w, r, id+".zip", time.Unix(ex.CreatedAt, 0), bytes.NewReader(pkg))
	}
}
