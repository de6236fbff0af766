package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	auth "github.com/mind-engage/examsim/internal/auth/middleware"
	"github.com/mind-engage/examsim/internal/exam"
	"github.com/mind-engage/examsim/internal/extract"
	"github.com/mind-engage/examsim/internal/formats"
	syncx "github.com/mind-engage/examsim/internal/sync"
)

type uploadResponse struct {
	ExamID          string            `json:"exam_id"`
	AttemptID       string            `json:"attempt_id"`
	AccessToken     string            `json:"access_token"`
	TotalQuestions  int               `json:"total_questions"`
	AnswerKeySource extract.KeySource `json:"answer_key_source"`
	Profile         string            `json:"profile"`
	Policy          formats.Policy    `json:"policy"`
	Filename        string            `json:"filename"`
}

// POST /exams  (multipart: file, name, email, title, duration, positive_marks,
// negative_marks, feedback_mode, profile)
//
// Decodes and extracts the document, stores the exam, opens the first attempt and
// returns a candidate token scoped to it.
func UploadExamHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > d.MaxUploadBytes {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				fail(w, err)
				return
			}
			http.Error(w, "multipart form required", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		profile := strings.TrimSpace(r.FormValue("profile"))
		if profile == "" {
			profile = formats.DefaultProfile
		}
		adapter, ok := formats.Lookup(profile)
		if !ok {
			http.Error(w, "unknown profile "+profile, http.StatusBadRequest)
			return
		}
		pol, err := policyFromForm(r, adapter.Defaults(), d.DefaultDuration)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		doc, err := d.Decoders.Decode(r.Context(), hdr.Filename, f)
		if err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				d.Logger.Warn("decode failed", "file", hdr.Filename, "err", err)
				http.Error(w, "could not read document: "+err.Error(), http.StatusUnprocessableEntity)
				return
			}
			fail(w, err)
			return
		}
		res, err := d.Extractor.ExtractPages(doc.Pages)
		if err != nil {
			fail(w, err)
			return
		}
		if len(res.Questions) == 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":       "no questions found in document",
				"diagnostics": res.Diagnostics,
			})
			return
		}

		ex := exam.Exam{
			ID:             uuid.NewString(),
			Title:          titleFor(r.FormValue("title"), hdr.Filename),
			CandidateName:  strings.TrimSpace(r.FormValue("name")),
			CandidateEmail: strings.TrimSpace(r.FormValue("email")),
			Profile:        profile,
			Policy:         pol,
			Questions:      res.Questions,
			AnswerKey:      res.AnswerKey,
			Diagnostics:    res.Diagnostics,
		}
		if err := adapter.Validate(ex, pol); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		if d.Blobs != nil {
			if _, err := f.Seek(0, io.SeekStart); err == nil {
				key := "uploads/" + ex.ID + "/source" + strings.ToLower(path.Ext(hdr.Filename))
				if _, err := d.Blobs.Put(key, f); err != nil {
					d.Logger.Warn("archive upload", "exam", ex.ID, "err", err)
				} else {
					ex.SourceKey = key
				}
			}
		}

		if err := d.Store.PutExam(r.Context(), ex); err != nil {
			if ex.SourceKey != "" {
				_ = d.Blobs.Delete(ex.SourceKey)
			}
			fail(w, err)
			return
		}
		a, err := d.Store.NewAttempt(r.Context(), ex.ID)
		if err != nil {
			fail(w, err)
			return
		}
		tok, err := d.Auth.IssueJWT(a.ID, auth.RoleCandidate, d.TokenTTL)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		d.record(r, syncx.EventExamImported, ex.ID, map[string]any{
			"exam_id":    ex.ID,
			"questions":  len(ex.Questions),
			"key_source": ex.AnswerKey.Source,
			"profile":    ex.Profile,
			"pages":      len(doc.Pages),
		})
		d.Logger.Info("exam imported", "exam", ex.ID, "questions", len(ex.Questions),
			"key", ex.AnswerKey.Source, "dropped", len(res.Diagnostics.Dropped))

		writeJSON(w, http.StatusCreated, uploadResponse{
			ExamID:          ex.ID,
			AttemptID:       a.ID,
			AccessToken:     tok,
			TotalQuestions:  len(ex.Questions),
			AnswerKeySource: ex.AnswerKey.Source,
			Profile:         profile,
			Policy:          pol,
			Filename:        hdr.Filename,
		})
	}
}

// policyFromForm applies the form overrides on top of the profile defaults.
// duration is in minutes; 0 means untimed.
func policyFromForm(r *http.Request, pol formats.Policy, defDuration time.Duration) (formats.Policy, error) {
	if v := strings.TrimSpace(r.FormValue("duration")); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins < 0 {
			return pol, fmt.Errorf("duration must be a whole number of minutes")
		}
		pol.TimeLimitSec = mins * 60
	} else if pol.TimeLimitSec == 0 {
		pol.TimeLimitSec = int(defDuration / time.Second)
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"positive_marks", &pol.Scoring.Positive}, {"negative_marks", &pol.Scoring.Penalty}} {
		v := strings.TrimSpace(r.FormValue(f.name))
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return pol, fmt.Errorf("%s must be a number", f.name)
		}
		*f.dst = x
	}
	if v := strings.TrimSpace(r.FormValue("feedback_mode")); v != "" {
		pol.Feedback = formats.FeedbackMode(strings.ToLower(v))
	}
	return pol, formats.ValidatePolicy("upload", &pol)
}

func titleFor(title, filename string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if t := strings.TrimSuffix(base, path.Ext(base)); t != "" && t != "." {
		return t
	}
	return "Untitled exam"
}

// record appends to the event log when one is configured. Failures are logged only.
func (d Deps) record(r *http.Request, typ, key string, data any) {
	if d.Events == nil {
		return
	}
	ev, err := syncx.NewEvent(typ, key, data)
	if err == nil {
		err = d.Events.Append(r.Context(), ev)
	}
	if err != nil {
		d.Logger.Warn("event log append", "type", typ, "key", key, "err", err)
	}
}
