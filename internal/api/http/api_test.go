package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/examsim/internal/api/http"
	auth "github.com/mind-engage/examsim/internal/auth/middleware"
	"github.com/mind-engage/examsim/internal/exam"
	"github.com/mind-engage/examsim/internal/extract"
	_ "github.com/mind-engage/examsim/internal/formats/jee"
	_ "github.com/mind-engage/examsim/internal/formats/standard"
	"github.com/mind-engage/examsim/internal/grading"
	"github.com/mind-engage/examsim/internal/storage"
	syncx "github.com/mind-engage/examsim/internal/sync"
)

const planets = "Q1. Which planet is closest to the Sun?\n(a) Venus (b) Mercury (c) Earth (d) Mars\n" +
	"Q2. Which form of water is gaseous?\n(a) Ice (b) Steam (c) Water (d) Sand\n" +
	"Answer Key:\n1. B\n2. B"

type fakeEvents struct {
	mu     sync.Mutex
	events []syncx.Event
}

func (f *fakeEvents) Append(_ context.Context, e syncx.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.Seq = int64(len(f.events) + 1)
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) Since(_ context.Context, after int64, limit int) ([]syncx.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []syncx.Event{}
	for _, e := range f.events {
		if e.Seq > after && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

type env struct {
	h      http.Handler
	events *fakeEvents
}

func newEnv(t *testing.T, maxUpload int64) env {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	bs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ev := &fakeEvents{}
	h := api.NewRouter(api.Deps{
		Store:          exam.NewInMemoryStore(),
		Auth:           auth.NewAuthService("test-secret"),
		Blobs:          bs,
		Events:         ev,
		AdminUser:      "admin",
		AdminPassHash:  string(hash),
		MaxUploadBytes: maxUpload,
	})
	return env{h: h, events: ev}
}

func (e env) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e env) doJSON(t *testing.T, method, path, token string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func (e env) upload(t *testing.T, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.WriteString(fw, content)
	}
	_ = mw.Close()
	return e.do(t, http.MethodPost, "/exams", "", &buf, mw.FormDataContentType())
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type uploaded struct {
	ExamID          string            `json:"exam_id"`
	AttemptID       string            `json:"attempt_id"`
	AccessToken     string            `json:"access_token"`
	TotalQuestions  int               `json:"total_questions"`
	AnswerKeySource extract.KeySource `json:"answer_key_source"`
}

func TestUploadAndAttemptFlow(t *testing.T) {
	e := newEnv(t, 1<<20)
	rec := e.upload(t, "physics.txt", planets, map[string]string{
		"name":           "Sam",
		"negative_marks": "0.25",
		"feedback_mode":  "immediate",
		"duration":       "30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body)
	}
	var up uploaded
	decodeInto(t, rec, &up)
	if up.TotalQuestions != 2 || up.AnswerKeySource != extract.KeyReal || up.AccessToken == "" {
		t.Fatalf("upload response = %+v", up)
	}
	base := "/attempts/" + up.AttemptID
	tok := up.AccessToken

	rec = e.do(t, http.MethodGet, base, tok, nil, "")
	var view struct {
		Status         string `json:"status"`
		TotalQuestions int    `json:"total_questions"`
		TimeLeftSec    int64  `json:"time_left_sec"`
	}
	decodeInto(t, rec, &view)
	if view.Status != exam.StatusInProgress || view.TotalQuestions != 2 || view.TimeLeftSec <= 0 || view.TimeLeftSec > 1800 {
		t.Errorf("attempt view = %+v", view)
	}

	rec = e.do(t, http.MethodGet, base+"/exam", tok, nil, "")
	var pub exam.Exam
	decodeInto(t, rec, &pub)
	if pub.Title != "physics" || len(pub.Questions) != 2 || len(pub.AnswerKey.Answers) != 0 {
		t.Errorf("candidate exam view = %+v", pub)
	}

	var saved struct {
		Feedback *exam.Feedback `json:"feedback"`
	}
	rec = e.doJSON(t, http.MethodPost, base+"/answers", tok, map[string]any{"index": 0, "answer": "B"})
	decodeInto(t, rec, &saved)
	if saved.Feedback == nil || !saved.Feedback.Correct {
		t.Errorf("feedback = %+v", saved.Feedback)
	}
	rec = e.doJSON(t, http.MethodPost, base+"/answers", tok, map[string]any{"index": 1, "answer": "A"})
	if rec.Code != http.StatusOK {
		t.Fatalf("second answer status = %d", rec.Code)
	}
	if rec = e.doJSON(t, http.MethodPost, base+"/answers", tok, map[string]any{"index": 7, "answer": "A"}); rec.Code != http.StatusBadRequest {
		t.Errorf("out of range answer status = %d", rec.Code)
	}
	if rec = e.doJSON(t, http.MethodPost, base+"/answers", tok, map[string]any{"answer": "A"}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing index status = %d", rec.Code)
	}
	if rec = e.doJSON(t, http.MethodPost, base+"/navigate", tok, map[string]any{"index": 1}); rec.Code != http.StatusOK {
		t.Errorf("navigate status = %d", rec.Code)
	}
	if rec = e.do(t, http.MethodGet, base+"/results", tok, nil, ""); rec.Code != http.StatusConflict {
		t.Errorf("results before submit status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, base+"/submit", tok, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body)
	}
	_ = e.do(t, http.MethodPost, base+"/submit", tok, nil, "")

	rec = e.do(t, http.MethodGet, base+"/results", tok, nil, "")
	var rep grading.Report
	decodeInto(t, rec, &rep)
	if rep.Correct != 1 || rep.Incorrect != 1 || rep.TotalScore != 0.75 || rep.Percentage != 37.5 {
		t.Errorf("report = %+v", rep)
	}
	if rec = e.doJSON(t, http.MethodPost, base+"/answers", tok, map[string]any{"index": 0, "answer": "A"}); rec.Code != http.StatusConflict {
		t.Errorf("answer after submit status = %d", rec.Code)
	}

	got := e.events.types()
	if len(got) != 2 || got[0] != syncx.EventExamImported || got[1] != syncx.EventAttemptSubmitted {
		t.Errorf("events = %v", got)
	}

	rec = e.do(t, http.MethodPost, base+"/restart", tok, nil, "")
	var restarted map[string]string
	decodeInto(t, rec, &restarted)
	if restarted["attempt_id"] == "" || restarted["attempt_id"] == up.AttemptID || restarted["exam_id"] != up.ExamID {
		t.Fatalf("restart = %v", restarted)
	}
	// the old token is scoped to the old attempt
	if rec = e.do(t, http.MethodGet, "/attempts/"+restarted["attempt_id"], tok, nil, ""); rec.Code != http.StatusForbidden {
		t.Errorf("foreign attempt status = %d", rec.Code)
	}
	if rec = e.do(t, http.MethodGet, "/attempts/"+restarted["attempt_id"], restarted["access_token"], nil, ""); rec.Code != http.StatusOK {
		t.Errorf("new attempt status = %d", rec.Code)
	}
	if rec = e.do(t, http.MethodGet, base, "", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", rec.Code)
	}
}

func TestConcurrentSubmitRecordsOnce(t *testing.T) {
	e := newEnv(t, 1<<20)
	rec := e.upload(t, "physics.txt", planets, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body)
	}
	var up uploaded
	decodeInto(t, rec, &up)

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = e.do(t, http.MethodPost, "/attempts/"+up.AttemptID+"/submit", up.AccessToken, nil, "").Code
		}()
	}
	wg.Wait()
	for i, c := range codes {
		if c != http.StatusOK {
			t.Errorf("submit %d status = %d", i, c)
		}
	}
	submitted := 0
	for _, typ := range e.events.types() {
		if typ == syncx.EventAttemptSubmitted {
			submitted++
		}
	}
	if submitted != 1 {
		t.Errorf("%d AttemptSubmitted events, want 1", submitted)
	}
}

func TestUploadRejects(t *testing.T) {
	e := newEnv(t, 4<<10)
	cases := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		want     int
	}{
		{"no file", "", "", nil, http.StatusBadRequest},
		{"unsupported type", "exam.xyz", planets, nil, http.StatusUnsupportedMediaType},
		{"pdf without pdftotext", "exam.pdf", "%PDF-1.4", nil, http.StatusUnsupportedMediaType},
		{"no questions", "notes.txt", "Just some lecture notes without any numbered items.", nil, http.StatusUnprocessableEntity},
		{"blank document", "blank.txt", "  \n\n ", nil, http.StatusUnprocessableEntity},
		{"unknown profile", "exam.txt", planets, map[string]string{"profile": "sat.v9"}, http.StatusBadRequest},
		{"bad duration", "exam.txt", planets, map[string]string{"duration": "soon"}, http.StatusBadRequest},
		{"negative marks", "exam.txt", planets, map[string]string{"positive_marks": "-1"}, http.StatusBadRequest},
		{"bad feedback mode", "exam.txt", planets, map[string]string{"feedback_mode": "never"}, http.StatusBadRequest},
		{"too large", "big.txt", strings.Repeat(planets, 100), nil, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.upload(t, tc.filename, tc.content, tc.fields)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestUploadRejectsExpandingDocx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	para := "<w:p><w:r><w:t>Q1. " + strings.Repeat("a", 1000) + "</w:t></w:r></w:p>"
	_, _ = io.WriteString(w, `<w:document xmlns:w="w"><w:body>`+strings.Repeat(para, 3000)+`</w:body></w:document>`)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	e := newEnv(t, 1<<20)
	if buf.Len() >= 1<<20 {
		t.Fatalf("compressed docx is %d bytes, expected it under the upload limit", buf.Len())
	}
	rec := e.upload(t, "bomb.docx", buf.String(), nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413: %s", rec.Code, rec.Body)
	}
}

func TestUploadUsesProfileDefaults(t *testing.T) {
	e := newEnv(t, 1<<20)
	rec := e.upload(t, "jee.txt", planets, map[string]string{"profile": "jee.v1", "title": "Mock 3"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var up struct {
		Policy struct {
			TimeLimitSec int `json:"time_limit_sec"`
			Scoring      struct {
				Positive float64 `json:"positive"`
				Penalty  float64 `json:"penalty"`
			} `json:"scoring"`
		} `json:"policy"`
	}
	decodeInto(t, rec, &up)
	if up.Policy.Scoring.Positive != 4 || up.Policy.Scoring.Penalty != 1 || up.Policy.TimeLimitSec != 180*60 {
		t.Errorf("policy = %+v", up.Policy)
	}
}

func TestExtractAndScoreEndpoints(t *testing.T) {
	e := newEnv(t, 1<<20)

	rec := e.do(t, http.MethodPost, "/extract", "", strings.NewReader(planets), "text/plain")
	var res extract.Result
	decodeInto(t, rec, &res)
	if len(res.Questions) != 2 || res.AnswerKey.Lookup(2) != "B" {
		t.Errorf("extract = %+v", res)
	}
	if rec = e.do(t, http.MethodPost, "/extract", "", strings.NewReader(" \n"), "text/plain"); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty extract status = %d", rec.Code)
	}

	rec = e.doJSON(t, http.MethodPost, "/score", "", map[string]any{
		"total_questions": 4,
		"negative_marks":  0.25,
		"answer_key":      map[string]any{"source": "real", "answers": map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"}},
		"answers":         map[string]string{"0": "A", "1": "C"},
	})
	var rep grading.Report
	decodeInto(t, rec, &rep)
	if rep.TotalScore != 0.75 || rep.Percentage != 18.75 || rep.Unanswered != 2 {
		t.Errorf("score = %+v", rep)
	}
	if rec = e.doJSON(t, http.MethodPost, "/score", "", map[string]any{"total_questions": -1}); rec.Code != http.StatusBadRequest {
		t.Errorf("negative total status = %d", rec.Code)
	}
	if rec = e.doJSON(t, http.MethodPost, "/score", "", map[string]any{"total_questions": 2_000_000_000}); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("huge total status = %d, want 413", rec.Code)
	}
	if rec = e.doJSON(t, http.MethodPost, "/score", "", map[string]any{
		"total_questions": 3,
		"questions":       res.Questions,
	}); rec.Code != http.StatusBadRequest {
		t.Errorf("total above questions sent status = %d, want 400", rec.Code)
	}
	rec = e.doJSON(t, http.MethodPost, "/score", "", map[string]any{
		"questions":  res.Questions,
		"answer_key": res.AnswerKey,
		"answers":    map[string]string{"1": "B"},
	})
	var fromQuestions grading.Report
	decodeInto(t, rec, &fromQuestions)
	if fromQuestions.TotalQuestions != 2 || fromQuestions.Correct != 1 {
		t.Errorf("score from questions = %+v", fromQuestions)
	}

	rec = e.do(t, http.MethodGet, "/capabilities", "", nil, "")
	var caps struct {
		Extensions []string `json:"extensions"`
		Profiles   []string `json:"profiles"`
	}
	decodeInto(t, rec, &caps)
	if len(caps.Extensions) != 2 || len(caps.Profiles) < 2 {
		t.Errorf("capabilities = %+v", caps)
	}
}

func TestAdminRoutes(t *testing.T) {
	e := newEnv(t, 1<<20)
	rec := e.upload(t, "physics.txt", planets, nil)
	var up uploaded
	decodeInto(t, rec, &up)

	if rec = e.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "nope"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", rec.Code)
	}
	rec = e.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "s3cret"})
	var login map[string]string
	decodeInto(t, rec, &login)
	admin := login["access_token"]
	if admin == "" {
		t.Fatal("no admin token")
	}

	if rec = e.do(t, http.MethodGet, "/exams", up.AccessToken, nil, ""); rec.Code != http.StatusForbidden {
		t.Errorf("candidate list status = %d", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/exams?q=PHYS", admin, nil, "")
	var list []exam.ExamSummary
	decodeInto(t, rec, &list)
	if len(list) != 1 || list[0].ID != up.ExamID || list[0].TotalQuestions != 2 {
		t.Errorf("exam list = %+v", list)
	}

	rec = e.do(t, http.MethodGet, "/exams/"+up.ExamID, admin, nil, "")
	var full exam.Exam
	decodeInto(t, rec, &full)
	if full.AnswerKey.Lookup(1) != "B" || full.SourceKey == "" {
		t.Errorf("admin exam = %+v", full)
	}
	if rec = e.do(t, http.MethodGet, "/exams/missing", admin, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing exam status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/exams/"+up.ExamID+"/export", admin, nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" || rec.Body.Len() == 0 {
		t.Errorf("export = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = e.do(t, http.MethodGet, "/exams/"+up.ExamID+"/source", admin, nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != planets {
		t.Errorf("source = %d %q", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/attempts?exam_id="+up.ExamID, admin, nil, "")
	var attempts []exam.Attempt
	decodeInto(t, rec, &attempts)
	if len(attempts) != 1 || attempts[0].ID != up.AttemptID {
		t.Errorf("attempts = %+v", attempts)
	}
	if rec = e.do(t, http.MethodGet, "/attempts?status=lost", admin, nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d", rec.Code)
	}

	// admins may act on any attempt
	if rec = e.do(t, http.MethodGet, "/attempts/"+up.AttemptID, admin, nil, ""); rec.Code != http.StatusOK {
		t.Errorf("admin attempt view = %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/events?after=0", admin, nil, "")
	var events []syncx.Event
	decodeInto(t, rec, &events)
	if len(events) != 1 || events[0].Type != syncx.EventExamImported || events[0].Key != up.ExamID {
		t.Errorf("events = %+v", events)
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t, 1<<20)
	for _, p := range []string{"/healthz", "/readyz"} {
		if rec := e.do(t, http.MethodGet, p, "", nil, ""); rec.Code != http.StatusOK {
			t.Errorf("%s = %d", p, rec.Code)
		}
	}
}
