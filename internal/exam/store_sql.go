package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/examsim/internal/extract"
	"github.com/mind-engage/examsim/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = s.now().Unix()
	}
	pj, err := json.Marshal(e.Policy)
	if err != nil {
		return err
	}
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	kj, err := json.Marshal(e.AnswerKey)
	if err != nil {
		return err
	}
	dj, err := json.Marshal(e.Diagnostics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams
		(id,title,candidate_name,candidate_email,profile,policy_json,source_key,
		 questions_json,answer_key_json,diagnostics_json,total_questions,key_source,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, candidate_name=EXCLUDED.candidate_name,
		  candidate_email=EXCLUDED.candidate_email, profile=EXCLUDED.profile, policy_json=EXCLUDED.policy_json,
		  source_key=EXCLUDED.source_key, questions_json=EXCLUDED.questions_json,
		  answer_key_json=EXCLUDED.answer_key_json, diagnostics_json=EXCLUDED.diagnostics_json,
		  total_questions=EXCLUDED.total_questions, key_source=EXCLUDED.key_source`,
		e.ID, e.Title, e.CandidateName, e.CandidateEmail, e.Profile, string(pj), e.SourceKey,
		string(qj), string(kj), string(dj), len(e.Questions), string(e.AnswerKey.Source), e.CreatedAt)
	return err
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := s.GetExamAdmin(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	// Strip answer keys when serving to candidates (parity with in-memory behavior)
	return e.Public(), nil
}

func (s *SQLStore) GetExamAdmin(ctx context.Context, id string) (Exam, error) {
	return getExam(ctx, s.db, id)
}

func getExam(ctx context.Context, q rowQuerier, id string) (Exam, error) {
	row := q.QueryRowContext(ctx, `SELECT id,title,candidate_name,candidate_email,profile,policy_json,source_key,
		questions_json,answer_key_json,diagnostics_json,created_at FROM exams WHERE id=$1`, id)
	var (
		e              Exam
		pj, qj, kj, dj string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.CandidateName, &e.CandidateEmail, &e.Profile, &pj, &e.SourceKey,
		&qj, &kj, &dj, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}
	for _, f := range []struct {
		raw string
		dst any
	}{{pj, &e.Policy}, {qj, &e.Questions}, {kj, &e.AnswerKey}, {dj, &e.Diagnostics}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return Exam{}, fmt.Errorf("decode exam %s: %w", id, err)
		}
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]ExamSummary, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(opts.Q)) + "%"
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,candidate_name,profile,total_questions,key_source,created_at
		FROM exams WHERE LOWER(title) LIKE $1
		ORDER BY created_at DESC, id ASC LIMIT $2 OFFSET $3`,
		pattern, opts.limit(), max(opts.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ExamSummary{}
	for rows.Next() {
		var (
			es  ExamSummary
			src string
		)
		if err := rows.Scan(&es.ID, &es.Title, &es.CandidateName, &es.Profile, &es.TotalQuestions, &src, &es.CreatedAt); err != nil {
			return nil, err
		}
		es.KeySource = extract.KeySource(src)
		out = append(out, es)
	}
	return out, rows.Err()
}

func (s *SQLStore) NewAttempt(ctx context.Context, examID string) (Attempt, error) {
	e, err := s.GetExamAdmin(ctx, examID)
	if err != nil {
		return Attempt{}, err
	}
	a := newAttempt(e, s.now())
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts (id,exam_id,status,current_index,answers_json,started_at,deadline)
		VALUES ($1,$2,$3,0,'{}',$4,$5)`,
		a.ID, a.ExamID, a.Status, a.StartedAt, a.Deadline)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SaveAnswer(ctx context.Context, attemptID string, index int, letter string) (Attempt, *Feedback, error) {
	var fb *Feedback
	a, err := s.update(ctx, attemptID, func(e Exam, a *Attempt) error {
		var err error
		fb, err = applyAnswer(e, a, index, letter, s.now())
		return err
	})
	if err != nil {
		return Attempt{}, nil, err
	}
	return a, fb, nil
}

func (s *SQLStore) Navigate(ctx context.Context, attemptID string, target int) (Attempt, error) {
	return s.update(ctx, attemptID, func(e Exam, a *Attempt) error {
		return navigate(e, a, target)
	})
}

func (s *SQLStore) Submit(ctx context.Context, attemptID string) (Attempt, bool, error) {
	var first bool
	a, err := s.update(ctx, attemptID, func(e Exam, a *Attempt) error {
		if a.Status != StatusSubmitted {
			finish(e, a, s.now())
			first = true
		}
		return nil
	})
	if err != nil {
		return Attempt{}, false, err
	}
	return a, first, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return getAttempt(ctx, s.db, selectAttempt(s.driver, false), id)
}

// update runs fn over the attempt and its exam inside one transaction and persists
// the result. On postgres the attempt row is locked for the transaction; sqlite
// connections are already serialized.
func (s *SQLStore) update(ctx context.Context, attemptID string, fn func(Exam, *Attempt) error) (Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer tx.Rollback()

	a, err := getAttempt(ctx, tx, selectAttempt(s.driver, true), attemptID)
	if err != nil {
		return Attempt{}, err
	}
	e, err := getExam(ctx, tx, a.ExamID)
	if err != nil {
		return Attempt{}, err
	}
	if err := fn(e, &a); err != nil {
		return Attempt{}, err
	}

	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return Attempt{}, err
	}
	var rj sql.NullString
	if a.Report != nil {
		b, err := json.Marshal(a.Report)
		if err != nil {
			return Attempt{}, err
		}
		rj = sql.NullString{String: string(b), Valid: true}
	}
	var submitted sql.NullInt64
	if a.SubmittedAt > 0 {
		submitted = sql.NullInt64{Int64: a.SubmittedAt, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE attempts SET status=$1, current_index=$2, answers_json=$3,
		submitted_at=$4, report_json=$5 WHERE id=$6`,
		a.Status, a.Current, string(aj), submitted, rj, a.ID); err != nil {
		return Attempt{}, err
	}
	if err := tx.Commit(); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

const attemptCols = `id,exam_id,status,current_index,answers_json,started_at,deadline,submitted_at,report_json`

func selectAttempt(driver string, lock bool) string {
	q := `SELECT ` + attemptCols + ` FROM attempts WHERE id=$1`
	if lock && driver == "postgres" {
		q += ` FOR UPDATE`
	}
	return q
}

func getAttempt(ctx context.Context, q rowQuerier, query, id string) (Attempt, error) {
	a, err := scanAttempt(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	return a, err
}

func scanAttempt(sc interface{ Scan(dest ...any) error }) (Attempt, error) {
	var (
		a         Attempt
		aj        string
		submitted sql.NullInt64
		rj        sql.NullString
	)
	if err := sc.Scan(&a.ID, &a.ExamID, &a.Status, &a.Current, &aj, &a.StartedAt, &a.Deadline, &submitted, &rj); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("decode answers %s: %w", a.ID, err)
	}
	if a.Answers == nil {
		a.Answers = map[int]string{}
	}
	a.SubmittedAt = submitted.Int64
	if rj.Valid && rj.String != "" {
		var rep grading.Report
		if err := json.Unmarshal([]byte(rj.String), &rep); err != nil {
			return Attempt{}, fmt.Errorf("decode report %s: %w", a.ID, err)
		}
		a.Report = &rep
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var (
		where []string
		args  []any
	)
	if opts.ExamID != "" {
		args = append(args, opts.ExamID)
		where = append(where, fmt.Sprintf("exam_id=$%d", len(args)))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	q := `SELECT ` + attemptCols + ` FROM attempts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, opts.limit(), max(opts.Offset, 0))
	q += fmt.Sprintf(" ORDER BY started_at DESC, id ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
