package exam

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	attempts map[string]Attempt
	now      func() time.Time
}

func NewInMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]Exam{},
		attempts: map[string]Attempt{},
		now:      time.Now,
	}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt == 0 {
		e.CreatedAt = m.now().Unix()
	}
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := m.GetExamAdmin(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	return e.Public(), nil
}

func (m *memoryStore) GetExamAdmin(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) ListExams(_ context.Context, opts ListOpts) ([]ExamSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	all := make([]ExamSummary, 0, len(m.exams))
	for _, e := range m.exams {
		if q != "" && !strings.Contains(strings.ToLower(e.Title), q) {
			continue
		}
		all = append(all, e.Summary())
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt != all[j].CreatedAt {
			return all[i].CreatedAt > all[j].CreatedAt
		}
		return all[i].ID < all[j].ID
	})
	if opts.Offset >= len(all) {
		return []ExamSummary{}, nil
	}
	all = all[max(opts.Offset, 0):]
	if n := opts.limit(); len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (m *memoryStore) NewAttempt(_ context.Context, examID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	a := newAttempt(e, m.now())
	m.attempts[a.ID] = a
	return copyAttempt(a), nil
}

func (m *memoryStore) SaveAnswer(_ context.Context, attemptID string, index int, letter string) (Attempt, *Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, e, err := m.load(attemptID)
	if err != nil {
		return Attempt{}, nil, err
	}
	a = copyAttempt(a)
	fb, err := applyAnswer(e, &a, index, letter, m.now())
	if err != nil {
		return Attempt{}, nil, err
	}
	m.attempts[attemptID] = a
	return copyAttempt(a), fb, nil
}

func (m *memoryStore) Navigate(_ context.Context, attemptID string, target int) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, e, err := m.load(attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if err := navigate(e, &a, target); err != nil {
		return Attempt{}, err
	}
	m.attempts[attemptID] = a
	return copyAttempt(a), nil
}

func (m *memoryStore) Submit(_ context.Context, attemptID string) (Attempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, e, err := m.load(attemptID)
	if err != nil {
		return Attempt{}, false, err
	}
	if a.Status == StatusSubmitted {
		return copyAttempt(a), false, nil
	}
	finish(e, &a, m.now())
	m.attempts[attemptID] = a
	return copyAttempt(a), true, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	return copyAttempt(a), nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]Attempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		if (opts.ExamID != "" && a.ExamID != opts.ExamID) || (opts.Status != "" && a.Status != opts.Status) {
			continue
		}
		all = append(all, copyAttempt(a))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].StartedAt != all[j].StartedAt {
			return all[i].StartedAt > all[j].StartedAt
		}
		return all[i].ID < all[j].ID
	})
	if opts.Offset >= len(all) {
		return []Attempt{}, nil
	}
	all = all[max(opts.Offset, 0):]
	if n := opts.limit(); len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// load must be called with the lock held.
func (m *memoryStore) load(attemptID string) (Attempt, Exam, error) {
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, Exam{}, ErrNotFound
	}
	e, ok := m.exams[a.ExamID]
	if !ok {
		return Attempt{}, Exam{}, ErrNotFound
	}
	return a, e, nil
}

// copyAttempt detaches the answers map so callers cannot mutate stored state.
func copyAttempt(a Attempt) Attempt {
	answers := make(map[int]string, len(a.Answers))
	for k, v := range a.Answers {
		answers[k] = v
	}
	a.Answers = answers
	return a
}
