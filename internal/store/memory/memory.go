// Package memory is the in-process quiz.Store used in development and tests.
// Nothing survives a restart.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myquiz/backend/internal/quiz"
)

type Store struct {
	mu      sync.RWMutex
	quizzes map[string]quiz.Quiz
	scores  []quiz.Score
	admin   *quiz.AdminCredential
}

var _ quiz.Store = (*Store)(nil)

func New() *Store {
	return &Store{quizzes: make(map[string]quiz.Quiz)}
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) AdminCredential(context.Context) (quiz.AdminCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.admin == nil {
		return quiz.AdminCredential{}, quiz.ErrNotFound
	}
	return *s.admin, nil
}

func (s *Store) SaveAdminCredential(_ context.Context, cred quiz.AdminCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = &cred
	return nil
}

func (s *Store) ListQuizzes(context.Context) ([]quiz.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]quiz.QuizSummary, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, q.Summary())
	}
	slices.SortFunc(out, func(a, b quiz.QuizSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	return q.Clone(), nil
}

func (s *Store) InsertQuiz(_ context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q = q.Clone()
	q.ID = uuid.NewString()
	if q.Questions == nil {
		q.Questions = []quiz.Question{}
	}
	s.quizzes[q.ID] = q
	return q.Clone(), nil
}

func (s *Store) ReplaceQuiz(_ context.Context, q quiz.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[q.ID]; !ok {
		return quiz.ErrNotFound
	}
	q = q.Clone()
	if q.Questions == nil {
		q.Questions = []quiz.Question{}
	}
	s.quizzes[q.ID] = q
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return quiz.ErrNotFound
	}
	delete(s.quizzes, id)
	return nil
}

func (s *Store) PushQuestions(_ context.Context, quizID string, qs []quiz.Question, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return quiz.ErrNotFound
	}
	for _, qq := range qs {
		q.Questions = append(q.Questions, qq.Clone())
	}
	q.UpdatedAt = updatedAt
	s.quizzes[quizID] = q
	return nil
}

func (s *Store) PullQuestion(_ context.Context, quizID, questionID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return quiz.ErrNotFound
	}
	i := slices.IndexFunc(q.Questions, func(qq quiz.Question) bool { return qq.ID == questionID })
	if i < 0 {
		return quiz.ErrNotFound
	}
	q.Questions = slices.Delete(slices.Clone(q.Questions), i, i+1)
	q.UpdatedAt = updatedAt
	s.quizzes[quizID] = q
	return nil
}

func (s *Store) InsertScore(_ context.Context, sc quiz.Score) (quiz.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc.ID = uuid.NewString()
	s.scores = append(s.scores, sc)
	return sc, nil
}

func (s *Store) ListScores(context.Context) ([]quiz.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.scores, func(quiz.Score) bool { return true }), nil
}

func (s *Store) ListScoresByEmail(_ context.Context, email string) ([]quiz.Score, error) {
	email = strings.TrimSpace(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.scores, func(sc quiz.Score) bool {
		return strings.EqualFold(sc.Email, email)
	}), nil
}

// newestFirst filters scores and orders them by date descending. Ties keep
// the later insertion first.
func newestFirst(scores []quiz.Score, keep func(quiz.Score) bool) []quiz.Score {
	out := make([]quiz.Score, 0, len(scores))
	for i := len(scores) - 1; i >= 0; i-- {
		if keep(scores[i]) {
			out = append(out, scores[i])
		}
	}
	slices.SortStableFunc(out, func(a, b quiz.Score) int { return b.Date.Compare(a.Date) })
	return out
}
