package quiz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Service applies the quiz and score rules on top of a Store: question id
// sequencing, timestamps and score bounds.
type Service struct {
	store Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying backend for health checks and seeding.
func (s *Service) Store() Store { return s.store }

// clock returns UTC time at millisecond precision, the finest every backend keeps.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

type QuizInput struct {
	Title       string
	Description string
	Questions   []Question
}

type ScoreInput struct {
	Email     string
	QuizID    string
	QuizTitle string
	Score     int
	Total     int
}

func questionID(n int) string { return "q" + strconv.Itoa(n) }

func (s *Service) ListQuizzes(ctx context.Context) ([]QuizSummary, error) {
	return s.store.ListQuizzes(ctx)
}

func (s *Service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return s.store.GetQuiz(ctx, id)
}

func (s *Service) CreateQuiz(ctx context.Context, in QuizInput) (Quiz, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Quiz{}, Invalid("title", "is required")
	}

	now := s.clock()
	q := Quiz{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Questions:   make([]Question, 0, len(in.Questions)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, qq := range in.Questions {
		qq = normalizeQuestion(qq)
		qq.ID = questionID(i + 1)
		qq.CreatedAt = now
		q.Questions = append(q.Questions, qq)
	}
	return s.store.InsertQuiz(ctx, q)
}

// UpdateQuiz replaces title, description and questions. Questions keep a
// supplied id; the rest get q{position}.
func (s *Service) UpdateQuiz(ctx context.Context, id string, in QuizInput) (Quiz, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Quiz{}, Invalid("title", "is required")
	}

	existing, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}

	now := s.clock()
	q := Quiz{
		ID:          existing.ID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Questions:   make([]Question, 0, len(in.Questions)),
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   now,
	}
	seen := make(map[string]bool, len(in.Questions))
	for i, qq := range in.Questions {
		qq = normalizeQuestion(qq)
		if qq.ID == "" {
			qq.ID = questionID(i + 1)
		}
		if seen[qq.ID] {
			return Quiz{}, Invalid(fmt.Sprintf("questions[%d].id", i), "duplicates "+qq.ID)
		}
		seen[qq.ID] = true
		if qq.CreatedAt.IsZero() {
			qq.CreatedAt = now
		}
		q.Questions = append(q.Questions, qq)
	}

	if err := s.store.ReplaceQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, id string) error {
	return s.store.DeleteQuiz(ctx, id)
}

// AppendQuestions adds questions numbered after the existing ones and
// returns how many were added.
func (s *Service) AppendQuestions(ctx context.Context, quizID string, qs []Question) (int, error) {
	existing, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	if len(qs) == 0 {
		return 0, nil
	}

	taken := make(map[string]bool, len(existing.Questions))
	for _, q := range existing.Questions {
		taken[q.ID] = true
	}

	now := s.clock()
	added := make([]Question, 0, len(qs))
	n := len(existing.Questions)
	for _, qq := range qs {
		n++
		// Ids freed by deletions can shift the count below an existing id.
		for taken[questionID(n)] {
			n++
		}
		qq = normalizeQuestion(qq)
		qq.ID = questionID(n)
		qq.CreatedAt = now
		taken[qq.ID] = true
		added = append(added, qq)
	}

	if err := s.store.PushQuestions(ctx, quizID, added, now); err != nil {
		return 0, err
	}
	return len(added), nil
}

func (s *Service) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	return s.store.PullQuestion(ctx, quizID, questionID, s.clock())
}

// GradeQuiz scores a set of answers keyed by question id.
func (s *Service) GradeQuiz(ctx context.Context, quizID string, answers map[string]Answer) (GradeResult, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return GradeResult{}, err
	}
	return Grade(q, answers), nil
}

func (s *Service) AddScore(ctx context.Context, in ScoreInput) (Score, error) {
	sc := Score{
		Email:     strings.TrimSpace(in.Email),
		QuizID:    strings.TrimSpace(in.QuizID),
		QuizTitle: strings.TrimSpace(in.QuizTitle),
		Score:     in.Score,
		Total:     in.Total,
	}
	switch {
	case sc.Email == "":
		return Score{}, Invalid("email", "is required")
	case sc.QuizID == "":
		return Score{}, Invalid("quizId", "is required")
	case sc.QuizTitle == "":
		return Score{}, Invalid("quizTitle", "is required")
	case sc.Total <= 0:
		return Score{}, Invalid("total", "must be greater than 0")
	case sc.Score < 0:
		return Score{}, Invalid("score", "must be 0 or greater")
	case sc.Score > sc.Total:
		return Score{}, Invalid("score", "cannot exceed total")
	}
	sc.Date = s.clock()
	return s.store.InsertScore(ctx, sc)
}

func (s *Service) ListScores(ctx context.Context) ([]Score, error) {
	return s.store.ListScores(ctx)
}

func (s *Service) ListScoresByEmail(ctx context.Context, email string) ([]Score, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, Invalid("email", "is required")
	}
	return s.store.ListScoresByEmail(ctx, email)
}

func normalizeQuestion(q Question) Question {
	q = q.Clone()
	q.ID = strings.TrimSpace(q.ID)
	q.Text = strings.TrimSpace(q.Text)
	if q.Type != TypeMultipleChoice {
		q.Choices = nil
	}
	return q
}
