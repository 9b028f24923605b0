// Package seed populates an empty store: the admin credential from
// configuration and the bundled sample quizzes.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/myquiz/backend/internal/auth"
	"github.com/myquiz/backend/internal/quiz"
)

//go:embed quizzes.yaml
var sampleQuizzes []byte

type questionYAML struct {
	ID      string   `yaml:"id"`
	Text    string   `yaml:"text"`
	Type    string   `yaml:"type"`
	Choices []string `yaml:"choices"`
	Correct any      `yaml:"correct"`
}

type quizYAML struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Questions   []questionYAML `yaml:"questions"`
}

// SampleQuizzes decodes the bundled quizzes, stamped with now.
func SampleQuizzes(now time.Time) ([]quiz.Quiz, error) {
	var docs []quizYAML
	if err := yaml.Unmarshal(sampleQuizzes, &docs); err != nil {
		return nil, fmt.Errorf("decoding sample quizzes: %w", err)
	}

	out := make([]quiz.Quiz, 0, len(docs))
	for i, d := range docs {
		q := quiz.Quiz{
			Title:       d.Title,
			Description: d.Description,
			Questions:   make([]quiz.Question, 0, len(d.Questions)),
			// Distinct timestamps keep the listing in file order.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		q.UpdatedAt = q.CreatedAt
		for _, qd := range d.Questions {
			correct, err := quiz.AnswerFromValue(qd.Correct)
			if err != nil {
				return nil, fmt.Errorf("sample quiz %q question %s: %w", d.Title, qd.ID, err)
			}
			q.Questions = append(q.Questions, quiz.Question{
				ID:        qd.ID,
				Text:      qd.Text,
				Type:      quiz.QuestionType(qd.Type),
				Choices:   qd.Choices,
				Correct:   correct,
				CreatedAt: q.CreatedAt,
			})
		}
		out = append(out, q)
	}
	return out, nil
}

// Quizzes inserts the sample quizzes when the store has none. It returns
// how many were inserted.
func Quizzes(ctx context.Context, st quiz.QuizStore, logger *slog.Logger) (int, error) {
	existing, err := st.ListQuizzes(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing quizzes: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	samples, err := SampleQuizzes(time.Now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return 0, err
	}
	for _, q := range samples {
		if _, err := st.InsertQuiz(ctx, q); err != nil {
			return 0, fmt.Errorf("inserting sample quiz %q: %w", q.Title, err)
		}
	}
	logger.Info("seeded sample quizzes", "count", len(samples))
	return len(samples), nil
}

// Admin saves the configured admin credential if none exists. A password
// that is already a bcrypt hash is stored verbatim.
func Admin(ctx context.Context, st quiz.CredentialStore, email, password string, cost int, logger *slog.Logger) error {
	_, err := st.AdminCredential(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, quiz.ErrNotFound) {
		return fmt.Errorf("loading admin credential: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return errors.New("admin email and password must be configured")
	}

	pw := quiz.DecodePassword(password)
	if !pw.IsHashed() {
		hash, err := auth.HashPassword(password, cost)
		if err != nil {
			return err
		}
		pw = quiz.HashedPassword(hash)
	}

	err = st.SaveAdminCredential(ctx, quiz.AdminCredential{
		Email:     email,
		Password:  pw,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("saving admin credential: %w", err)
	}
	logger.Info("seeded admin credential", "email", email)
	return nil
}
