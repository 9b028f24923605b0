package quiz

import (
	"context"
	"time"
)

type CredentialStore interface {
	// AdminCredential returns ErrNotFound when no credential was saved yet.
	AdminCredential(ctx context.Context) (AdminCredential, error)
	SaveAdminCredential(ctx context.Context, cred AdminCredential) error
}

type QuizStore interface {
	// ListQuizzes returns summaries ordered by creation time.
	ListQuizzes(ctx context.Context) ([]QuizSummary, error)
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	// InsertQuiz assigns the quiz id and returns the stored quiz.
	InsertQuiz(ctx context.Context, q Quiz) (Quiz, error)
	ReplaceQuiz(ctx context.Context, q Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	PushQuestions(ctx context.Context, quizID string, qs []Question, updatedAt time.Time) error
	// PullQuestion returns ErrNotFound if either the quiz or the question is missing.
	PullQuestion(ctx context.Context, quizID, questionID string, updatedAt time.Time) error
}

type ScoreStore interface {
	InsertScore(ctx context.Context, s Score) (Score, error)
	// ListScores and ListScoresByEmail return newest first. Email matching
	// is exact and case-insensitive.
	ListScores(ctx context.Context) ([]Score, error)
	ListScoresByEmail(ctx context.Context, email string) ([]Score, error)
}

// Store is a complete persistence backend.
type Store interface {
	CredentialStore
	QuizStore
	ScoreStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
