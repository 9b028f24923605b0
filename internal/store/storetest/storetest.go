// Package storetest is a behavioural suite every quiz.Store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myquiz/backend/internal/quiz"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) quiz.Store

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	t.Run("QuizRoundTrip", func(t *testing.T) { testQuizRoundTrip(t, newStore(t)) })
	t.Run("ListQuizzes", func(t *testing.T) { testListQuizzes(t, newStore(t)) })
	t.Run("ReplaceQuiz", func(t *testing.T) { testReplaceQuiz(t, newStore(t)) })
	t.Run("DeleteQuiz", func(t *testing.T) { testDeleteQuiz(t, newStore(t)) })
	t.Run("PushAndPullQuestions", func(t *testing.T) { testPushPull(t, newStore(t)) })
	t.Run("UnknownIDs", func(t *testing.T) { testUnknownIDs(t, newStore(t)) })
	t.Run("Scores", func(t *testing.T) { testScores(t, newStore(t)) })
	t.Run("AdminCredential", func(t *testing.T) { testAdminCredential(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func sampleQuiz(title string, created time.Time) quiz.Quiz {
	return quiz.Quiz{
		Title:       title,
		Description: "desc " + title,
		CreatedAt:   created,
		UpdatedAt:   created,
		Questions: []quiz.Question{
			{ID: "q1", Text: "Pick b", Type: quiz.TypeMultipleChoice, Choices: []string{"a", "b", "c", "d"}, Correct: quiz.NumberAnswer(1), CreatedAt: created},
			{ID: "q2", Text: "Capital of France", Type: quiz.TypeText, Correct: quiz.TextAnswer("Paris"), CreatedAt: created},
			{ID: "q3", Text: "Pi to two places", Type: quiz.TypeNumber, Correct: quiz.NumberAnswer(3.14), CreatedAt: created},
		},
	}
}

func testQuizRoundTrip(t *testing.T, s quiz.Store) {
	ctx := context.Background()
	in := sampleQuiz("Round trip", base)

	stored, err := s.InsertQuiz(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)

	got, err := s.GetQuiz(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Description, got.Description)
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", got.CreatedAt, in.CreatedAt)
	require.Len(t, got.Questions, 3)

	mc := got.Questions[0]
	assert.Equal(t, "q1", mc.ID)
	assert.Equal(t, quiz.TypeMultipleChoice, mc.Type)
	assert.Equal(t, []string{"a", "b", "c", "d"}, mc.Choices)
	idx, ok := mc.Correct.Index()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	assert.Equal(t, "Paris", got.Questions[1].Correct.Text())
	assert.Empty(t, got.Questions[1].Choices)
	assert.InDelta(t, 3.14, got.Questions[2].Correct.Number(), 1e-9)
}

func testListQuizzes(t *testing.T, s quiz.Store) {
	ctx := context.Background()

	empty := sampleQuiz("Empty", base.Add(2*time.Hour))
	empty.Questions = nil
	_, err := s.InsertQuiz(ctx, empty)
	require.NoError(t, err)
	_, err = s.InsertQuiz(ctx, sampleQuiz("First", base))
	require.NoError(t, err)

	list, err := s.ListQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Title)
	assert.Equal(t, 3, list[0].QuestionCount)
	assert.Equal(t, "Empty", list[1].Title)
	assert.Equal(t, 0, list[1].QuestionCount)
}

func testReplaceQuiz(t *testing.T, s quiz.Store) {
	ctx := context.Background()
	stored, err := s.InsertQuiz(ctx, sampleQuiz("Before", base))
	require.NoError(t, err)

	stored.Title = "After"
	stored.Questions = stored.Questions[:1]
	stored.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.ReplaceQuiz(ctx, stored))

	got, err := s.GetQuiz(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Len(t, got.Questions, 1)
	assert.True(t, base.Equal(got.CreatedAt))
	assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))
}

func testDeleteQuiz(t *testing.T, s quiz.Store) {
	ctx := context.Background()
	stored, err := s.InsertQuiz(ctx, sampleQuiz("Doomed", base))
	require.NoError(t, err)

	require.NoError(t, s.DeleteQuiz(ctx, stored.ID))
	_, err = s.GetQuiz(ctx, stored.ID)
	assert.ErrorIs(t, err, quiz.ErrNotFound)
	assert.ErrorIs(t, s.DeleteQuiz(ctx, stored.ID), quiz.ErrNotFound)
}

func testPushPull(t *testing.T, s quiz.Store) {
	ctx := context.Background()
	stored, err := s.InsertQuiz(ctx, sampleQuiz("Grow", base))
	require.NoError(t, err)

	later := base.Add(time.Minute)
	extra := []quiz.Question{
		{ID: "q4", Text: "Two plus two", Type: quiz.TypeNumber, Correct: quiz.NumberAnswer(4), CreatedAt: later},
		{ID: "q5", Text: "Say hi", Type: quiz.TypeText, Correct: quiz.TextAnswer("hi"), CreatedAt: later},
	}
	require.NoError(t, s.PushQuestions(ctx, stored.ID, extra, later))

	got, err := s.GetQuiz(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 5)
	assert.Equal(t, "q5", got.Questions[4].ID)
	assert.True(t, later.Equal(got.UpdatedAt))

	require.NoError(t, s.PullQuestion(ctx, stored.ID, "q2", later))
	assert.ErrorIs(t, s.PullQuestion(ctx, stored.ID, "q2", later), quiz.ErrNotFound)

	got, err = s.GetQuiz(ctx, stored.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(got.Questions))
	for _, q := range got.Questions {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"q1", "q3", "q4", "q5"}, ids)
}

func testUnknownIDs(t *testing.T, s quiz.Store) {
	ctx := context.Background()
	for _, id := range []string{"does-not-exist", "0123456789abcdef01234567", ""} {
		_, err := s.GetQuiz(ctx, id)
		assert.ErrorIs(t, err, quiz.ErrNotFound, "GetQuiz(%q)", id)
		assert.ErrorIs(t, s.DeleteQuiz(ctx, id), quiz.ErrNotFound, "DeleteQuiz(%q)", id)
		assert.ErrorIs(t, s.ReplaceQuiz(ctx, quiz.Quiz{ID: id, Title: "x"}), quiz.ErrNotFound, "ReplaceQuiz(%q)", id)
		assert.ErrorIs(t, s.PushQuestions(ctx, id, nil, base), quiz.ErrNotFound, "PushQuestions(%q)", id)
		assert.ErrorIs(t, s.PullQuestion(ctx, id, "q1", base), quiz.ErrNotFound, "PullQuestion(%q)", id)
	}
}

func testScores(t *testing.T, s quiz.Store) {
	ctx := context.Background()
	add := func(email string, score int, at time.Time) quiz.Score {
		t.Helper()
		sc, err := s.InsertScore(ctx, quiz.Score{
			Email: email, QuizID: "quiz-1", QuizTitle: "General", Score: score, Total: 10, Date: at,
		})
		require.NoError(t, err)
		require.NotEmpty(t, sc.ID)
		return sc
	}

	add("alice@example.com", 7, base)
	add("bob@example.com", 3, base.Add(time.Minute))
	latest := add("Alice@Example.com", 9, base.Add(2*time.Minute))

	all, err := s.ListScores(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, latest.ID, all[0].ID)
	assert.Equal(t, "alice@example.com", all[2].Email)

	alice, err := s.ListScoresByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, 9, alice[0].Score)
	assert.Equal(t, "Alice@Example.com", alice[0].Email)
	assert.Equal(t, 7, alice[1].Score)
	assert.Equal(t, "General", alice[1].QuizTitle)

	none, err := s.ListScoresByEmail(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testAdminCredential(t *testing.T, s quiz.Store) {
	ctx := context.Background()

	_, err := s.AdminCredential(ctx)
	require.ErrorIs(t, err, quiz.ErrNotFound)

	require.NoError(t, s.SaveAdminCredential(ctx, quiz.AdminCredential{
		Email:     "admin@myquiz.com",
		Password:  quiz.PlaintextPassword("admin123"),
		UpdatedAt: base,
	}))
	got, err := s.AdminCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@myquiz.com", got.Email)
	assert.Equal(t, quiz.PasswordPlaintext, got.Password.Kind)
	assert.Equal(t, "admin123", got.Password.Value)

	hash := "$2a$10$trCdqP4npsbw0R1vQxVwXeT1HebzRmP01SXaNGPz1eSAZ7mpcL0Uu"
	require.NoError(t, s.SaveAdminCredential(ctx, quiz.AdminCredential{
		Email:     "root@myquiz.com",
		Password:  quiz.HashedPassword(hash),
		UpdatedAt: base.Add(time.Hour),
	}))
	got, err = s.AdminCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "root@myquiz.com", got.Email)
	assert.True(t, got.Password.IsHashed())
	assert.Equal(t, hash, got.Password.Value)
	assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))
}
