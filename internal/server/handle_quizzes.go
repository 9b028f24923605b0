package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/myquiz/backend/internal/quiz"
)

// QuestionRequest is one question in a quiz create, update or append body.
type QuestionRequest struct {
	ID        string            `json:"id,omitempty" validate:"max=64"`
	Text      string            `json:"text" validate:"required,max=1000"`
	Type      quiz.QuestionType `json:"type" validate:"required,oneof=mc text number"`
	Choices   []string          `json:"choices,omitempty"`
	Correct   quiz.Answer       `json:"correct"`
	CreatedAt *time.Time        `json:"createdAt,omitempty"`
}

func (q *QuestionRequest) normalize() {
	q.ID = strings.TrimSpace(q.ID)
	q.Text = strings.TrimSpace(q.Text)
	q.Type = quiz.QuestionType(strings.ToLower(strings.TrimSpace(string(q.Type))))
}

func (q QuestionRequest) toQuestion() quiz.Question {
	out := quiz.Question{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Choices: q.Choices,
		Correct: q.Correct,
	}
	if q.Type == quiz.TypeNumber {
		if n, ok := q.Correct.AsNumber(); ok {
			out.Correct = quiz.NumberAnswer(n)
		}
	}
	if q.CreatedAt != nil {
		out.CreatedAt = q.CreatedAt.UTC()
	}
	return out
}

func toQuestions(reqs []QuestionRequest) []quiz.Question {
	out := make([]quiz.Question, 0, len(reqs))
	for _, q := range reqs {
		out = append(out, q.toQuestion())
	}
	return out
}

// QuizRequest is the request body for POST and PUT /api/v1/quizzes.
type QuizRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=2000"`
	Questions   []QuestionRequest `json:"questions" validate:"dive"`
}

func (req *QuizRequest) normalize() {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	for i := range req.Questions {
		req.Questions[i].normalize()
	}
}

func (req QuizRequest) input() quiz.QuizInput {
	return quiz.QuizInput{
		Title:       req.Title,
		Description: req.Description,
		Questions:   toQuestions(req.Questions),
	}
}

// AppendQuestionsRequest is the request body for POST /api/v1/quizzes/{id}/questions.
type AppendQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

func (req *AppendQuestionsRequest) normalize() {
	for i := range req.Questions {
		req.Questions[i].normalize()
	}
}

type AppendQuestionsResponse struct {
	QuizID string `json:"quizId"`
	Added  int    `json:"added"`
}

type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// GradeRequest maps question ids to the caller's answers.
type GradeRequest struct {
	Answers map[string]quiz.Answer `json:"answers" validate:"required"`
}

func handleListQuizzes(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := quizzes.ListQuizzes(r.Context())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetQuiz(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := quizzes.GetQuiz(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func handleCreateQuiz(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuizRequest
		if !decode(w, r, &req) {
			return
		}

		q, err := quizzes.CreateQuiz(r.Context(), req.input())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		logger.Info("quiz created", "quiz_id", q.ID, "questions", len(q.Questions))
		writeJSON(w, http.StatusCreated, q)
	}
}

func handleUpdateQuiz(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuizRequest
		if !decode(w, r, &req) {
			return
		}

		q, err := quizzes.UpdateQuiz(r.Context(), chi.URLParam(r, "id"), req.input())
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func handleDeleteQuiz(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := quizzes.DeleteQuiz(r.Context(), id)
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		logger.Info("quiz deleted", "quiz_id", id)
		writeJSON(w, http.StatusOK, DeleteResponse{Deleted: true, ID: id})
	}
}

func handleAppendQuestions(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppendQuestionsRequest
		if !decode(w, r, &req) {
			return
		}

		id := chi.URLParam(r, "id")
		n, err := quizzes.AppendQuestions(r.Context(), id, toQuestions(req.Questions))
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, AppendQuestionsResponse{QuizID: id, Added: n})
	}
}

func handleDeleteQuestion(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID := chi.URLParam(r, "questionId")
		err := quizzes.DeleteQuestion(r.Context(), chi.URLParam(r, "id"), questionID)
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz or question not found")
			return
		}
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, DeleteResponse{Deleted: true, ID: questionID})
	}
}

func handleGradeQuiz(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GradeRequest
		if !decode(w, r, &req) {
			return
		}

		res, err := quizzes.GradeQuiz(r.Context(), chi.URLParam(r, "id"), req.Answers)
		if errors.Is(err, quiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
