package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/myquiz/backend/internal/quiz"
)

// ScoreRequest is the request body for POST /api/v1/scores. Email may be any
// player identifier, including "guest".
type ScoreRequest struct {
	Email     string `json:"email" validate:"required,max=254"`
	QuizID    string `json:"quizId" validate:"required,max=128"`
	QuizTitle string `json:"quizTitle" validate:"required,max=200"`
	Score     *int   `json:"score" validate:"required,gte=0"`
	Total     *int   `json:"total" validate:"required,gt=0"`
}

func (req *ScoreRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
	req.QuizID = strings.TrimSpace(req.QuizID)
	req.QuizTitle = strings.TrimSpace(req.QuizTitle)
}

type ScoreResponse struct {
	ID    string    `json:"id"`
	Score int       `json:"score"`
	Total int       `json:"total"`
	Saved bool      `json:"saved"`
	Date  time.Time `json:"date"`
}

type ScoresByEmailResponse struct {
	Email  string       `json:"email"`
	Scores []quiz.Score `json:"scores"`
	Count  int          `json:"count"`
}

func handleAddScore(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		if !decode(w, r, &req) {
			return
		}

		sc, err := quizzes.AddScore(r.Context(), quiz.ScoreInput{
			Email:     req.Email,
			QuizID:    req.QuizID,
			QuizTitle: req.QuizTitle,
			Score:     *req.Score,
			Total:     *req.Total,
		})
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, ScoreResponse{
			ID:    sc.ID,
			Score: sc.Score,
			Total: sc.Total,
			Saved: true,
			Date:  sc.Date,
		})
	}
}

func handleScoresByEmail(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := url.PathUnescape(chi.URLParam(r, "email"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid email")
			return
		}

		scores, err := quizzes.ListScoresByEmail(r.Context(), email)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ScoresByEmailResponse{
			Email:  strings.TrimSpace(email),
			Scores: scores,
			Count:  len(scores),
		})
	}
}

func handleListScores(logger *slog.Logger, quizzes *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, err := quizzes.ListScores(r.Context())
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, scores)
	}
}
