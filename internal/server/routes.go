package server

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"

	"github.com/myquiz/backend/internal/handler/health"
)

func addRoutes(r chi.Router, d Deps) {
	logger := d.Logger
	healthz := health.NewHandler(logger, d.Environment, d.Checks)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("MyQuiz API", "/openapi.json", "/docs"))
	r.Mount("/healthz", healthz.Routes())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequestSize(d.MaxBodyBytes))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "route not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		})

		r.Get("/health", healthz.ServeHTTP)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/admin-login", handleAdminLogin(logger, d.Auth))
			r.Group(func(r chi.Router) {
				r.Use(adminOnly(d.Auth))
				r.Put("/admin/credentials", handleChangeCredentials(logger, d.Auth))
				r.Get("/admin/verify", handleVerifyAdmin())
			})
		})

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", handleListQuizzes(logger, d.Quizzes))
			r.Get("/{id}", handleGetQuiz(logger, d.Quizzes))
			r.Post("/{id}/grade", handleGradeQuiz(logger, d.Quizzes))

			r.Group(func(r chi.Router) {
				r.Use(adminOnly(d.Auth))
				r.Post("/", handleCreateQuiz(logger, d.Quizzes))
				r.Put("/{id}", handleUpdateQuiz(logger, d.Quizzes))
				r.Delete("/{id}", handleDeleteQuiz(logger, d.Quizzes))
				r.Post("/{id}/questions", handleAppendQuestions(logger, d.Quizzes))
				r.Delete("/{id}/questions/{questionId}", handleDeleteQuestion(logger, d.Quizzes))
			})
		})

		r.Route("/scores", func(r chi.Router) {
			r.Post("/", handleAddScore(logger, d.Quizzes))
			r.Get("/{email}", handleScoresByEmail(logger, d.Quizzes))
			r.With(adminOnly(d.Auth)).Get("/", handleListScores(logger, d.Quizzes))
		})
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
