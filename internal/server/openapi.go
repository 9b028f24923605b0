package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/myquiz/backend/internal/handler/health"
	"github.com/myquiz/backend/internal/quiz"
)

const adminNote = " Requires an admin Bearer token."

type operation struct {
	method      string
	path        string
	summary     string
	description string
	req         any
	resp        any
	status      int
	errors      []int
}

var operations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        health.Response{}, status: http.StatusOK,
		errors: []int{http.StatusServiceUnavailable},
	},
	{
		method: http.MethodGet, path: "/metrics",
		summary:     "Prometheus metrics",
		description: "Exposes process and admin login metrics in the Prometheus text format.",
		status:      http.StatusOK,
	},
	{
		method: http.MethodPost, path: "/api/v1/auth/admin-login",
		summary:     "Admin login",
		description: "Authenticates the admin and returns a signed token. Limited to 5 attempts per 15 minutes per client.",
		req:         AdminLoginRequest{},
		resp:        AdminLoginResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests},
	},
	{
		method: http.MethodPut, path: "/api/v1/auth/admin/credentials",
		summary:     "Change admin credentials",
		description: "Replaces the admin email and password after checking the current password." + adminNote,
		req:         ChangeCredentialsRequest{},
		resp:        ChangeCredentialsResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden},
	},
	{
		method: http.MethodGet, path: "/api/v1/auth/admin/verify",
		summary:     "Verify admin token",
		description: "Reports whether the presented token is a valid admin token." + adminNote,
		resp:        AdminVerifyResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden},
	},
	{
		method: http.MethodGet, path: "/api/v1/quizzes",
		summary:     "List quizzes",
		description: "Returns every quiz with its question count.",
		resp:        []quiz.QuizSummary{}, status: http.StatusOK,
	},
	{
		method: http.MethodPost, path: "/api/v1/quizzes",
		summary:     "Create quiz",
		description: "Creates a quiz. Questions are numbered q1..qN." + adminNote,
		req:         QuizRequest{},
		resp:        quiz.Quiz{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden},
	},
	{
		method: http.MethodGet, path: "/api/v1/quizzes/{id}",
		summary:     "Get quiz",
		description: "Returns a quiz with all of its questions.",
		resp:        quiz.Quiz{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound},
	},
	{
		method: http.MethodPut, path: "/api/v1/quizzes/{id}",
		summary:     "Update quiz",
		description: "Replaces a quiz's title, description and questions." + adminNote,
		req:         QuizRequest{},
		resp:        quiz.Quiz{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	},
	{
		method: http.MethodDelete, path: "/api/v1/quizzes/{id}",
		summary:     "Delete quiz",
		description: "Deletes a quiz." + adminNote,
		resp:        DeleteResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/v1/quizzes/{id}/questions",
		summary:     "Append questions",
		description: "Appends questions to a quiz." + adminNote,
		req:         AppendQuestionsRequest{},
		resp:        AppendQuestionsResponse{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	},
	{
		method: http.MethodDelete, path: "/api/v1/quizzes/{id}/questions/{questionId}",
		summary:     "Delete question",
		description: "Removes one question from a quiz." + adminNote,
		resp:        DeleteResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/v1/quizzes/{id}/grade",
		summary:     "Grade answers",
		description: "Grades a set of answers keyed by question id.",
		req:         GradeRequest{},
		resp:        quiz.GradeResult{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/v1/scores",
		summary:     "Record score",
		description: "Stores a quiz result for a player.",
		req:         ScoreRequest{},
		resp:        ScoreResponse{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest},
	},
	{
		method: http.MethodGet, path: "/api/v1/scores",
		summary:     "List scores",
		description: "Returns every score, newest first." + adminNote,
		resp:        []quiz.Score{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusForbidden},
	},
	{
		method: http.MethodGet, path: "/api/v1/scores/{email}",
		summary:     "Scores for a player",
		description: "Returns a player's scores, newest first. The email match ignores case.",
		resp:        ScoresByEmailResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "MyQuiz API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Backend API for MyQuiz: quizzes, scores and admin access.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		if op.resp != nil {
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		} else {
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(op.status), openapi.WithContentType("text/plain"))
		}
		for _, status := range op.errors {
			if status == http.StatusServiceUnavailable {
				oc.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(status))
				continue
			}
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
