package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/myquiz/backend/internal/auth"
	"github.com/myquiz/backend/internal/quiz"
)

// AdminLoginRequest is the request body for POST /api/v1/auth/admin-login.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

func (req *AdminLoginRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
}

type AdminLoginResponse struct {
	Authenticated bool      `json:"authenticated"`
	Token         string    `json:"token"`
	Email         string    `json:"email"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ChangeCredentialsRequest is the request body for PUT /api/v1/auth/admin/credentials.
type ChangeCredentialsRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewEmail        string `json:"newEmail" validate:"required,email,max=254"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
}

func (req *ChangeCredentialsRequest) normalize() {
	req.NewEmail = strings.TrimSpace(req.NewEmail)
}

type ChangeCredentialsResponse struct {
	Updated bool   `json:"updated"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type AdminVerifyResponse struct {
	Authenticated bool      `json:"authenticated"`
	Email         string    `json:"email"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func handleAdminLogin(logger *slog.Logger, authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if !decode(w, r, &req) {
			return
		}

		tok, err := authSvc.Login(r.Context(), clientKey(r), req.Email, req.Password)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, AdminLoginResponse{
			Authenticated: true,
			Token:         tok.Value,
			Email:         tok.Email,
			ExpiresAt:     tok.ExpiresAt,
		})
	}
}

func handleChangeCredentials(logger *slog.Logger, authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChangeCredentialsRequest
		if !decode(w, r, &req) {
			return
		}

		email, err := authSvc.ChangeCredentials(r.Context(), req.CurrentPassword, req.NewEmail, req.NewPassword)
		if errors.Is(err, quiz.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ChangeCredentialsResponse{
			Updated: true,
			Email:   email,
			Message: "credentials updated, sign in again with the new email and password",
		})
	}
}

func handleVerifyAdmin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := adminFrom(r)
		resp := AdminVerifyResponse{Authenticated: true, Email: claims.Email}
		if claims.ExpiresAt != nil {
			resp.ExpiresAt = claims.ExpiresAt.Time
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
