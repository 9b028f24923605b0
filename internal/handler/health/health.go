// Package health reports liveness plus the reachability of the store and
// any optional infrastructure.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

type Handler struct {
	checks      map[string]Checker
	environment string
	logger      *slog.Logger
}

func NewHandler(logger *slog.Logger, environment string, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, environment: environment, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeHTTP)
	return r
}

type CheckResult struct {
	Status string `json:"status"`
}

// Response is the health payload.
type Response struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(h.checks))
		g       errgroup.Group
	)
	for name, c := range h.checks {
		g.Go(func() error {
			res := CheckResult{Status: StatusOK}
			if err := c.Check(ctx); err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				res.Status = StatusError
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := Response{
		Status:      StatusOK,
		Timestamp:   time.Now().UTC(),
		Environment: h.environment,
		Checks:      results,
	}
	status := http.StatusOK
	for _, res := range results {
		if res.Status != StatusOK {
			resp.Status = StatusDegraded
			status = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
