package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/myquiz/backend/internal/auth"
	"github.com/myquiz/backend/internal/handler/health"
	"github.com/myquiz/backend/internal/quiz"
	"github.com/myquiz/backend/internal/store/memory"
)

const (
	testAdminEmail    = "admin@myquiz.com"
	testAdminPassword = "admin123"
	testSecret        = "test-secret"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	handler http.Handler
	store   *memory.Store
	clock   *testClock
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	st := memory.New()
	err := st.SaveAdminCredential(context.Background(), quiz.AdminCredential{
		Email:    testAdminEmail,
		Password: quiz.PlaintextPassword(testAdminPassword),
	})
	if err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	clock := &testClock{now: time.Now().UTC()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := auth.NewService(st,
		auth.NewTokens(testSecret, 24*time.Hour),
		auth.NewMemoryLimiter(5, 15*time.Minute),
		logger,
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithClock(clock.Now),
	)

	deps := Deps{
		Logger:         logger,
		Quizzes:        quiz.NewService(st, quiz.WithClock(clock.Now)),
		Auth:           authSvc,
		Checks:         map[string]health.Checker{"store": health.CheckerFunc(st.Ping)},
		Environment:    "test",
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxBodyBytes:   1 << 20,
	}
	for _, m := range mutate {
		m(&deps)
	}

	return &testEnv{handler: NewHandler(deps), store: st, clock: clock}
}

// do sends a JSON request and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/admin-login",
		AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp AdminLoginResponse
	decodeBody(t, w, &resp)
	return resp.Token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v (body %q)", err, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/healthz", "/api/v1/health"} {
		w := e.do(t, http.MethodGet, path, nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		var resp health.Response
		decodeBody(t, w, &resp)
		if resp.Status != health.StatusOK {
			t.Errorf("%s: status = %q, want ok", path, resp.Status)
		}
		if resp.Checks["store"].Status != health.StatusOK {
			t.Errorf("%s: store check = %q", path, resp.Checks["store"].Status)
		}
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp ErrorResponse
	decodeBody(t, w, &resp)
	if resp.Error != "route not found" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	w := e.do(t, http.MethodGet, "/metrics", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("myquiz_admin_login_attempts_total")) {
		t.Error("metrics missing myquiz_admin_login_attempts_total")
	}
}

func TestBodyTooLarge(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) { d.MaxBodyBytes = 64 })

	big := `{"email":"player@example.com","quizId":"x","quizTitle":"` + string(bytes.Repeat([]byte("a"), 256)) + `","score":1,"total":2}`
	w := e.do(t, http.MethodPost, "/api/v1/scores", big, "")
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMalformedJSON(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/scores", `{"email":`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
