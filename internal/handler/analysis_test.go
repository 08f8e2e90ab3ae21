package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/codelens/internal/auth"
	"github.com/sakif/codelens/internal/handler"
	"github.com/sakif/codelens/internal/model"
	sqliteRepo "github.com/sakif/codelens/internal/repository/sqlite"
	"github.com/sakif/codelens/internal/resolver"
	"github.com/sakif/codelens/internal/scorer"
	"github.com/sakif/codelens/internal/service"
)

// stubFetcher serves canned content instead of hitting GitHub.
type stubFetcher struct {
	content string
	err     error
}

func (f *stubFetcher) Fetch(_ context.Context, _ *resolver.FileRef) (string, error) {
	return f.content, f.err
}

// newTestRouter wires the real stack (in-memory sqlite, real services, the
// RequireAuth middleware) with only the GitHub fetch stubbed out. Requests
// go through the same routing they would in production.
func newTestRouter(t *testing.T, fetcher service.ContentFetcher) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	authService := service.NewAuthService(db, tokens, passwords, logger)
	analysisService := service.NewAnalysisService(db, db, fetcher, scorer.New(scorer.DefaultConfig()), logger)

	authHandler := handler.NewAuthHandler(authService, nil, logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/register", authHandler.HandleRegister)
	r.Post("/api/auth/login", authHandler.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/api/me", authHandler.HandleMe)
		r.Post("/api/analyses", analysisHandler.HandleAnalyze)
		r.Get("/api/analyses", analysisHandler.HandleList)
		r.Get("/api/analyses/{id}", analysisHandler.HandleGetByID)
	})
	return r
}

// register creates an account and returns the session cookie.
func register(t *testing.T, router http.Handler, username string) *http.Cookie {
	t.Helper()

	body := `{"username":"` + username + `","email":"` + username + `@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, "register failed: %s", rr.Body.String())

	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("register did not set a session cookie")
	return nil
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{content: "val id = user!!.id\n"})
	cookie := register(t, router, "sakif")

	body := `{"url":"https://github.com/sakif/codelens/blob/main/app.kt"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var report model.Report
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&report))
	assert.Equal(t, "app.kt", report.FileName)
	assert.Equal(t, 95, report.OverallScore)
	assert.Len(t, report.Issues, 1)
	assert.NotEmpty(t, report.ID)
}

func TestAnalyzeEndpoint_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{content: "ok\n"})

	body := `{"url":"https://github.com/sakif/codelens/blob/main/app.kt"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAnalyzeEndpoint_BadURL(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{content: "ok\n"})
	cookie := register(t, router, "sakif")

	body := `{"url":"https://example.com/not/github"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errRes handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
	assert.Equal(t, "validation_error", errRes.Error)
}

func TestAnalyzeEndpoint_FetchFailureIs502(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{err: context.DeadlineExceeded})
	cookie := register(t, router, "sakif")

	body := `{"url":"https://github.com/sakif/codelens/blob/main/app.kt"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestListAndMe_ReflectAnalyses(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{content: "val id = user!!.id\n"})
	cookie := register(t, router, "sakif")

	// Two analyses of the same file → two reports, both scoring 95.
	for i := 0; i < 2; i++ {
		body := `{"url":"https://github.com/sakif/codelens/blob/main/app.kt"}`
		req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewBufferString(body))
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var reports []model.Report
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&reports))
	assert.Len(t, reports, 2)

	// The profile aggregates follow the history.
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var me model.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
	assert.Equal(t, 2, me.AnalysesCount)
	assert.Equal(t, 95.0, me.AverageScore)
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{})
	register(t, router, "sakif")

	body := `{"username":"sakif","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// No session cookie on failure
	for _, c := range rr.Result().Cookies() {
		assert.NotEqual(t, auth.CookieName, c.Name, "failed login must not set a session cookie")
	}
}
