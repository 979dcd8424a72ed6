package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/handler"
	"github.com/sakif/snippets/internal/highlight"
	"github.com/sakif/snippets/internal/model"
	sqliteRepo "github.com/sakif/snippets/internal/repository/sqlite"
	"github.com/sakif/snippets/internal/service"
)

const testSecret = "test-secret-at-least-16-chars!!"

// renderer is shared across tests: building it snapshots chroma's registries.
var renderer = highlight.New()

// testAPI is the full HTTP API over an in-memory SQLite database.
type testAPI struct {
	t      *testing.T
	router chi.Router
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	snippets := handler.NewSnippetHandler(service.NewSnippetService(db, db, renderer, logger), logger)
	users := handler.NewUserHandler(service.NewUserService(db, auth.NewPasswordServiceWithCost(4), logger), logger)
	health := handler.NewHealthHandler(db, logger)

	r := chi.NewRouter()
	r.Use(auth.Identify(tokens))
	r.Get("/snippets", snippets.HandleList)
	r.Post("/snippets", snippets.HandleCreate)
	r.Get("/snippets/{id}", snippets.HandleGet)
	r.Put("/snippets/{id}", snippets.HandleUpdate)
	r.Patch("/snippets/{id}", snippets.HandleUpdate)
	r.Delete("/snippets/{id}", snippets.HandleDelete)
	r.Get("/snippets/{id}/highlight", snippets.HandleHighlight)
	r.Get("/users", users.HandleList)
	r.Get("/users/{id}", users.HandleGet)
	r.Get("/healthz", health.HandleHealth)

	return &testAPI{t: t, router: r, db: db, tokens: tokens}
}

// do sends a request with an optional raw JSON body.
func (a *testAPI) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) createUser(username string) model.User {
	a.t.Helper()
	u := model.User{Username: username, PasswordHash: "not-a-real-hash"}
	require.NoError(a.t, a.db.CreateUser(context.Background(), &u))
	return u
}

// snippetJSON mirrors the response shape; decoding into it checks field names.
type snippetJSON struct {
	ID          int64  `json:"id"`
	Created     string `json:"created"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	LineNumbers bool   `json:"show_line_numbers"`
	Language    string `json:"language"`
	Style       string `json:"style"`
	Owner       int64  `json:"owner"`
	Highlighted string `json:"highlighted"`
}

type errorJSON struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func mustCreate(t *testing.T, a *testAPI, body string) snippetJSON {
	t.Helper()
	rr := a.do(http.MethodPost, "/snippets", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[snippetJSON](t, rr)
}
