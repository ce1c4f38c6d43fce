package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-server/internal/auth"
	"github.com/Tomlord1122/todo-server/internal/database"
	"github.com/Tomlord1122/todo-server/internal/domain"
	"github.com/Tomlord1122/todo-server/internal/repository"
	"github.com/Tomlord1122/todo-server/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	handler  http.Handler
	sessions *auth.Sessions
	logs     *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithTodos(t, nil)
}

func newTestEnvWithTodos(t *testing.T, todos repository.TodoRepository) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	if todos == nil {
		todos = store.Todos()
	}
	sessions := auth.NewSessions(testSecret, time.Hour, false)
	authService, err := service.NewAuthService(store.Users(), sessions)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logs)

	s := New(Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		TodoService:    service.NewTodoService(todos),
		AuthService:    authService,
		Sessions:       sessions,
		DB:             database.NewMemory(),
		Logger:         logger,
	})
	return &testEnv{handler: s.RegisterRoutes(), sessions: sessions, logs: logs}
}

// do sends a JSON request with an optional bearer token.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// signIn registers email through the API and returns its session token.
func (e *testEnv) signIn(t *testing.T, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "password123"}

	rec := e.do(t, http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) service.TodoResponse {
	t.Helper()
	var todo service.TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	return todo
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

func TestTodoLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/api/todos", token, map[string]any{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeTodo(t, rec)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Completed)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Contains(t, rec.Body.String(), `"description":null`)

	rec = env.do(t, http.MethodPatch, "/api/todos/"+created.ID, token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decodeTodo(t, rec)
	assert.True(t, patched.Completed)
	assert.Equal(t, "Buy milk", patched.Title)

	rec = env.do(t, http.MethodPut, "/api/todos/"+created.ID, token, map[string]any{"title": "Buy oat milk", "description": "2 litres"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeTodo(t, rec)
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Equal(t, "2 litres", *updated.Description)
	assert.True(t, updated.Completed, "full update must not touch completed")

	rec = env.do(t, http.MethodGet, "/api/todos/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, updated, decodeTodo(t, rec))

	rec = env.do(t, http.MethodDelete, "/api/todos/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/todos/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Todo not found", errorMessage(t, rec))
}

func TestListTodos(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "alice@example.com")

	rec := env.do(t, http.MethodGet, "/api/todos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, title := range []string{"one", "two"} {
		rec = env.do(t, http.MethodPost, "/api/todos", token, map[string]any{"title": title})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/todos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var todos []service.TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	assert.Len(t, todos, 2)
}

func TestCreateTodoRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "alice@example.com")

	for _, body := range []any{
		map[string]any{"title": ""},
		map[string]any{"description": "no title"},
		map[string]any{"title": "   "},
	} {
		rec := env.do(t, http.MethodPost, "/api/todos", token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Title is required", errorMessage(t, rec))
	}

	rec := env.do(t, http.MethodGet, "/api/todos", token, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "alice@example.com")
	rec := env.do(t, http.MethodPost, "/api/todos", token, map[string]any{"title": "x"})
	id := decodeTodo(t, rec).ID

	rec = env.do(t, http.MethodPut, "/api/todos/"+id, token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title is required", errorMessage(t, rec))

	rec = env.do(t, http.MethodPatch, "/api/todos/"+id, token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Completed is required", errorMessage(t, rec))
}

func TestMalformedBodies(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "alice@example.com")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `{"title":`, "Request body contains badly-formed JSON"},
		{"wrong type", `{"title": 42}`, `Request body contains an invalid value for the "title" field`},
		{"empty", ``, "Request body must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/todos", bytes.NewBufferString(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorMessage(t, rec))
		})
	}
}

func TestEveryTodoRouteRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/todos"},
		{http.MethodPost, "/api/todos"},
		{http.MethodGet, "/api/todos/some-id"},
		{http.MethodPut, "/api/todos/some-id"},
		{http.MethodPatch, "/api/todos/some-id"},
		{http.MethodDelete, "/api/todos/some-id"},
		{http.MethodGet, "/api/auth/session"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			// Invalid bodies must not matter: auth is checked first.
			rec := env.do(t, rt.method, rt.path, "", `{"title":`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Not authenticated", errorMessage(t, rec))

			rec = env.do(t, rt.method, rt.path, "forged.token.value", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signIn(t, "alice@example.com")
	bob := env.signIn(t, "bob@example.com")

	rec := env.do(t, http.MethodPost, "/api/todos", alice, map[string]any{"title": "alice only"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeTodo(t, rec).ID

	rec = env.do(t, http.MethodGet, "/api/todos", bob, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, target := range []string{id, "missing-id"} {
		probes := []*httptest.ResponseRecorder{
			env.do(t, http.MethodGet, "/api/todos/"+target, bob, nil),
			env.do(t, http.MethodPut, "/api/todos/"+target, bob, map[string]any{"title": "mine now"}),
			env.do(t, http.MethodPatch, "/api/todos/"+target, bob, map[string]any{"completed": true}),
			env.do(t, http.MethodDelete, "/api/todos/"+target, bob, nil),
		}
		for _, rec := range probes {
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"error":"Todo not found"}`, rec.Body.String())
		}
	}

	rec = env.do(t, http.MethodGet, "/api/todos/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeTodo(t, rec)
	assert.Equal(t, "alice only", got.Title)
	assert.False(t, got.Completed)
}

type failingTodos struct{}

var errStoreDown = errors.New(`dial tcp 10.0.0.5:5432: connect: connection refused`)

func (failingTodos) Create(context.Context, *domain.Todo) error { return errStoreDown }
func (failingTodos) ListByOwner(context.Context, string) ([]domain.Todo, error) {
	return nil, errStoreDown
}
func (failingTodos) FindByOwner(context.Context, string, string) (*domain.Todo, error) {
	return nil, errStoreDown
}
func (failingTodos) UpdateDetails(context.Context, string, string, domain.TodoDetails) (*domain.Todo, error) {
	return nil, errStoreDown
}
func (failingTodos) UpdateStatus(context.Context, string, string, bool) (*domain.Todo, error) {
	return nil, errStoreDown
}
func (failingTodos) Delete(context.Context, string, string) error { return errStoreDown }

func TestStoreFailuresAreGeneric(t *testing.T) {
	env := newTestEnvWithTodos(t, failingTodos{})
	token := env.signIn(t, "alice@example.com")

	tests := []struct {
		method, path string
		body         any
		want         string
	}{
		{http.MethodGet, "/api/todos", nil, "Failed to fetch todos"},
		{http.MethodPost, "/api/todos", map[string]any{"title": "t"}, "Failed to create todo"},
		{http.MethodGet, "/api/todos/x", nil, "Failed to fetch todo"},
		{http.MethodPut, "/api/todos/x", map[string]any{"title": "t"}, "Failed to update todo"},
		{http.MethodPatch, "/api/todos/x", map[string]any{"completed": true}, "Failed to update todo status"},
		{http.MethodDelete, "/api/todos/x", nil, "Failed to delete todo"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.want, errorMessage(t, rec))
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		})
	}
	assert.Contains(t, env.logs.String(), "connection refused")
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	creds := map[string]string{"email": "carol@example.com", "password": "password123"}

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "x@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at least 8 characters", errorMessage(t, rec))

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "carol@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", errorMessage(t, rec))

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var session map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "carol@example.com", session["email"])

	rec = env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"up"`)
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", errorMessage(t, rec))
}
