package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/access/cache"
	"github.com/tair/stockroom/internal/access/repository"
	"github.com/tair/stockroom/internal/access/usecase/command"
	"github.com/tair/stockroom/internal/access/usecase/query"
	"github.com/tair/stockroom/internal/httpapi"
	"github.com/tair/stockroom/pkg/auth"
)

type closedSessions struct{ actors []string }

func (c *closedSessions) Close(actorID string) { c.actors = append(c.actors, actorID) }

type server struct {
	router   *mux.Router
	sessions *closedSessions
}

func newServer(t *testing.T, limit int) *server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	users := repository.NewMemoryUserRepository()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	revocations := cache.NewRevocationList(rdb)
	roles := cache.NewRoleCache(rdb, users, time.Minute)
	sessions := &closedSessions{}

	h := NewAccessHandler(
		command.NewSignupAdminHandler(users),
		command.NewLoginUserHandler(users, tokens),
		command.NewLogoutUserHandler(revocations, sessions),
		command.NewAddEmployeeHandler(users),
		command.NewRemoveEmployeeHandler(users, sessions, roles),
		query.NewListEmployeesHandler(users),
		roles,
		time.Second,
	)

	router := mux.NewRouter()
	h.RegisterRoutes(router,
		AuthMiddleware(tokens, revocations),
		RateLimitMiddleware(cache.NewRateLimiter(rdb, limit, time.Minute)),
	)
	return &server{router: router, sessions: sessions}
}

func (s *server) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, httpapi.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp httpapi.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (s *server) login(t *testing.T, email, password string) string {
	t.Helper()
	rec, resp := s.do(t, "POST", "/api/auth/login", "", credentialsRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, resp.Error)
	return resp.Data.(map[string]interface{})["token"].(string)
}

func TestSignupLoginAndManageEmployees(t *testing.T) {
	s := newServer(t, 100)

	rec, resp := s.do(t, "POST", "/api/auth/signup", "", credentialsRequest{Email: "boss@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, resp.Error)
	admin := s.login(t, "boss@example.com", "secret1")

	rec, _ = s.do(t, "POST", "/api/employees", admin, credentialsRequest{Email: "ann@example.com", Password: "secret2"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp = s.do(t, "GET", "/api/employees", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := resp.Data.([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "ann@example.com", list[0].(map[string]interface{})["email"])

	employee := s.login(t, "ann@example.com", "secret2")
	rec, _ = s.do(t, "GET", "/api/employees", employee, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, "DELETE", "/api/employees?email=ann@example.com", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.sessions.actors, 1)

	rec, resp = s.do(t, "GET", "/api/employees", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Data)
}

func TestSignup_Validation(t *testing.T) {
	s := newServer(t, 100)

	rec, _ := s.do(t, "POST", "/api/auth/signup", "", credentialsRequest{Email: "not-an-email", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, "POST", "/api/auth/signup", "", credentialsRequest{Email: "a@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, "POST", "/api/auth/signup", "", credentialsRequest{Email: "a@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = s.do(t, "POST", "/api/auth/signup", "", credentialsRequest{Email: "a@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newServer(t, 100)
	s.do(t, "POST", "/api/auth/signup", "", credentialsRequest{Email: "boss@example.com", Password: "secret1"})

	rec, _ := s.do(t, "POST", "/api/auth/login", "", credentialsRequest{Email: "boss@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newServer(t, 100)
	s.do(t, "POST", "/api/auth/signup", "", credentialsRequest{Email: "boss@example.com", Password: "secret1"})
	token := s.login(t, "boss@example.com", "secret1")

	rec, _ := s.do(t, "POST", "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.sessions.actors, 1)

	rec, resp := s.do(t, "GET", "/api/employees", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been revoked", resp.Error)
}

func TestAuthMiddleware_RejectsMissingAndMalformed(t *testing.T) {
	s := newServer(t, 100)

	rec, _ := s.do(t, "GET", "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, "GET", "/api/employees", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newServer(t, 2)
	body := credentialsRequest{Email: "x@example.com", Password: "whatever"}

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, "POST", "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, _ := s.do(t, "POST", "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (cache.RateLimitResult, error) {
	return cache.RateLimitResult{}, assert.AnError
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	called := false
	h := RateLimitMiddleware(failingLimiter{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/login", nil))
	assert.True(t, called)
}
