package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/prmpt-academy/prmpt-api/internal/api/http"
	auth "github.com/prmpt-academy/prmpt-api/internal/auth/middleware"
	"github.com/prmpt-academy/prmpt-api/internal/credits"
	"github.com/prmpt-academy/prmpt-api/internal/db"
	"github.com/prmpt-academy/prmpt-api/internal/events"
	"github.com/prmpt-academy/prmpt-api/internal/judge"
	"github.com/prmpt-academy/prmpt-api/internal/lesson"
	"github.com/prmpt-academy/prmpt-api/internal/users"
)

type testServer struct {
	h       http.Handler
	auth    *auth.AuthService
	users   *users.SQLStore
	events  *events.EventRepo
	lessons *lesson.Service
}

func newServer(t *testing.T, allowClaimRole bool) *testServer {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	lessons := lesson.NewService(lesson.NewSQLStore(dbh, string(db.DriverSQLite)))
	drafts, err := lesson.LoadSeedFile("../../../lessons/seed.yaml")
	require.NoError(t, err)
	_, err = lesson.Seed(ctx, lessons, drafts)
	require.NoError(t, err)

	evs := events.NewEventRepo(dbh, "test")
	authSvc := auth.NewAuthService("test-secret", "authenticated", "")
	us := users.NewSQLStore(dbh)

	h := api.NewRouter(api.Deps{
		Auth:    authSvc,
		Lessons: lessons,
		Judge: judge.NewService(lessons,
			judge.WithPublisher(evs),
			judge.WithResilience(judge.ResilienceConfig{MaxAttempts: 1})),
		Ledger:          credits.NewLedger(credits.NewMemoryStore(), credits.DefaultBalance),
		Users:           us,
		Events:          evs,
		EventLog:        evs,
		Ready:           map[string]api.Pinger{"db": dbh},
		CORSOrigins:     []string{"http://localhost:3000"},
		RequestTimeout:  5 * time.Second,
		EnableLocalAuth: true,
		AllowClaimRole:  allowClaimRole,
	})
	return &testServer{h: h, auth: authSvc, users: us, events: evs, lessons: lessons}
}

func (s *testServer) token(t *testing.T, role string) (string, string) {
	t.Helper()
	sub := uuid.NewString()
	tok, err := s.auth.IssueJWT(sub, sub[:8]+"@example.com", role)
	require.NoError(t, err)
	return tok, sub
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHealth(t *testing.T) {
	s := newServer(t, false)
	for _, p := range []string{"/", "/health", "/healthz", "/readyz"} {
		rec, _ := s.do(t, http.MethodGet, p, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
	rec, _ := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLevels_PublicAndRedacted(t *testing.T) {
	s := newServer(t, false)

	rec, out := s.do(t, http.MethodGet, "/api/levels", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	levels := out["levels"].([]any)
	assert.EqualValues(t, len(levels), out["total"])
	assert.NotContains(t, rec.Body.String(), `"expected"`)
	assert.NotContains(t, rec.Body.String(), `"correct_order"`)

	rec, out = s.do(t, http.MethodGet, "/api/levels/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World!", out["title"])

	rec, out = s.do(t, http.MethodGet, "/api/levels/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Level not found", out["detail"])
}

func TestJudge(t *testing.T) {
	s := newServer(t, false)
	tok, sub := s.token(t, "")

	rec, _ := s.do(t, http.MethodPost, "/api/judge", "", map[string]any{"level_id": 1, "user_prompt": "Hello, World!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out := s.do(t, http.MethodPost, "/api/judge", tok, map[string]any{"level_id": 1, "user_prompt": "Hello, World!"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.EqualValues(t, 100, out["score"])
	assert.Equal(t, "Hello, World!", out["echoed_output"])

	rec, out = s.do(t, http.MethodPost, "/api/judge", tok, map[string]any{"level_id": 999, "user_prompt": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Level not found", out["detail"])

	evs, err := s.events.Since(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeSubmissionJudged, evs[0].Type)
	assert.Equal(t, sub, evs[0].Key)
}

func TestCredits(t *testing.T) {
	s := newServer(t, false)
	tok, sub := s.token(t, "")

	rec, out := s.do(t, http.MethodGet, "/api/user/credits", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 50, out["credits"])
	assert.Equal(t, sub, out["user_id"])

	_, out = s.do(t, http.MethodPost, "/api/user/credits/deduct", tok, map[string]int{"amount": 10})
	assert.EqualValues(t, 40, out["credits"])

	_, out = s.do(t, http.MethodPost, "/api/user/credits/deduct", tok, nil)
	assert.EqualValues(t, 39, out["credits"])

	rec, out = s.do(t, http.MethodPost, "/api/user/credits/deduct", tok, map[string]int{"amount": -3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out["detail"])

	_, out = s.do(t, http.MethodPost, "/api/user/credits/deduct", tok, map[string]int{"amount": 500})
	assert.EqualValues(t, 0, out["credits"])

	_, out = s.do(t, http.MethodPost, "/api/user/credits/initialize", tok, nil)
	assert.EqualValues(t, 0, out["credits"])

	other, _ := s.token(t, "")
	_, out = s.do(t, http.MethodPost, "/api/user/credits/initialize", other, nil)
	assert.EqualValues(t, 50, out["credits"])
}

func TestAdminLessons(t *testing.T) {
	s := newServer(t, true)
	admin, _ := s.token(t, "admin")
	learner, _ := s.token(t, "")

	rec, _ := s.do(t, http.MethodGet, "/api/admin/lessons", learner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out := s.do(t, http.MethodGet, "/api/admin/game-types", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["game_types"], 4)

	rec, out = s.do(t, http.MethodPost, "/api/admin/lessons", admin, map[string]any{
		"title":     "Order the steps",
		"game_type": "reorder",
		"config":    map[string]any{"items": []string{"a", "b"}, "correct_order": []int{1, 0}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := out["lesson"].(map[string]any)
	id := int(created["id"].(float64))
	assert.Equal(t, false, created["is_published"])
	path := "/api/admin/lessons/" + itoa(id)

	rec, out = s.do(t, http.MethodPost, "/api/admin/lessons", admin, map[string]any{
		"title":     "Broken",
		"game_type": "reorder",
		"config":    map[string]any{"items": []string{"a", "b"}, "correct_order": []int{0, 0}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out["detail"])

	rec, out = s.do(t, http.MethodPut, path, admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", out["detail"])

	rec, _ = s.do(t, http.MethodPut, path, admin, map[string]any{"is_published": true})
	require.Equal(t, http.StatusOK, rec.Code)

	// now visible to learners, with the answer stripped
	rec, _ = s.do(t, http.MethodGet, "/api/levels/"+itoa(id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correct_order")

	rec, out = s.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out["config"], "correct_order")

	rec, _ = s.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUsers(t *testing.T) {
	s := newServer(t, false)
	ctx := context.Background()

	admin, adminID := s.token(t, "admin")
	learner, learnerID := s.token(t, "")

	// claimed role is not trusted when claim fallback is off
	rec, _ := s.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, s.users.SetRole(ctx, adminID, "admin"))
	_, _ = s.do(t, http.MethodGet, "/api/user/credits", learner, nil)

	rec, out := s.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, out["total"])

	rec, _ = s.do(t, http.MethodPut, "/api/admin/users/"+learnerID+"/role", admin, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = s.do(t, http.MethodPut, "/api/admin/users/"+learnerID+"/role", admin, map[string]string{"role": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User role updated to 'user'", out["message"])

	rec, out = s.do(t, http.MethodDelete, "/api/admin/users/"+adminID, admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot delete yourself", out["detail"])

	rec, _ = s.do(t, http.MethodDelete, "/api/admin/users/"+learnerID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/admin/users/"+learnerID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func itoa(n int) string { return strconv.Itoa(n) }

func TestAdminEvents(t *testing.T) {
	s := newServer(t, true)
	admin, _ := s.token(t, "admin")
	learner, learnerID := s.token(t, "")

	for _, prompt := range []string{"Hello, World!", "nope"} {
		rec, _ := s.do(t, http.MethodPost, "/api/judge", learner, map[string]any{"level_id": 1, "user_prompt": prompt})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := s.do(t, http.MethodPost, "/api/user/credits/deduct", learner, map[string]int{"amount": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/events", learner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out := s.do(t, http.MethodGet, "/api/admin/events?limit=2", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := out["events"].([]any)
	require.Len(t, page, 2)
	first := page[0].(map[string]any)
	assert.Equal(t, events.TypeSubmissionJudged, first["type"])
	assert.Equal(t, learnerID, first["key"])

	rec, out = s.do(t, http.MethodGet, "/api/admin/events?after="+strconv.FormatFloat(out["next"].(float64), 'f', 0, 64), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = out["events"].([]any)
	require.Len(t, page, 1)
	assert.Equal(t, events.TypeCreditsDeducted, page[0].(map[string]any)["type"])

	rec, out = s.do(t, http.MethodGet, "/api/admin/events?after="+strconv.FormatFloat(out["next"].(float64), 'f', 0, 64), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, out["events"])

	rec, _ = s.do(t, http.MethodGet, "/api/admin/events?limit=zero", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
