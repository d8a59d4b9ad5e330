package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prmpt-academy/prmpt-api/internal/rbac"
	"github.com/prmpt-academy/prmpt-api/internal/users"
)

func newService() *AuthService { return NewAuthService("test-secret", "authenticated", "") }

func TestIssueAndParse(t *testing.T) {
	a := newService()
	sub := uuid.NewString()
	tok, err := a.IssueJWT(sub, "ada@example.com", "admin")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, sub, c.Subject)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, "admin", c.AppMetadata.Role)
}

func TestParse_Rejects(t *testing.T) {
	a := newService()
	sign := func(secret string, claims jwt.Claims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func(sub string, exp time.Time, aud string) *Claims {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  jwt.ClaimStrings{aud},
			ExpiresAt: jwt.NewNumericDate(exp),
		}}
	}
	hour := time.Now().Add(time.Hour)

	cases := map[string]string{
		"wrong secret":  sign("other", valid(uuid.NewString(), hour, "authenticated"), jwt.SigningMethodHS256),
		"expired":       sign("test-secret", valid(uuid.NewString(), time.Now().Add(-time.Hour), "authenticated"), jwt.SigningMethodHS256),
		"wrong aud":     sign("test-secret", valid(uuid.NewString(), hour, "anon"), jwt.SigningMethodHS256),
		"non uuid sub":  sign("test-secret", valid("alice", hour, "authenticated"), jwt.SigningMethodHS256),
		"wrong alg":     sign("test-secret", valid(uuid.NewString(), hour, "authenticated"), jwt.SigningMethodHS512),
		"garbage":       "not.a.token",
		"no expiration": sign("test-secret", &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), Audience: jwt.ClaimStrings{"authenticated"}}}, jwt.SigningMethodHS256),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.Parse(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := newService()
	var gotID Identity
	var gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = IdentityFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())

	sub := uuid.NewString()
	tok, err := a.IssueJWT(sub, "x@example.com", "")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Identity{UserID: sub, Email: "x@example.com"}, gotID)
	assert.Equal(t, "", gotRole)
}

func TestLoginHandler(t *testing.T) {
	a := newService()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	h := LoginHandler(a, LoginConfig{AdminUser: "admin", AdminPassHash: string(hash)})

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"admin","password":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"root","password":"s3cret"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{`).Code)

	rec := post(`{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	c, err := a.Parse(out["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "admin", c.AppMetadata.Role)
	assert.Equal(t, LocalUserID("admin"), c.Subject)
}

func TestGuestLoginHandler_ReusesCookie(t *testing.T) {
	a := newService()
	h := GuestLoginHandler(a)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	first := cookies[0].Value

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, first, out["user_id"])
}

type fakeUsers struct {
	role string
	err  error
}

func (f fakeUsers) Ensure(_ context.Context, id, email string) (users.User, error) {
	return users.User{ID: id, Email: email, Role: f.role}, f.err
}

func TestAttachRole(t *testing.T) {
	tests := []struct {
		name     string
		store    fakeUsers
		claim    string
		fallback bool
		wantCode int
		wantRole string
	}{
		{"stored role wins", fakeUsers{role: "admin"}, "", false, http.StatusOK, "admin"},
		{"claim ignored in prod", fakeUsers{}, "admin", false, http.StatusOK, ""},
		{"claim used in dev", fakeUsers{}, "admin", true, http.StatusOK, "admin"},
		{"lookup failure", fakeUsers{err: errors.New("db down")}, "", true, http.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var role string
			h := AttachRole(tt.store, tt.fallback)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				role = rbac.RoleFromContext(r.Context())
			}))
			ctx := WithIdentity(context.Background(), Identity{UserID: uuid.NewString()})
			ctx = rbac.WithRole(ctx, tt.claim)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}
