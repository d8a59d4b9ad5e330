package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/prmpt-academy/prmpt-api/internal/rbac"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthService verifies and issues HS256 access tokens in the shape used by
// Supabase: sub is the user uuid, the app role lives in app_metadata.
type AuthService struct {
	hmac     []byte
	audience string
	issuer   string
	ttl      time.Duration
}

func NewAuthService(secret, audience, issuer string) *AuthService {
	return &AuthService{hmac: []byte(secret), audience: audience, issuer: issuer, ttl: 8 * time.Hour}
}

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

type Claims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"` // database role, e.g. "authenticated"
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, email, appRole string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:       email,
		Role:        "authenticated",
		AppMetadata: AppMetadata{Role: appRole},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(c.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}
	return c, nil
}

// JWTMiddleware requires a bearer token and puts the caller's identity and
// claimed role into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := WithIdentity(r.Context(), Identity{UserID: c.Subject, Email: c.Email})
			ctx = rbac.WithRole(ctx, c.AppMetadata.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocalUserID derives a stable uuid for a local account name.
func LocalUserID(username string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("prmpt:local:"+username)).String()
}

type LoginConfig struct {
	AdminUser     string
	AdminPassHash string // bcrypt
}

// POST /auth/login  { "username": "...", "password": "..." }
// Only the configured admin account can log in here; learners use /auth/guest.
func LoginHandler(a *AuthService, cfg LoginConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if cfg.AdminPassHash == "" || req.Username != cfg.AdminUser ||
			bcrypt.CompareHashAndPassword([]byte(cfg.AdminPassHash), []byte(req.Password)) != nil {
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		sub := LocalUserID(req.Username)
		tok, err := a.IssueJWT(sub, req.Username+"@localhost", rbac.RoleAdmin)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not issue token")
			return
		}
		writeToken(w, tok, sub)
	}
}

func writeToken(w http.ResponseWriter, tok, sub string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token": tok,
		"token_type":   "bearer",
		"user_id":      sub,
	})
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
