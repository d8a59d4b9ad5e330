package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const guestCookie = "prmpt_guest_id"

// POST /auth/guest
// Issues a learner token. The guest id is kept in a cookie so a browser
// keeps its credits across sessions.
func GuestLoginHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := ""
		if c, err := r.Cookie(guestCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sub = id.String()
			}
		}
		if sub == "" {
			sub = uuid.NewString()
		}

		tok, err := a.IssueJWT(sub, "", "")
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "Could not issue token")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    sub,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		writeToken(w, tok, sub)
	}
}
