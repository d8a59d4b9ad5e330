package http

import (
	"errors"
	"net/http"

	auth "github.com/prmpt-academy/prmpt-api/internal/auth/middleware"
	"github.com/prmpt-academy/prmpt-api/internal/judge"
)

// POST /api/judge
func JudgeHandler(svc *judge.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req judge.Request
		if err := decodeJSON(r, &req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
			return
		}
		resp, err := svc.Judge(r.Context(), auth.SubjectFromContext(r.Context()), req)
		switch {
		case errors.Is(err, judge.ErrNotFound):
			writeDetail(w, http.StatusNotFound, "Level not found")
		case err != nil:
			writeDetail(w, http.StatusServiceUnavailable, "Lesson store unavailable, try again shortly")
		default:
			writeJSON(w, http.StatusOK, resp)
		}
	}
}
