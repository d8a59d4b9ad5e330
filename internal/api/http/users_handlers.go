package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/prmpt-academy/prmpt-api/internal/auth/middleware"
	"github.com/prmpt-academy/prmpt-api/internal/users"
)

// GET /api/admin/users
func ListUsersHandler(store users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			userError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": list, "total": len(list)})
	}
}

// PUT /api/admin/users/{userID}/role  { "role": "admin" | "" }
func UpdateUserRoleHandler(store users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		var req struct {
			Role string `json:"role"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
			return
		}
		if err := store.SetRole(r.Context(), id, req.Role); err != nil {
			userError(w, r, err)
			return
		}
		shown := req.Role
		if shown == "" {
			shown = "user"
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("User role updated to '%s'", shown),
			"user_id": id,
		})
	}
}

// DELETE /api/admin/users/{userID}
func DeleteUserHandler(store users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "userID")
		if id == auth.SubjectFromContext(r.Context()) {
			writeDetail(w, http.StatusBadRequest, "Cannot delete yourself")
			return
		}
		if err := store.Delete(r.Context(), id); err != nil {
			userError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
	}
}

func userError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, users.ErrInvalidRole):
		writeDetail(w, http.StatusBadRequest, `Role must be "admin" or empty`)
	default:
		slog.ErrorContext(r.Context(), "user store", "err", err)
		writeDetail(w, http.StatusServiceUnavailable, "User directory unavailable")
	}
}
