package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prmpt-academy/prmpt-api/internal/lesson"
)

// GET /api/levels
// Published lessons only, with answer fields removed.
func ListLevelsHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, err := svc.List(r.Context(), lesson.ListOpts{PublishedOnly: true})
		if err != nil {
			slog.ErrorContext(r.Context(), "list levels", "err", err)
			writeDetail(w, http.StatusServiceUnavailable, "Lesson store unavailable")
			return
		}
		out := make([]lesson.Lesson, 0, len(ls))
		for _, l := range ls {
			out = append(out, l.Public())
		}
		writeJSON(w, http.StatusOK, map[string]any{"levels": out, "total": len(out)})
	}
}

// GET /api/levels/{levelID}
func GetLevelHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(r, "levelID")
		if !ok {
			writeDetail(w, http.StatusNotFound, "Level not found")
			return
		}
		l, err := svc.GetPublished(r.Context(), id)
		switch {
		case errors.Is(err, lesson.ErrNotFound):
			writeDetail(w, http.StatusNotFound, "Level not found")
		case err != nil:
			slog.ErrorContext(r.Context(), "get level", "level_id", id, "err", err)
			writeDetail(w, http.StatusServiceUnavailable, "Lesson store unavailable")
		default:
			writeJSON(w, http.StatusOK, l.Public())
		}
	}
}
