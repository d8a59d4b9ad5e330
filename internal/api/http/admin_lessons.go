package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prmpt-academy/prmpt-api/internal/lesson"
)

// GET /api/admin/lessons
// Every lesson, published or not, with full config.
func AdminListLessonsHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, err := svc.List(r.Context(), lesson.ListOpts{})
		if err != nil {
			lessonError(w, r, err)
			return
		}
		if ls == nil {
			ls = []lesson.Lesson{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"lessons": ls, "total": len(ls)})
	}
}

// POST /api/admin/lessons
func AdminCreateLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d lesson.Draft
		if err := decodeJSON(r, &d); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
			return
		}
		l, err := svc.Create(r.Context(), d)
		if err != nil {
			lessonError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"lesson": l, "message": "Lesson created successfully"})
	}
}

// GET /api/admin/lessons/{lessonID}
func AdminGetLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(r, "lessonID")
		if !ok {
			writeDetail(w, http.StatusNotFound, "Lesson not found")
			return
		}
		l, err := svc.Get(r.Context(), id)
		if err != nil {
			lessonError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// PUT /api/admin/lessons/{lessonID}
func AdminUpdateLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(r, "lessonID")
		if !ok {
			writeDetail(w, http.StatusNotFound, "Lesson not found")
			return
		}
		var p lesson.Patch
		if err := decodeJSON(r, &p); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
			return
		}
		l, err := svc.Update(r.Context(), id, p)
		if err != nil {
			lessonError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lesson": l, "message": "Lesson updated successfully"})
	}
}

// DELETE /api/admin/lessons/{lessonID}
func AdminDeleteLessonHandler(svc *lesson.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(r, "lessonID")
		if !ok {
			writeDetail(w, http.StatusNotFound, "Lesson not found")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			lessonError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Lesson deleted successfully"})
	}
}

// GET /api/admin/game-types
func GameTypesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"game_types": lesson.Catalogue})
	}
}

func lessonError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lesson.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Lesson not found")
	case errors.Is(err, lesson.ErrNoChanges):
		writeDetail(w, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, lesson.ErrInvalidConfig), errors.Is(err, lesson.ErrUnknownGameType):
		writeDetail(w, http.StatusBadRequest, capitalize(err.Error()))
	default:
		slog.ErrorContext(r.Context(), "lesson store", "err", err)
		writeDetail(w, http.StatusServiceUnavailable, "Lesson store unavailable")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
