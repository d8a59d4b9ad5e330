package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prmpt-academy/prmpt-api/internal/events"
)

// GET /api/admin/events?after=<seq>&limit=<n>
// Pages through the event log oldest first. Pass the returned "next" as
// "after" to continue.
func ListEventsHandler(rd events.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		after, limit := int64(0), 100
		if v := q.Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				writeDetail(w, http.StatusBadRequest, "after must be a non-negative integer")
				return
			}
			after = n
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, events.MaxPage)
		}

		evs, err := rd.Since(r.Context(), after, limit)
		if err != nil {
			slog.ErrorContext(r.Context(), "read event log", "err", err)
			writeDetail(w, http.StatusServiceUnavailable, "Event log unavailable")
			return
		}
		next := after
		if len(evs) > 0 {
			next = evs[len(evs)-1].Seq
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": evs, "next": next})
	}
}
