package http

import (
	"errors"
	"log/slog"
	"net/http"

	auth "github.com/prmpt-academy/prmpt-api/internal/auth/middleware"
	"github.com/prmpt-academy/prmpt-api/internal/credits"
	"github.com/prmpt-academy/prmpt-api/internal/events"
	"github.com/prmpt-academy/prmpt-api/internal/metrics"
)

type creditsOut struct {
	Credits int    `json:"credits"`
	UserID  string `json:"user_id"`
}

// GET /api/user/credits
func GetCreditsHandler(l *credits.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		bal, err := l.Balance(r.Context(), user)
		if err != nil {
			ledgerUnavailable(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, creditsOut{Credits: bal, UserID: user})
	}
}

// POST /api/user/credits/deduct  { "amount": 1 }
func DeductCreditsHandler(l *credits.Ledger, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Amount int `json:"amount"`
		}{Amount: 1}
		if err := decodeJSON(r, &req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
			return
		}
		user := auth.SubjectFromContext(r.Context())
		bal, err := l.Deduct(r.Context(), user, req.Amount)
		if errors.Is(err, credits.ErrInvalidAmount) {
			writeDetail(w, http.StatusBadRequest, "Amount must not be negative")
			return
		}
		if err != nil {
			ledgerUnavailable(w, r, err)
			return
		}
		metrics.CreditsDeducted.Add(float64(req.Amount))

		e, err := events.New(events.TypeCreditsDeducted, user, events.CreditsDeducted{
			UserID: user, Amount: req.Amount, Balance: bal,
		})
		if err == nil {
			err = pub.Publish(r.Context(), e)
		}
		if err != nil {
			slog.WarnContext(r.Context(), "publish deduct event", "user_id", user, "err", err)
		}
		writeJSON(w, http.StatusOK, creditsOut{Credits: bal, UserID: user})
	}
}

// POST /api/user/credits/initialize
func InitializeCreditsHandler(l *credits.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.SubjectFromContext(r.Context())
		bal, err := l.Initialize(r.Context(), user)
		if err != nil {
			ledgerUnavailable(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, creditsOut{Credits: bal, UserID: user})
	}
}

func ledgerUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "credit ledger", "err", err)
	writeDetail(w, http.StatusServiceUnavailable, "Credit ledger unavailable")
}
