package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Judged submissions by game type and outcome (pass/partial/fail)
	Verdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prmpt_judge_verdicts_total",
			Help: "Judged submissions by game type and outcome",
		},
		[]string{"game_type", "outcome"},
	)

	JudgeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prmpt_judge_duration_seconds",
			Help:    "Time spent judging a submission, lesson lookup included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"game_type"},
	)

	LessonLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prmpt_lesson_lookup_failures_total",
			Help: "Lesson lookups that failed with an upstream error",
		},
	)

	CreditsDeducted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prmpt_credits_deducted_total",
			Help: "Credits deducted across all users",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prmpt_http_requests_total",
			Help: "HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prmpt_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Outcome buckets a verdict for the Verdicts counter.
func Outcome(success bool, score int) string {
	switch {
	case success:
		return "pass"
	case score > 0:
		return "partial"
	default:
		return "fail"
	}
}

func Handler() http.Handler { return promhttp.Handler() }

// Middleware records request counts and latency keyed by chi route pattern,
// so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
