package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeAllocated = "allocated"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"

	RoundOK           = "ok"
	RoundInsufficient = "insufficient"
	RoundFailed       = "failed"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	RoundsTotal         *prometheus.CounterVec
	PairingsTotal       prometheus.Counter
	UnmatchedTotal      prometheus.Counter
	RosterIDAllocations *prometheus.CounterVec
	RostersDeleted      prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them through promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RoundsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatmatch_rounds_total",
				Help: "Pairing rounds requested, by outcome",
			},
			[]string{"outcome"},
		),
		PairingsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmatch_pairings_total",
			Help: "Pairs produced across all rounds",
		}),
		UnmatchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmatch_unmatched_participants_total",
			Help: "Participants left without a partner after a round",
		}),
		RosterIDAllocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatmatch_roster_id_allocations_total",
				Help: "Roster id allocation attempts, by outcome",
			},
			[]string{"outcome"},
		),
		RostersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "chatmatch_rosters_deleted_total",
			Help: "Rosters removed together with their events",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatmatch_http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatmatch_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Metrics) ObserveRound(pairs, unmatched int) {
	if m == nil {
		return
	}
	m.RoundsTotal.WithLabelValues(RoundOK).Inc()
	m.PairingsTotal.Add(float64(pairs))
	m.UnmatchedTotal.Add(float64(unmatched))
}

func (m *Metrics) RoundRejected(outcome string) {
	if m == nil {
		return
	}
	m.RoundsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Allocation(outcome string) {
	if m == nil {
		return
	}
	m.RosterIDAllocations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RosterDeleted() {
	if m == nil {
		return
	}
	m.RostersDeleted.Inc()
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so /rosters/ABCD and /rosters/WXYZ share one series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
