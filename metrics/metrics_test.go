package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRound(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRound(2, 1)
	m.ObserveRound(1, 0)
	m.RoundRejected(RoundInsufficient)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoundsTotal.WithLabelValues(RoundOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoundsTotal.WithLabelValues(RoundInsufficient)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PairingsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnmatchedTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRound(1, 1)
		m.RoundRejected(RoundFailed)
		m.Allocation(OutcomeExhausted)
		m.RosterDeleted()
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(h))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/rosters/{rosterID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"ABCD", "WXYZ"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rosters/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/rosters/{rosterID}", "404")))
}
