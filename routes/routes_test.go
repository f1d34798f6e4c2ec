package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/chatmatch/handlers"
	"github.com/Dosada05/chatmatch/metrics"
	"github.com/Dosada05/chatmatch/models"
	"github.com/Dosada05/chatmatch/pairing"
	"github.com/Dosada05/chatmatch/repositories"
	"github.com/Dosada05/chatmatch/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	hub := pairing.NewHub(logger)
	go hub.Run(ctx)

	rosterService := services.NewRosterService(store.Rosters(), store.Events(), nil, nil, hub, m, logger, 0)
	eventService := services.NewEventService(store.Rosters(), store.Events(), nil, hub, m, logger)

	router := chi.NewRouter()
	SetupRoutes(router,
		handlers.NewRosterHandler(rosterService),
		handlers.NewEventHandler(eventService),
		handlers.NewWebSocketHandler(hub, rosterService, nil),
		handlers.NewHealthHandler(nil),
		Options{Metrics: m, MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRosterLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/rosters", `{"names": "Alice,Bob,Carol,Dave"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roster := decode[models.Roster](t, body["roster"])
	require.Len(t, roster.Nodes, 4)

	resp, body = do(t, srv, http.MethodPost, "/rosters/"+roster.ID+"/events", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decode[models.Event](t, body["event"])
	assert.Len(t, event.Edges, 2)

	resp, body = do(t, srv, http.MethodGet, "/rosters/"+roster.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{event.EventID}, decode[[]string](t, decode[map[string]json.RawMessage](t, body["roster"])["events"]))
	assert.Len(t, decode[[]models.Event](t, body["rounds"]), 1)

	resp, body = do(t, srv, http.MethodGet, "/events/"+event.EventID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, event.EventID, decode[models.Event](t, body["event"]).EventID)

	resp, body = do(t, srv, http.MethodGet, "/events?roster_id="+roster.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Event](t, body["events"]), 1)

	resp, _ = do(t, srv, http.MethodGet, "/events?event_id="+event.EventID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/rosters", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Roster](t, body["rosters"]), 1)

	resp, _ = do(t, srv, http.MethodDelete, "/rosters/"+roster.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/rosters/"+roster.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/events/"+event.EventID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQueryForms(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/rosters", `{"names": ["Alice", "Bob"]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	roster := decode[models.Roster](t, body["roster"])

	resp, body = do(t, srv, http.MethodPost, "/events?roster_id="+roster.ID, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decode[models.Event](t, body["event"])

	resp, body = do(t, srv, http.MethodGet, "/rosters?roster_id="+roster.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, roster.ID, decode[models.Roster](t, body["roster"]).ID)
	rounds := decode[[]models.Event](t, body["rounds"])
	require.Len(t, rounds, 1)
	assert.Equal(t, event.EventID, rounds[0].EventID)

	resp, body = do(t, srv, http.MethodGet, "/rosters?roster_id=abcd", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Roster](t, body["rosters"]), 1, "malformed id falls back to the list")

	resp, _ = do(t, srv, http.MethodGet, "/rosters?roster_id=ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/rosters", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodPost, "/events", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodDelete, "/rosters?roster_id="+roster.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, roster.ID, decode[string](t, body["deleted"]))

	resp, _ = do(t, srv, http.MethodDelete, "/rosters?roster_id="+roster.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	_, body := do(t, srv, http.MethodPost, "/rosters", `{"names": ["Solo"]}`)
	solo := decode[models.Roster](t, body["roster"])

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"no valid names", http.MethodPost, "/rosters", `{"names": "!!,  ,"}`, http.StatusBadRequest},
		{"missing names", http.MethodPost, "/rosters", `{}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/rosters", `{"names": [1]}`, http.StatusBadRequest},
		{"invalid roster id", http.MethodGet, "/rosters/abcd", "", http.StatusBadRequest},
		{"unknown roster", http.MethodGet, "/rosters/QQQQ", "", http.StatusNotFound},
		{"delete unknown roster", http.MethodDelete, "/rosters/QQQQ", "", http.StatusNotFound},
		{"round for unknown roster", http.MethodPost, "/rosters/QQQQ/events", "", http.StatusNotFound},
		{"round with one participant", http.MethodPost, "/rosters/" + solo.ID + "/events", "", http.StatusUnprocessableEntity},
		{"invalid event id", http.MethodGet, "/events/xyz", "", http.StatusBadRequest},
		{"unknown event", http.MethodGet, "/events/3f1c2b9e-8d4a-4c6b-9e2f-1a2b3c4d5e6f", "", http.StatusNotFound},
		{"query with both ids", http.MethodGet, "/events?roster_id=ABCD&event_id=x", "", http.StatusBadRequest},
		{"query with neither id", http.MethodGet, "/events", "", http.StatusBadRequest},
		{"empty event list", http.MethodGet, "/rosters/" + solo.ID + "/events", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want >= 400 {
				assert.Contains(t, body, "error")
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[string](t, body["status"]))

	do(t, srv, http.MethodPost, "/rosters", `{"names": "Alice,Bob"}`)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "chatmatch_roster_id_allocations_total")
	assert.Contains(t, string(raw), "chatmatch_http_requests_total")
}

func TestWebSocketReceivesRoundUpdates(t *testing.T) {
	srv := newTestServer(t)
	_, body := do(t, srv, http.MethodPost, "/rosters", `{"names": "Alice,Bob"}`)
	roster := decode[models.Roster](t, body["roster"])

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rosters/" + roster.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration happens asynchronously in the hub loop.
	time.Sleep(100 * time.Millisecond)

	resp, _ := do(t, srv, http.MethodPost, "/rosters/"+roster.ID+"/events", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope pairing.WebSocketMessage
	require.NoError(t, json.Unmarshal(msg, &envelope))
	assert.Equal(t, pairing.MessageEventCreated, envelope.Type)
	assert.Equal(t, pairing.RoomForRoster(roster.ID), envelope.RoomID)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/rosters/QQQQ", nil)
	assert.Error(t, err)
}
