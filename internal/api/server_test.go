package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"morapack/internal/metrics"
	"morapack/internal/opt"
	"morapack/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	metrics.RegisterDefault()
	mem := store.NewMemory()
	return NewServer(mem, NewBroker(), zaptest.NewLogger(t)), mem
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthReady(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/readyz").Code)
}

func TestRunByID(t *testing.T) {
	s, mem := newTestServer(t)
	h := s.Routes()
	id := uuid.NewString()
	require.NoError(t, mem.SaveReport(t.Context(), &opt.Report{RunID: id, Dataset: "jan", Assigned: 7}))

	rr := get(t, h, "/v1/runs/"+id)
	require.Equal(t, http.StatusOK, rr.Code)
	var rep opt.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	assert.Equal(t, 7, rep.Assigned)

	rr = get(t, h, "/v1/runs/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/runs/nope").Code)
}

func TestRunsList(t *testing.T) {
	s, mem := newTestServer(t)
	h := s.Routes()
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, ds := range []string{"jan", "jan", "feb"} {
		require.NoError(t, mem.SaveReport(t.Context(), &opt.Report{RunID: uuid.NewString(), Dataset: ds, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	rr := get(t, h, "/v1/runs?dataset=jan")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Items []store.ReportSummary `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Items, 2)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/runs?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/runs?limit=x").Code)
}

func TestPlanMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()
	opt.RecordMetrics("api-test", "run-1", opt.Metrics{
		Iterations: 12,
		Snapshots:  []opt.WeightSnapshot{{Iteration: 10}},
	})

	var body struct {
		Items []struct {
			RunID      string               `json:"runId"`
			Iterations int                  `json:"iterations"`
			Snapshots  []opt.WeightSnapshot `json:"snapshots"`
		} `json:"items"`
	}
	rr := get(t, h, "/v1/admin/plan-metrics?dataset=api-test")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "run-1", body.Items[0].RunID)
	assert.Equal(t, 12, body.Items[0].Iterations)
	assert.Empty(t, body.Items[0].Snapshots)

	rr = get(t, h, "/v1/admin/plan-metrics?dataset=api-test&includeWeights=true")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Items[0].Snapshots, 1)

	rr = get(t, h, "/v1/admin/plan-metrics")
	assert.Contains(t, rr.Body.String(), "api-test")
}

func TestMetricsAndDebugEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()
	get(t, h, "/healthz")

	rr := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `http_requests_total{method="GET",path="GET /healthz",status="200"}`)

	rr = get(t, h, "/v1/admin/debug")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"store":"memory"`)
}

func dial(t *testing.T, srv *httptest.Server, runID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/runs/" + runID + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) (string, Event) {
	t.Helper()
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	var evt Event
	if len(msg.Payload) > 0 {
		require.NoError(t, json.Unmarshal(msg.Payload, &evt))
	}
	return msg.Type, evt
}

func TestRunStream(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	runID := uuid.NewString()
	conn := dial(t, srv, runID)
	typ, _ := readMsg(t, conn)
	require.Equal(t, "ack", typ)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "ping"}))
	typ, _ = readMsg(t, conn)
	assert.Equal(t, "pong", typ)

	feed := NewProgressFeed(s.Broker, runID, time.Millisecond)
	feed.Observe(opt.Progress{Iteration: 4, Outcome: opt.OutcomeBest, Best: 10})
	typ, evt := readMsg(t, conn)
	assert.Equal(t, "next", typ)
	assert.Equal(t, 4, evt.Progress.Iteration)

	feed.Complete(&opt.Report{RunID: runID, Assigned: 1})
	typ, evt = readMsg(t, conn)
	assert.Equal(t, "complete", typ)
	assert.Equal(t, EventCompleted, evt.Type)
	assert.Equal(t, 1, evt.Summary.Assigned)
}

func TestRunStreamOfFinishedRun(t *testing.T) {
	s, mem := newTestServer(t)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	runID := uuid.NewString()
	require.NoError(t, mem.SaveReport(t.Context(), &opt.Report{RunID: runID, Unassigned: 2}))
	conn := dial(t, srv, runID)
	typ, evt := readMsg(t, conn)
	assert.Equal(t, "complete", typ)
	assert.Equal(t, 2, evt.Summary.Unassigned)
}
