package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/pitstop"
	"github.com/aretw0/pitstop/internal/agents"
	api "github.com/aretw0/pitstop/pkg/adapters/http"
	"github.com/aretw0/pitstop/pkg/adapters/heuristic"
	"github.com/aretw0/pitstop/pkg/adapters/memory"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
	"github.com/aretw0/pitstop/pkg/persistence"
	"github.com/aretw0/pitstop/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fleetData() domain.FleetData {
	data := ports.ContractFleet()
	data.Telemetry = []domain.TelemetryRecord{
		{VehicleID: "veh_001", BrakeFluidPressurePSI: 551.2},
		{VehicleID: "veh_007", BrakeFluidPressurePSI: 304.5},
		{VehicleID: "veh_009", BrakeFluidPressurePSI: 402.0},
	}
	return data
}

type fixture struct {
	server  *httptest.Server
	archive *persistence.Archive
}

func newFixture(t *testing.T, withArchive bool) *fixture {
	t.Helper()
	fleet := memory.NewFleet(fleetData())
	streams := api.NewStreamManager(nil)

	var ids atomic.Int64
	opts := []pitstop.Option{
		pitstop.WithLifecycleHooks(streams.Hooks()),
		pitstop.WithRunIDs(func() string { return fmt.Sprintf("run-%d", ids.Add(1)) }),
	}
	f := &fixture{}
	serverOpts := []api.Option{api.WithStreams(streams)}
	if withArchive {
		f.archive = persistence.NewArchive(persistence.NewMemoryStore())
		opts = append(opts, pitstop.WithArchive(f.archive))
		serverOpts = append(serverOpts, api.WithArchive(f.archive))
	}

	eng, err := pitstop.New(ports.Collaborators{
		Telemetry:  fleet,
		Classifier: heuristic.NewClassifier(agents.AnomalyThresholdPSI),
		Composer:   heuristic.MustComposer(""),
		Scheduler:  memory.NewScheduler(),
		Profiles:   fleet,
	}, opts...)
	require.NoError(t, err)

	f.server = httptest.NewServer(api.NewServer(eng, "1.2.3", serverOpts...).Handler())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp.StatusCode, raw
}

func TestServer_Inspection(t *testing.T) {
	f := newFixture(t, false)

	code, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	_, body = f.do(t, http.MethodGet, "/info", "")
	assert.JSONEq(t, `{"app":"pitstop-api","version":"1.2.3"}`, string(body))

	_, body = f.do(t, http.MethodGet, "/graph", "")
	var view graph.View
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, agents.NodeDataAnalysis, view.Entry)
	assert.Len(t, view.Nodes, 6)
	assert.Len(t, view.Edges, 5)

	_, body = f.do(t, http.MethodGet, "/policy", "")
	var table map[domain.Role][]domain.Capability
	require.NoError(t, json.Unmarshal(body, &table))
	assert.Contains(t, table[domain.RoleScheduling], domain.CapBookAppointment)
}

func TestServer_StartRun(t *testing.T) {
	f := newFixture(t, false)

	code, body := f.do(t, http.MethodPost, "/runs", "")
	require.Equal(t, http.StatusOK, code, string(body))
	var resp api.RunResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Nil(t, resp.Failure)
	assert.Equal(t, "veh_007", resp.State.VehicleID)
	assert.Equal(t, domain.StatusCompleted, resp.State.Status)

	code, body = f.do(t, http.MethodPost, "/runs", `{"vehicle_id":"veh_009"}`)
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "Meera", resp.State.CustomerName)

	code, body = f.do(t, http.MethodPost, "/runs", `{"vehicle_id":"veh_001"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	resp = api.RunResponse{}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Failure)
	assert.Equal(t, agents.NodeDataAnalysis, resp.Failure.Node)
	assert.False(t, resp.Failure.Configuration)

	code, _ = f.do(t, http.MethodPost, "/runs", `{"vehicle_id":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_Archive(t *testing.T) {
	f := newFixture(t, true)

	code, _ := f.do(t, http.MethodPost, "/runs", "")
	require.Equal(t, http.StatusOK, code)

	code, body := f.do(t, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"runs":["run-1"]}`, string(body))

	code, body = f.do(t, http.MethodGet, "/runs/run-1", "")
	assert.Equal(t, http.StatusOK, code)
	var st domain.State
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "veh_007", st.VehicleID)

	code, _ = f.do(t, http.MethodGet, "/runs/run-9", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_ArchiveDisabled(t *testing.T) {
	f := newFixture(t, false)

	code, _ := f.do(t, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusNotImplemented, code)
}

func TestServer_Events(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/events?run_id=run-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		require.True(t, lines.Scan(), "stream ended early")
		return lines.Text()
	}
	require.Equal(t, "event: ping", next())

	go func() {
		r, err := http.Post(f.server.URL+"/runs", "application/json", nil)
		if err == nil {
			r.Body.Close()
		}
	}()

	var events []string
	for {
		line := next()
		if !strings.HasPrefix(line, "event: ") {
			continue
		}
		events = append(events, strings.TrimPrefix(line, "event: "))
		if line == "event: run_end" {
			break
		}
	}
	assert.Equal(t, string(domain.EventNodeEnter), events[0])
	assert.Contains(t, events, string(domain.EventRoute))
	assert.Len(t, events, 5*2+4+1, "enter and leave per node, one route per transition, one run end")
}

func TestStreamManager_RunEndCarriesError(t *testing.T) {
	sm := api.NewStreamManager(nil)
	ch, unsubscribe := sm.Subscribe("run-1")
	defer unsubscribe()

	failure := domain.NewFailure("run-1", agents.NodeScheduling,
		&domain.PolicyViolation{Role: domain.RoleScheduling, Capability: domain.CapBookAppointment})
	sm.Hooks().OnRunEnd(context.Background(), &domain.RunEvent{
		EventBase: domain.EventBase{Type: domain.EventRunEnd, RunID: "run-1"},
		Status:    domain.StatusFailed,
		Failure:   failure,
	})

	msg := <-ch
	assert.Equal(t, string(domain.EventRunEnd), msg.Event)
	var ev struct {
		Failure struct {
			Kind  string `json:"kind"`
			Error string `json:"error"`
		} `json:"failure"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Data), &ev))
	assert.Equal(t, string(domain.KindPolicyViolation), ev.Failure.Kind)
	assert.Equal(t, "unauthorized access attempt by SchedulingAgent on tool book_appointment", ev.Failure.Error)
}
