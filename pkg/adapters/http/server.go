package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/pitstop/internal/logging"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
	"github.com/aretw0/pitstop/pkg/policy"
	"github.com/aretw0/pitstop/pkg/ports"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Engine is the part of the pitstop engine served over HTTP.
type Engine interface {
	Run(ctx context.Context) (*domain.State, *domain.Failure)
	RunVehicle(ctx context.Context, vehicleID string) (*domain.State, *domain.Failure)
	Graph() *graph.Graph
	Policy() *policy.Policy
}

// RunRequest is the optional body of POST /runs.
type RunRequest struct {
	VehicleID string `json:"vehicle_id,omitempty"`
}

// FailureView describes a failed run.
type FailureView struct {
	Node          string           `json:"node"`
	Kind          domain.ErrorKind `json:"kind"`
	Error         string           `json:"error"`
	Configuration bool             `json:"configuration"`
}

// RunResponse is the body answered to POST /runs.
type RunResponse struct {
	State   *domain.State `json:"state"`
	Failure *FailureView  `json:"failure,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the pitstop API.
type Server struct {
	engine  Engine
	version string
	archive ports.RunArchive
	streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithArchive serves archived runs from archive.
func WithArchive(archive ports.RunArchive) Option {
	return func(s *Server) {
		s.archive = archive
	}
}

// WithStreams serves the lifecycle events published by streams.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.streams = streams
	}
}

// WithMetricsHandler mounts handler on /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an API server for engine.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		version: version,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/graph", s.graph)
	r.Get("/policy", s.policy)
	r.Post("/runs", s.startRun)
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{run_id}", s.getRun)
	r.Get("/events", s.events)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return otelhttp.NewHandler(enableCORS(r), "pitstop.api")
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "pitstop-api",
		"version": s.version,
	})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Graph().View())
}

func (s *Server) policy(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Policy().Table())
}

// startRun handles POST /runs. A completed run answers 200, a run halted by
// its data 422 and a run halted by a wiring defect 500. The body carries the
// final state in every case.
func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("startRun: invalid request body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var (
		st      *domain.State
		failure *domain.Failure
	)
	if body.VehicleID != "" {
		st, failure = s.engine.RunVehicle(r.Context(), body.VehicleID)
	} else {
		st, failure = s.engine.Run(r.Context())
	}

	resp := RunResponse{State: st}
	code := http.StatusOK
	if failure != nil {
		resp.Failure = &FailureView{
			Node:          failure.Node,
			Kind:          failure.Kind,
			Error:         failure.Error(),
			Configuration: failure.Configuration(),
		}
		code = http.StatusUnprocessableEntity
		if failure.Configuration() {
			code = http.StatusInternalServerError
		}
		s.logger.Warn("run failed", "run_id", failure.RunID, "node", failure.Node, "kind", failure.Kind)
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "run archive is disabled"})
		return
	}
	ids, err := s.archive.List(r.Context())
	if err != nil {
		s.logger.Error("list runs failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "run archive is disabled"})
		return
	}
	runID := chi.URLParam(r, "run_id")
	st, err := s.archive.Load(r.Context(), runID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("load run failed", "run_id", runID, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		s.writeJSON(w, http.StatusOK, st)
	}
}

// events streams lifecycle events as server-sent events until the client
// disconnects.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}

	runID := r.URL.Query().Get("run_id")
	ch, cancel := s.streams.Subscribe(runID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: client subscribed", "run_id", runID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}
