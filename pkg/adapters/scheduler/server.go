// Package scheduler talks to the service-center booking API and provides a
// mock of that API for demos and tests.
package scheduler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/pitstop/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Routes of the booking API.
const (
	PathSlots          = "/scheduler/get_slots"
	PathBook           = "/scheduler/book_slot"
	PathPaymentHistory = "/customer/get_payment_history/{customer_id}"
	PathMetrics        = "/metrics"
)

// BookRequest is the body of a booking call.
type BookRequest struct {
	VehicleID string `json:"vehicle_id"`
	Slot      string `json:"slot"`
}

// SlotsResponse is the body answered to a slot listing.
type SlotsResponse struct {
	Slots []string `json:"slots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the booking API on top of a SchedulingBackend.
type Server struct {
	backend  ports.SchedulingBackend
	logger   *slog.Logger
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	refusals prometheus.Counter
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry registers the server metrics on registry instead of a private one.
func WithRegistry(registry *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.registry = registry
	}
}

// NewServer creates a booking API server.
func NewServer(backend ports.SchedulingBackend, opts ...ServerOption) *Server {
	s := &Server{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitstop_scheduler_requests_total",
				Help: "Total number of booking API requests by route and status code",
			},
			[]string{"route", "code"},
		),
		refusals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitstop_scheduler_payment_refusals_total",
			Help: "Total number of refused payment history requests",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.registry.MustRegister(s.requests, s.refusals)
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.root)
	r.Get(PathSlots, s.slots)
	r.Post(PathBook, s.book)
	r.Get(PathPaymentHistory, s.paymentHistory)
	r.Handle(PathMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return otelhttp.NewHandler(enableCORS(r), "pitstop.scheduler")
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

func (s *Server) writeJSON(w http.ResponseWriter, route string, code int, body any) {
	s.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "route", route, "err", err)
	}
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "/", http.StatusOK, map[string]string{"message": "Mock scheduling API is running."})
}

// slots handles GET /scheduler/get_slots. The optional service_date query
// must be a YYYY-MM-DD date; the backend offers the same slots every day.
func (s *Server) slots(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("service_date"); date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			s.writeJSON(w, PathSlots, http.StatusBadRequest, errorResponse{Error: "service_date must be YYYY-MM-DD"})
			return
		}
	}

	slots, err := s.backend.ListSlots(r.Context())
	if err != nil {
		s.logger.Error("list slots failed", "err", err)
		s.writeJSON(w, PathSlots, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("slots requested", "service_date", r.URL.Query().Get("service_date"), "count", len(slots))
	s.writeJSON(w, PathSlots, http.StatusOK, SlotsResponse{Slots: slots})
}

// book handles POST /scheduler/book_slot.
func (s *Server) book(w http.ResponseWriter, r *http.Request) {
	var body BookRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("book: invalid request body", "err", err)
		s.writeJSON(w, PathBook, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if body.VehicleID == "" || body.Slot == "" {
		s.writeJSON(w, PathBook, http.StatusBadRequest, errorResponse{Error: "vehicle_id and slot are required"})
		return
	}

	booking, err := s.backend.Book(r.Context(), body.VehicleID, body.Slot)
	if err != nil {
		s.logger.Error("booking failed", "vehicle_id", body.VehicleID, "err", err)
		s.writeJSON(w, PathBook, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("booking confirmed", "vehicle_id", body.VehicleID, "slot", body.Slot, "booking_id", booking.BookingID)
	s.writeJSON(w, PathBook, http.StatusOK, booking)
}

// paymentHistory is a restricted endpoint: every request is refused and logged.
func (s *Server) paymentHistory(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")
	s.refusals.Inc()
	s.logger.Warn("unauthorized attempt to read payment history", "customer_id", customerID)
	s.writeJSON(w, PathPaymentHistory, http.StatusForbidden, errorResponse{Error: "Unauthorized Access. This incident has been logged."})
}
