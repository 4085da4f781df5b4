package domain

// ExecutionStatus defines where a run is in its lifecycle.
type ExecutionStatus string

const (
	StatusActive    ExecutionStatus = "active"    // Nodes are still being executed
	StatusCompleted ExecutionStatus = "completed" // A terminal node returned successfully
	StatusFailed    ExecutionStatus = "failed"    // The run halted on a Failure
)

// Response is the customer's answer to an outreach.
type Response string

const (
	ResponseYes Response = "yes"
	ResponseNo  Response = "no"
)

// ScoreBreakdown keeps the three weighted sub-scores behind a DRPS value.
type ScoreBreakdown struct {
	Severity    float64 `json:"severity"`
	FailureRisk float64 `json:"failure_risk"`
	Context     float64 `json:"context"`
}

// State is the single mutable record shared by every node of one run.
// Optional values are pointers or empty strings; nodes declare what they need
// with Require and fail instead of reading an absent value.
type State struct {
	// Bookkeeping
	RunID       string          `json:"run_id"`
	CurrentNode string          `json:"current_node,omitempty"`
	Status      ExecutionStatus `json:"status"`
	History     []string        `json:"history"`

	// Identity
	VehicleID    string `json:"vehicle_id,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`

	// Findings
	Anomaly        *TelemetryRecord `json:"anomaly_data,omitempty"`
	AnomalyDetails string           `json:"anomaly_details,omitempty"`

	// Derived scores
	Diagnosis      *Category       `json:"diagnosis,omitempty"`
	DRPS           *int            `json:"drps_score,omitempty"`
	ScoreBreakdown *ScoreBreakdown `json:"score_breakdown,omitempty"`

	// Decisions
	OutreachMessage  string    `json:"xai_explanation,omitempty"`
	CustomerResponse Response  `json:"customer_response,omitempty"`
	AppointmentSlot  string    `json:"appointment_slot,omitempty"`
	BookingStatus    string    `json:"booking_status,omitempty"`
	BookingID        string    `json:"booking_id,omitempty"`
	FollowUp         *FollowUp `json:"follow_up,omitempty"`
	FinalInsight     string    `json:"final_insight,omitempty"`
	HealthScore      *int      `json:"health_score,omitempty"`

	// ErrorMessage is the error slot. See RecordError.
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewState creates a clean state for a run.
func NewState(runID string) *State {
	return &State{
		RunID:   runID,
		Status:  StatusActive,
		History: []string{},
	}
}

// RecordError writes msg into the error slot. The slot is write-once: a set
// value is never cleared nor replaced, so the first recorded error wins.
// It reports whether msg was stored.
func (s *State) RecordError(msg string) bool {
	if s.ErrorMessage != "" || msg == "" {
		return false
	}
	s.ErrorMessage = msg
	return true
}

// Field names a precondition a node can require.
type Field string

const (
	FieldVehicleID     Field = "vehicle_id"
	FieldCustomerID    Field = "customer_id"
	FieldCustomerName  Field = "customer_name"
	FieldAnomaly       Field = "anomaly_data"
	FieldDiagnosis     Field = "diagnosis"
	FieldDRPS          Field = "drps_score"
	FieldBookingStatus Field = "booking_status"
)

// Has reports whether f has been populated.
func (s *State) Has(f Field) bool {
	switch f {
	case FieldVehicleID:
		return s.VehicleID != ""
	case FieldCustomerID:
		return s.CustomerID != ""
	case FieldCustomerName:
		return s.CustomerName != ""
	case FieldAnomaly:
		return s.Anomaly != nil
	case FieldDiagnosis:
		return s.Diagnosis != nil
	case FieldDRPS:
		return s.DRPS != nil
	case FieldBookingStatus:
		return s.BookingStatus != ""
	}
	return false
}

// Require checks that every field is populated. It returns an
// *UnmetPrecondition naming node and all missing fields otherwise.
func (s *State) Require(node string, fields ...Field) error {
	var missing []Field
	for _, f := range fields {
		if !s.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &UnmetPrecondition{Node: node, Fields: missing}
	}
	return nil
}

// Clone returns a deep copy of the state, used for snapshots handed to hooks.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.History = append([]string(nil), s.History...)
	if s.Anomaly != nil {
		a := *s.Anomaly
		next.Anomaly = &a
	}
	if s.Diagnosis != nil {
		d := *s.Diagnosis
		next.Diagnosis = &d
	}
	if s.DRPS != nil {
		v := *s.DRPS
		next.DRPS = &v
	}
	if s.ScoreBreakdown != nil {
		b := *s.ScoreBreakdown
		next.ScoreBreakdown = &b
	}
	if s.FollowUp != nil {
		f := *s.FollowUp
		next.FollowUp = &f
	}
	if s.HealthScore != nil {
		h := *s.HealthScore
		next.HealthScore = &h
	}
	return &next
}
