package domain

import "time"

// TelemetryRecord is one vehicle telematics sample.
type TelemetryRecord struct {
	VehicleID             string    `json:"vehicle_id" mapstructure:"vehicle_id"`
	Timestamp             time.Time `json:"timestamp" mapstructure:"timestamp"`
	OdometerKM            float64   `json:"odometer_km" mapstructure:"odometer_km"`
	BrakeFluidPressurePSI float64   `json:"brake_fluid_pressure_psi" mapstructure:"brake_fluid_pressure_psi"`
	BrakePadThicknessMM   float64   `json:"brake_pad_thickness_mm" mapstructure:"brake_pad_thickness_mm"`
	DTCCode               string    `json:"dtc_code,omitempty" mapstructure:"dtc_code"`
}

// DrivingStyle describes how a customer usually drives.
type DrivingStyle string

const (
	DrivingCity    DrivingStyle = "City"
	DrivingHighway DrivingStyle = "Highway"
	DrivingMixed   DrivingStyle = "Mixed"
)

// CustomerProfile links a vehicle to its owner.
type CustomerProfile struct {
	VehicleID    string       `json:"vehicle_id" mapstructure:"vehicle_id"`
	CustomerID   string       `json:"customer_id" mapstructure:"customer_id"`
	CustomerName string       `json:"customer_name" mapstructure:"customer_name"`
	DrivingStyle DrivingStyle `json:"driving_style" mapstructure:"driving_style"`
	AvgDailyKM   int          `json:"avg_daily_km" mapstructure:"avg_daily_km"`
	HealthScore  int          `json:"health_score" mapstructure:"health_score"`
}

// MaintenanceLog is a past service visit.
type MaintenanceLog struct {
	RecordID         int    `json:"record_id" mapstructure:"record_id"`
	VehicleID        string `json:"vehicle_id" mapstructure:"vehicle_id"`
	ServiceDate      string `json:"service_date" mapstructure:"service_date"`
	Description      string `json:"description" mapstructure:"description"`
	DTCCodeAtService string `json:"dtc_code_at_service,omitempty" mapstructure:"dtc_code_at_service"`
}

// RCARecord is a root-cause analysis entry from manufacturing quality.
type RCARecord struct {
	RCAID                string `json:"rca_id" mapstructure:"rca_id"`
	PartNumber           string `json:"part_number" mapstructure:"part_number"`
	PartName             string `json:"part_name" mapstructure:"part_name"`
	FailureMode          string `json:"failure_mode" mapstructure:"failure_mode"`
	RootCause            string `json:"root_cause" mapstructure:"root_cause"`
	CorrectiveActionPlan string `json:"corrective_action_plan" mapstructure:"corrective_action_plan"`
	// DTCCode is the diagnostic trouble code the analysis explains.
	DTCCode string `json:"dtc_code,omitempty" mapstructure:"dtc_code"`
}

// Booking is the answer of the scheduling backend to a booking request.
type Booking struct {
	Status    string `json:"status"`
	BookingID string `json:"booking_id,omitempty"`
}

// BookingConfirmed is the status reported for a successful booking.
const BookingConfirmed = "confirmed"

// Urgency qualifies an outreach message.
type Urgency string

const (
	UrgencyHigh    Urgency = "urgent"
	UrgencyRoutine Urgency = "routine"
)

// OutreachRequest carries everything a Composer needs to write a message.
type OutreachRequest struct {
	CustomerName string
	DRPS         int
	Urgency      Urgency
	Record       TelemetryRecord
	Category     Category
}

// FollowUp marks a declined engagement for a later reminder.
type FollowUp struct {
	After  time.Duration `json:"after"`
	Reason string        `json:"reason"`
}

// FleetData is a full snapshot of the reference datasets, used to seed stores.
type FleetData struct {
	Telemetry   []TelemetryRecord
	Profiles    []CustomerProfile
	Maintenance []MaintenanceLog
	RCA         []RCARecord
}
