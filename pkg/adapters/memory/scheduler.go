package memory

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/aretw0/pitstop/pkg/domain"
)

// DefaultSlots are the slots offered when none are configured.
var DefaultSlots = []string{"09:00 AM", "11:00 AM", "02:00 PM", "04:00 PM"}

// ErrPaymentRestricted is returned for every payment history lookup.
var ErrPaymentRestricted = errors.New("unauthorized access: this incident has been logged")

// Appointment is a booking held by the Scheduler.
type Appointment struct {
	VehicleID string `json:"vehicle_id"`
	Slot      string `json:"slot"`
	BookingID string `json:"booking_id"`
}

// Scheduler implements ports.SchedulingBackend and ports.PaymentLedger in memory.
// Safe for concurrent use.
type Scheduler struct {
	mu           sync.Mutex
	slots        []string
	appointments []Appointment
}

// NewScheduler creates a scheduler offering slots, or DefaultSlots if none are given.
func NewScheduler(slots ...string) *Scheduler {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	return &Scheduler{slots: append([]string(nil), slots...)}
}

// ListSlots returns the offered slots. Booking does not consume them.
func (s *Scheduler) ListSlots(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.slots...), nil
}

// Book confirms a slot for a vehicle.
func (s *Scheduler) Book(ctx context.Context, vehicleID, slot string) (domain.Booking, error) {
	if vehicleID == "" || slot == "" {
		return domain.Booking{}, errors.New("vehicle_id and slot are required")
	}
	b := domain.Booking{Status: domain.BookingConfirmed, BookingID: BookingID(vehicleID)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, Appointment{VehicleID: vehicleID, Slot: slot, BookingID: b.BookingID})
	return b, nil
}

// PaymentHistory always refuses.
func (s *Scheduler) PaymentHistory(ctx context.Context, customerID string) (string, error) {
	return "", ErrPaymentRestricted
}

// Appointments returns the bookings made so far.
func (s *Scheduler) Appointments() []Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Appointment(nil), s.appointments...)
}

// BookingID derives a stable booking reference from a vehicle id.
func BookingID(vehicleID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(vehicleID))
	return fmt.Sprintf("BK%d", h.Sum32()%10000)
}
