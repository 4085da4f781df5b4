package agents

import (
	"context"
	"errors"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/guard"
	"github.com/aretw0/pitstop/pkg/ports"
)

// Toolbox exposes collaborators as guarded capabilities.
type Toolbox struct {
	guard *guard.Guard
	c     ports.Collaborators
}

// NewToolbox binds collaborators to a guard.
func NewToolbox(g *guard.Guard, c ports.Collaborators) (*Toolbox, error) {
	if g == nil {
		return nil, errors.New("guard is required")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Toolbox{guard: g, c: c}, nil
}

func call(role domain.Role, capability domain.Capability) guard.Call {
	return guard.Call{Role: role, Capability: capability}
}

// FetchFlagged reads the first telemetry record below thresholdPSI (read_csv).
func (t *Toolbox) FetchFlagged(ctx context.Context, role domain.Role, thresholdPSI float64) (domain.TelemetryRecord, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapReadCSV), func(ctx context.Context) (domain.TelemetryRecord, error) {
		return t.c.Telemetry.FetchFlagged(ctx, thresholdPSI)
	})
}

// LookupProfile reads a vehicle owner's profile (read_csv).
func (t *Toolbox) LookupProfile(ctx context.Context, role domain.Role, vehicleID string) (domain.CustomerProfile, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapReadCSV), func(ctx context.Context) (domain.CustomerProfile, error) {
		return t.c.Telemetry.LookupProfile(ctx, vehicleID)
	})
}

// Classify asks the classifier for a root-cause category (llm_invoke).
// The raw answer is returned unvalidated.
func (t *Toolbox) Classify(ctx context.Context, role domain.Role, vehicleID string, rec domain.TelemetryRecord) (string, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapLLMInvoke), func(ctx context.Context) (string, error) {
		return t.c.Classifier.Classify(ctx, vehicleID, rec, domain.Categories())
	})
}

// Compose writes an outreach message (llm_invoke).
func (t *Toolbox) Compose(ctx context.Context, role domain.Role, req domain.OutreachRequest) (string, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapLLMInvoke), func(ctx context.Context) (string, error) {
		return t.c.Composer.Compose(ctx, req)
	})
}

// ListSlots reads free service slots (get_service_slots).
func (t *Toolbox) ListSlots(ctx context.Context, role domain.Role) ([]string, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapGetServiceSlots), func(ctx context.Context) ([]string, error) {
		return t.c.Scheduler.ListSlots(ctx)
	})
}

// Book reserves a slot for a vehicle (book_appointment).
func (t *Toolbox) Book(ctx context.Context, role domain.Role, vehicleID, slot string) (domain.Booking, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapBookAppointment), func(ctx context.Context) (domain.Booking, error) {
		return t.c.Scheduler.Book(ctx, vehicleID, slot)
	})
}

// PaymentHistory attempts to read a customer's payment history
// (get_payment_history). A denial is reported in the result, not as an error.
func (t *Toolbox) PaymentHistory(ctx context.Context, role domain.Role, customerID string) (guard.Result[string], error) {
	return guard.Attempt(ctx, t.guard, call(role, domain.CapGetPaymentHistory), func(ctx context.Context) (string, error) {
		ledger, ok := t.c.Scheduler.(ports.PaymentLedger)
		if !ok {
			return "", errors.New("scheduling backend has no payment ledger")
		}
		return ledger.PaymentHistory(ctx, customerID)
	})
}

// RecurrenceCount counts past services with the trouble code (read_csv).
func (t *Toolbox) RecurrenceCount(ctx context.Context, role domain.Role, dtcCode string) (int, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapReadCSV), func(ctx context.Context) (int, error) {
		return t.c.Profiles.RecurrenceCount(ctx, dtcCode)
	})
}

// RootCause reads the analysis linked to a trouble code (read_csv).
// A missing analysis is not an error: the zero record and false are returned.
func (t *Toolbox) RootCause(ctx context.Context, role domain.Role, dtcCode string) (domain.RCARecord, bool, error) {
	rca, err := guard.Invoke(ctx, t.guard, call(role, domain.CapReadCSV), func(ctx context.Context) (domain.RCARecord, error) {
		rca, err := t.c.Profiles.RootCause(ctx, dtcCode)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.RCARecord{}, nil
		}
		return rca, err
	})
	if err != nil {
		return domain.RCARecord{}, false, err
	}
	return rca, rca.RCAID != "", nil
}

// AddHealthScore credits a vehicle's health score (write_csv).
func (t *Toolbox) AddHealthScore(ctx context.Context, role domain.Role, vehicleID string, delta int) (int, error) {
	return guard.Invoke(ctx, t.guard, call(role, domain.CapWriteCSV), func(ctx context.Context) (int, error) {
		return t.c.Profiles.AddHealthScore(ctx, vehicleID, delta)
	})
}
