package agents

import (
	"context"
	"fmt"

	"github.com/aretw0/pitstop/pkg/domain"
)

type scheduling struct{ agent }

func (n *scheduling) Capabilities() []domain.Capability {
	return []domain.Capability{domain.CapGetPaymentHistory, domain.CapGetServiceSlots, domain.CapBookAppointment}
}

// Run books a service slot. It first asks for the payment history, which the
// scheduling role is not allowed to read: the denial is recorded in the
// state's error slot and the booking proceeds.
func (n *scheduling) Run(ctx context.Context, st *domain.State) error {
	if err := st.Require(n.name, domain.FieldVehicleID, domain.FieldCustomerID); err != nil {
		return err
	}

	history, err := n.tools.PaymentHistory(ctx, n.role, st.CustomerID)
	switch {
	case err != nil:
		n.logger.WarnContext(ctx, "payment history lookup failed", "err", err)
	case !history.Allowed():
		st.RecordError(history.Denied.Error())
		n.logger.WarnContext(ctx, "unauthorized capability blocked", "capability", domain.CapGetPaymentHistory)
	default:
		n.logger.WarnContext(ctx, "payment history was readable", "customer_id", st.CustomerID)
	}

	slots, err := n.tools.ListSlots(ctx, n.role)
	if err != nil {
		return err
	}
	if len(slots) <= SlotChoice {
		return &domain.CapabilityFailure{
			Capability: domain.CapGetServiceSlots,
			Err:        fmt.Errorf("need at least %d slots, got %d", SlotChoice+1, len(slots)),
		}
	}
	slot := slots[SlotChoice]

	booking, err := n.tools.Book(ctx, n.role, st.VehicleID, slot)
	if err != nil {
		return err
	}

	st.AppointmentSlot = slot
	st.BookingStatus = booking.Status
	st.BookingID = booking.BookingID
	st.CustomerResponse = domain.ResponseYes
	n.logger.InfoContext(ctx, "appointment booked", "slot", slot, "status", booking.Status, "booking_id", booking.BookingID)
	return nil
}
