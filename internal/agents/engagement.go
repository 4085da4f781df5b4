package agents

import (
	"context"
	"time"

	"github.com/aretw0/pitstop/pkg/domain"
)

// FollowUpAfter is the delay before a declined customer is contacted again.
const FollowUpAfter = 72 * time.Hour

type engagement struct{ agent }

func (n *engagement) Capabilities() []domain.Capability {
	return []domain.Capability{domain.CapLLMInvoke}
}

// Run composes the outreach message. The response it records is provisional:
// the branch taken after it writes the final answer.
func (n *engagement) Run(ctx context.Context, st *domain.State) error {
	if err := st.Require(n.name, domain.FieldCustomerName, domain.FieldDRPS, domain.FieldAnomaly, domain.FieldDiagnosis); err != nil {
		return err
	}

	urgency := domain.UrgencyRoutine
	if *st.DRPS >= UrgentDRPS {
		urgency = domain.UrgencyHigh
	}
	msg, err := n.tools.Compose(ctx, n.role, domain.OutreachRequest{
		CustomerName: st.CustomerName,
		DRPS:         *st.DRPS,
		Urgency:      urgency,
		Record:       *st.Anomaly,
		Category:     *st.Diagnosis,
	})
	if err != nil {
		return err
	}

	st.OutreachMessage = msg
	st.CustomerResponse = domain.ResponseYes
	n.logger.InfoContext(ctx, "outreach composed", "customer", st.CustomerName, "urgency", urgency)
	return nil
}

type decline struct{ agent }

func (n *decline) Capabilities() []domain.Capability {
	return nil
}

// Run records the decline and schedules a reminder.
func (n *decline) Run(ctx context.Context, st *domain.State) error {
	st.CustomerResponse = domain.ResponseNo
	st.BookingStatus = DeclineStatus
	st.FollowUp = &domain.FollowUp{After: FollowUpAfter, Reason: "customer declined service"}
	n.logger.InfoContext(ctx, "customer declined", "vehicle_id", st.VehicleID, "follow_up", FollowUpAfter)
	return nil
}
