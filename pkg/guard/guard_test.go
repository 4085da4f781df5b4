package guard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/guard"
	"github.com/aretw0/pitstop/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*guard.Guard, *guard.Recorder) {
	t.Helper()
	rec := guard.NewRecorder()
	fixed := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	g := guard.New(policy.Default(),
		guard.WithSink(rec),
		guard.WithClock(func() time.Time { return fixed }),
	)
	return g, rec
}

func TestInvoke_DeniedNeverExecutes(t *testing.T) {
	g, rec := newGuard(t)
	calls := 0

	_, err := guard.Invoke(context.Background(), g,
		guard.Call{Role: domain.RoleScheduling, Capability: domain.CapGetPaymentHistory},
		func(ctx context.Context) (string, error) {
			calls++
			return "this should fail", nil
		})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
	assert.Equal(t, 0, calls, "denied capability must not run")

	var violation *domain.PolicyViolation
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, domain.RoleScheduling, violation.Role)
	assert.Equal(t, domain.CapGetPaymentHistory, violation.Capability)

	records := rec.Records()
	require.Len(t, records, 1)
	assert.Equal(t, domain.InvocationDenied, records[0].Outcome)
	assert.Equal(t, domain.CapGetPaymentHistory, records[0].Capability)
}

func TestInvoke_AllowedReturnsResultUnchanged(t *testing.T) {
	g, rec := newGuard(t)
	calls := 0
	slots := []string{"09:00 AM", "11:00 AM"}

	got, err := guard.Invoke(context.Background(), g,
		guard.Call{Role: domain.RoleScheduling, Capability: domain.CapGetServiceSlots},
		func(ctx context.Context) ([]string, error) {
			calls++
			return slots, nil
		})

	require.NoError(t, err)
	assert.Equal(t, slots, got)
	assert.Equal(t, 1, calls)

	records := rec.Records()
	require.Len(t, records, 1)
	assert.Equal(t, domain.InvocationAllowed, records[0].Outcome)
	assert.Empty(t, records[0].Err)
}

func TestInvoke_DownstreamFailureKeepsAllowed(t *testing.T) {
	g, rec := newGuard(t)
	boom := errors.New("connection refused")

	_, err := guard.Invoke(context.Background(), g,
		guard.Call{Role: domain.RoleScheduling, Capability: domain.CapBookAppointment},
		func(ctx context.Context) (domain.Booking, error) {
			return domain.Booking{}, boom
		})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, domain.ErrCapabilityFailure)
	assert.NotErrorIs(t, err, domain.ErrPolicyViolation)

	records := rec.Records()
	require.Len(t, records, 1)
	assert.Equal(t, domain.InvocationAllowed, records[0].Outcome)
	assert.Equal(t, "connection refused", records[0].Err)
}

func TestAttempt_DenialIsTypedResult(t *testing.T) {
	g, rec := newGuard(t)
	calls := 0

	res, err := guard.Attempt(context.Background(), g,
		guard.Call{Role: domain.RoleScheduling, Capability: domain.CapGetPaymentHistory},
		func(ctx context.Context) (string, error) {
			calls++
			return "", nil
		})

	require.NoError(t, err, "a denial is not a fault")
	assert.False(t, res.Allowed())
	require.NotNil(t, res.Denied)
	assert.Equal(t, 0, calls)
	assert.Len(t, rec.Denied(), 1)
}

func TestAttempt_OneRecordPerAttempt(t *testing.T) {
	g, rec := newGuard(t)
	ctx := guard.WithNode(guard.WithRunID(context.Background(), "run-42"), "diagnosis")

	for _, c := range domain.Capabilities() {
		_, _ = guard.Attempt(ctx, g, guard.Call{Role: domain.RoleDiagnosis, Capability: c},
			func(ctx context.Context) (int, error) { return 1, nil })
	}

	records := rec.ForRun("run-42")
	require.Len(t, records, len(domain.Capabilities()))
	allowed := 0
	for _, r := range records {
		assert.Equal(t, "diagnosis", r.Node)
		if r.Outcome == domain.InvocationAllowed {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed, "DiagnosisAgent holds read_csv and llm_invoke only")
}

func TestNilPolicyDeniesAll(t *testing.T) {
	rec := guard.NewRecorder()
	g := guard.New(nil, guard.WithSink(rec))

	err := guard.Do(context.Background(), g,
		guard.Call{Role: domain.RoleFeedback, Capability: domain.CapReadCSV},
		func(ctx context.Context) error { return nil })

	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
	assert.Len(t, rec.Denied(), 1)
}

func TestMultiSink(t *testing.T) {
	a, b := guard.NewRecorder(), guard.NewRecorder()
	g := guard.New(policy.Default(), guard.WithSink(guard.MultiSink(a, nil, b)))

	_ = guard.Do(context.Background(), g,
		guard.Call{Role: domain.RoleFeedback, Capability: domain.CapReadCSV},
		func(ctx context.Context) error { return nil })

	assert.Len(t, a.Records(), 1)
	assert.Len(t, b.Records(), 1)
}
