package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/pitstop/pkg/domain"
)

// AuditSink receives the record of every capability attempt.
// Implementations must be safe for concurrent use.
type AuditSink interface {
	Record(ctx context.Context, rec domain.InvocationRecord)
}

// SinkFunc adapts a function to AuditSink.
type SinkFunc func(ctx context.Context, rec domain.InvocationRecord)

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, rec domain.InvocationRecord) { f(ctx, rec) }

// Discard drops every record.
var Discard AuditSink = SinkFunc(func(context.Context, domain.InvocationRecord) {})

// MultiSink fans a record out to several sinks, in order.
func MultiSink(sinks ...AuditSink) AuditSink {
	return SinkFunc(func(ctx context.Context, rec domain.InvocationRecord) {
		for _, s := range sinks {
			if s != nil {
				s.Record(ctx, rec)
			}
		}
	})
}

// LogSink writes allowed calls at info and denials at warn.
func LogSink(logger *slog.Logger) AuditSink {
	return SinkFunc(func(ctx context.Context, rec domain.InvocationRecord) {
		attrs := []any{
			"run_id", rec.RunID,
			"node", rec.Node,
			"role", rec.Role,
			"capability", rec.Capability,
		}
		if rec.Outcome == domain.InvocationDenied {
			logger.WarnContext(ctx, "capability denied", attrs...)
			return
		}
		attrs = append(attrs, "duration", rec.Duration)
		if rec.Err != "" {
			attrs = append(attrs, "error", rec.Err)
		}
		logger.InfoContext(ctx, "capability allowed", attrs...)
	})
}

// Recorder keeps records in memory.
type Recorder struct {
	mu      sync.Mutex
	records []domain.InvocationRecord
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record implements AuditSink.
func (r *Recorder) Record(_ context.Context, rec domain.InvocationRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []domain.InvocationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.InvocationRecord(nil), r.records...)
}

// ForRun returns the records stamped with runID.
func (r *Recorder) ForRun(runID string) []domain.InvocationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.InvocationRecord
	for _, rec := range r.records {
		if rec.RunID == runID {
			out = append(out, rec)
		}
	}
	return out
}

// Denied returns the denial records.
func (r *Recorder) Denied() []domain.InvocationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.InvocationRecord
	for _, rec := range r.records {
		if rec.Outcome == domain.InvocationDenied {
			out = append(out, rec)
		}
	}
	return out
}
