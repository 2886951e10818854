// Package auditlog provides audit.Sink implementations.
package auditlog

import (
	"context"
	"errors"

	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// LogSink writes audit entries to the structured log.
type LogSink struct {
	logger logger.Interface
}

var _ audit.Sink = (*LogSink)(nil)

func NewLogSink(log logger.Interface) *LogSink {
	return &LogSink{logger: log.Named("audit")}
}

func (s *LogSink) Record(_ context.Context, entry audit.Entry) error {
	kv := []interface{}{
		"tenant_id", entry.TenantID,
		"action", string(entry.Action),
		"actor", entry.Actor,
		"occurred_at", entry.OccurredAt,
	}
	for k, v := range entry.Details {
		kv = append(kv, k, v)
	}

	if entry.Action == audit.ActionProviderCancelFailed {
		s.logger.Warnw("audit", append(kv, "reconcile", "manual")...)
		return nil
	}
	s.logger.Infow("audit", kv...)
	return nil
}

// MultiSink fans an entry out to every sink. All sinks are attempted; the
// joined error reports the ones that failed.
type MultiSink []audit.Sink

func (m MultiSink) Record(ctx context.Context, entry audit.Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder writes to a sink and swallows failures after logging them, so
// an audit outage never fails a billing operation.
type Recorder struct {
	sink   audit.Sink
	logger logger.Interface
}

func NewRecorder(sink audit.Sink, log logger.Interface) *Recorder {
	return &Recorder{sink: sink, logger: log}
}

func (r *Recorder) Record(ctx context.Context, entry audit.Entry) error {
	if r.sink == nil {
		return nil
	}
	if err := r.sink.Record(ctx, entry); err != nil {
		r.logger.Errorw("failed to record audit entry",
			"tenant_id", entry.TenantID,
			"action", string(entry.Action),
			"error", err,
		)
	}
	return nil
}
