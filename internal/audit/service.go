package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

func marshalEvent(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}

// Service is the append-only audit sink: every event is durably spooled
// to local disk first, then optionally published to NATS for downstream
// consumers (a SIEM forwarder, a dashboard). NATS is entirely optional —
// a nil connection just means events stay local, mirroring the
// nil-tolerant degrade pattern used by session.Telemetry and auth.Lockout.
type Service struct {
	spool   *spool
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewService builds a Service with its spool rooted at spoolDir (capped
// at maxSpoolMB megabytes). nc may be nil.
func NewService(spoolDir string, maxSpoolMB int64, nc *nats.Conn, subject string, logger *slog.Logger) *Service {
	if subject == "" {
		subject = "rustream.audit"
	}
	return &Service{
		spool:   newSpool(spoolDir, maxSpoolMB*1024*1024),
		nc:      nc,
		subject: subject,
		logger:  logger,
	}
}

// WriteEvent appends evt to the local spool and, if a NATS connection is
// configured, publishes it for fan-out. Spooling happens unconditionally
// so the audit trail survives even when nobody is consuming the subject.
func (s *Service) WriteEvent(ctx context.Context, evt Event) error {
	if evt.EventID == uuid.Nil {
		evt.EventID = uuid.New()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}

	if err := s.spool.write(evt); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "audit spool write failed", slog.String("error", err.Error()))
		}
		return err
	}

	s.publish(ctx, evt)
	return nil
}

func (s *Service) publish(ctx context.Context, evt Event) {
	if s.nc == nil {
		return
	}
	data, err := marshalEvent(evt)
	if err != nil {
		return
	}
	if err := s.nc.Publish(s.subject, data); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit NATS publish failed", slog.String("error", err.Error()))
	}
}

// StartReplayer periodically drains the local spool, re-publishing any
// events queued while NATS was unreachable.
func (s *Service) StartReplayer(ctx context.Context, interval time.Duration) {
	if s.nc == nil {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.spool.drain(func(evt Event) error {
					data, err := marshalEvent(evt)
					if err != nil {
						return nil
					}
					return s.nc.Publish(s.subject, data)
				}, s.logger)
			}
		}
	}()
}
