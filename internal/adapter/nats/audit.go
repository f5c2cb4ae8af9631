// Package nats implements the audit sink port on NATS JetStream.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/lexorahq/aigate/internal/port/audit"
)

const (
	streamName      = "AIGATE_AUDIT"
	subjectSecurity = "audit.security"
	subjectBudget   = "audit.budget"
)

// Sink publishes governance events to JetStream subjects consumed by the
// downstream alerting system.
type Sink struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the audit stream exists.
func Connect(ctx context.Context, url string) (*Sink, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"audit.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats audit sink connected", "url", url, "stream", streamName)
	return &Sink{nc: nc, js: js}, nil
}

// Security publishes one blocked-injection event.
func (s *Sink) Security(ctx context.Context, ev audit.SecurityEvent) error {
	return s.publish(ctx, subjectSecurity, ev)
}

// Budget publishes one budget-deny event.
func (s *Sink) Budget(ctx context.Context, ev audit.BudgetEvent) error {
	return s.publish(ctx, subjectBudget, ev)
}

func (s *Sink) publish(ctx context.Context, subject string, ev any) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (s *Sink) Close() error {
	s.nc.Close()
	return nil
}
