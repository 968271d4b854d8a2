// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/pdiddy/research-orchestrator/internal/logger"
)

// DefaultSubjectPrefix is prepended to the user id to form the subject.
const DefaultSubjectPrefix = "research.progress"

// Publisher is the subset of *nats.Conn used for publishing.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher is an Observer that publishes each event as JSON to
// <prefix>.<user_id>. Publish failures are logged and dropped.
type NATSPublisher struct {
	pub    Publisher
	prefix string
	logger *logger.Logger
}

// NewNATSPublisher creates a publisher on pub. An empty prefix uses
// DefaultSubjectPrefix.
func NewNATSPublisher(pub Publisher, prefix string, log *logger.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if log == nil {
		log = logger.Discard()
	}
	return &NATSPublisher{pub: pub, prefix: prefix, logger: log.WithComponent("nats-events")}
}

// Subject returns the subject events for userID are published on.
func (p *NATSPublisher) Subject(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return p.prefix + "." + userID
}

// Notify publishes ev.
func (p *NATSPublisher) Notify(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event", slog.String("error", err.Error()))
		return
	}
	subject := p.Subject(ev.UserID)
	if err := p.pub.Publish(subject, data); err != nil {
		p.logger.WithContext(ctx).Warn("failed to publish event",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("research-orchestrator"),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}
