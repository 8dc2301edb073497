package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ChangeKind names a committed event mutation.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeJoined  ChangeKind = "joined"
	ChangeLeft    ChangeKind = "left"
)

// Change is the record published after a mutation has been saved.
type Change struct {
	Kind         ChangeKind `json:"kind"`
	EventID      string     `json:"eventId"`
	ActorID      string     `json:"actorId"`
	Participants int        `json:"participants"`
	Capacity     int        `json:"maxParticipants"`
	Status       string     `json:"status,omitempty"`
	Version      int64      `json:"version"`
	At           time.Time  `json:"at"`
}

// Publisher forwards committed changes to external collaborators such as
// a scheduler driving status transitions.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Change) error { return nil }

// NopPublisher discards every change.
func NopPublisher() Publisher { return nopPublisher{} }

// natsConn is the subset of *nats.Conn used here.
type natsConn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes JSON changes on "<topic>.<kind>".
type NATSPublisher struct {
	conn  natsConn
	topic string
}

func NewNATSPublisher(nc *nats.Conn, topic string) *NATSPublisher {
	return newNATSPublisher(nc, topic)
}

func newNATSPublisher(conn natsConn, topic string) *NATSPublisher {
	if topic == "" {
		topic = "events"
	}
	return &NATSPublisher{conn: conn, topic: topic}
}

func (p *NATSPublisher) Publish(_ context.Context, c Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", p.topic, c.Kind)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
