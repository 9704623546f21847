package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dkarolys/fleetpulse/internal/core/domain"
	"github.com/dkarolys/fleetpulse/internal/pkg/metrics"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribePositions(ctx context.Context, handler func(ctx context.Context, sample *domain.PositionSample) error) error {
	sub, err := s.js.Subscribe("fleet.position.>", func(msg *nats.Msg) {
		var sample domain.PositionSample
		if err := json.Unmarshal(msg.Data, &sample); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &sample); err != nil {
			metrics.PositionIngestErrors.WithLabelValues("nats").Inc()
			_ = msg.Nak()
			return
		}
		metrics.PositionsIngested.WithLabelValues("nats").Inc()
		_ = msg.Ack()
	},
		nats.Durable("position-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeSecurityEvents(ctx context.Context, handler func(ctx context.Context, event *domain.SecurityEvent) error) error {
	sub, err := s.js.Subscribe("fleet.events.>", func(msg *nats.Msg) {
		var event domain.SecurityEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &event); err != nil {
			_ = msg.Nak()
			return
		}
		metrics.SecurityEventsRecorded.WithLabelValues(string(event.Type), string(event.Severity)).Inc()
		_ = msg.Ack()
	},
		nats.Durable("event-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
