package pkg

import (
	"context"
	"fmt"
	"sync"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("seating-publisher"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.conn.Publish(topic, msg)
}

func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
	return nil
}

type NATSSubscriber struct {
	conn   *nats.Conn
	logger aqm.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSSubscriber(url string, logger aqm.Logger) (*NATSSubscriber, error) {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	conn, err := nats.Connect(url, nats.Name("seating-subscriber"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSubscriber{conn: conn, logger: logger}, nil
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			s.logger.Error("event handler failed", "topic", topic, "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return nil
}

func (s *NATSSubscriber) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	s.conn.Close()
	return nil
}
