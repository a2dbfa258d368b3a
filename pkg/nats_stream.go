package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	SeatingStreamName    = "SEATING_EVENTS"
	defaultStreamMaxAge  = 24 * time.Hour
	defaultStreamTimeout = 5 * time.Second
)

// NATSStreamPublisher publishes seating events into a JetStream stream so
// attention notifications survive consumers being offline.
type NATSStreamPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NATSStreamConfig configures a NATSStreamPublisher.
type NATSStreamConfig struct {
	URL        string
	StreamName string
	Subjects   []string
	MaxAge     time.Duration
	MaxMsgs    int64 // 0 = unlimited
}

// DefaultStreamConfig covers the table status and attention topics.
func DefaultStreamConfig(url string) NATSStreamConfig {
	return NATSStreamConfig{
		URL:        url,
		StreamName: SeatingStreamName,
		Subjects:   []string{TableStatusTopic, ReservationAttentionTopic},
		MaxAge:     defaultStreamMaxAge,
	}
}

// NewNATSStreamPublisher connects and creates or updates the stream.
func NewNATSStreamPublisher(ctx context.Context, cfg NATSStreamConfig) (*NATSStreamPublisher, error) {
	if cfg.StreamName == "" || len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("stream name and subjects are required")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultStreamMaxAge
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("seating-stream"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: cfg.Subjects,
		MaxAge:   cfg.MaxAge,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	setupCtx, cancel := context.WithTimeout(ctx, defaultStreamTimeout)
	defer cancel()

	stream, err := js.CreateOrUpdateStream(setupCtx, streamConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	return &NATSStreamPublisher{conn: conn, js: js, stream: stream}, nil
}

// Publish waits for the stream to acknowledge the message.
func (p *NATSStreamPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := p.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

func (p *NATSStreamPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
	return nil
}
