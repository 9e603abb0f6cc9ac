package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSConsumerConfig holds configuration for the JetStream consumer.
type NATSConsumerConfig struct {
	URL           string
	SubjectPrefix string // default "tacnavial"
	Durable       string // default "tacnavial-worker"
	Dispatcher    *Dispatcher
	Logger        zerolog.Logger
}

// NATSConsumer feeds JetStream messages to a Dispatcher through a durable
// subscription on every event subject.
type NATSConsumer struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	subject    string
	durable    string
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewNATSConsumer connects to NATS.
func NewNATSConsumer(cfg NATSConsumerConfig) (*NATSConsumer, error) {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "tacnavial"
	}
	durable := cfg.Durable
	if durable == "" {
		durable = "tacnavial-worker"
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(durable),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	return &NATSConsumer{
		conn:       conn,
		js:         js,
		subject:    prefix + ".>",
		durable:    durable,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
	}, nil
}

// Start processes messages until ctx is cancelled.
func (c *NATSConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("subject", c.subject).
		Str("durable", c.durable).
		Msg("starting nats consumer")

	sub, err := c.js.Subscribe(c.subject, func(msg *nats.Msg) {
		c.handle(ctx, msg)
	}, nats.Durable(c.durable), nats.ManualAck(), nats.AckWait(10*time.Minute), nats.MaxAckPending(10))
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", c.subject, err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		c.logger.Warn().Err(err).Msg("draining subscription")
	}
	return nil
}

func (c *NATSConsumer) handle(ctx context.Context, msg *nats.Msg) {
	logger := c.logger.With().Str("subject", msg.Subject).Logger()
	switch c.dispatcher.Deliver(ctx, msg.Data, logger) {
	case Ack:
		_ = msg.Ack()
	case Retry:
		_ = msg.NakWithDelay(30 * time.Second)
	case Drop:
		_ = msg.Term()
	}
}

// Close drains the connection.
func (c *NATSConsumer) Close() error {
	return c.conn.Drain()
}
