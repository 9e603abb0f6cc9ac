package worker

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubConfig configures a PubSubConsumer.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	// MaxOutstanding bounds concurrently handled messages (default 10).
	MaxOutstanding int
	Dispatcher     *Dispatcher
	Logger         zerolog.Logger
}

// PubSubConsumer receives events from a Google Cloud Pub/Sub subscription.
// Dropped messages are acked so they are not redelivered.
type PubSubConsumer struct {
	client     *pubsub.Client
	sub        *pubsub.Subscriber
	name       string
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewPubSubConsumer opens a Pub/Sub client for the subscription.
func NewPubSubConsumer(ctx context.Context, cfg PubSubConfig) (*PubSubConsumer, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client for %s: %w", cfg.ProjectID, err)
	}

	outstanding := cfg.MaxOutstanding
	if outstanding <= 0 {
		outstanding = 10
	}
	sub := client.Subscriber(cfg.SubscriptionName)
	sub.ReceiveSettings.MaxOutstandingMessages = outstanding
	// A warm run over the configured set can take minutes.
	sub.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubConsumer{
		client:     client,
		sub:        sub,
		name:       cfg.SubscriptionName,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger.With().Str("subscription", cfg.SubscriptionName).Logger(),
	}, nil
}

// Start blocks receiving messages until ctx is cancelled.
func (c *PubSubConsumer) Start(ctx context.Context) error {
	c.logger.Info().Msg("pubsub consumer started")
	return c.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		settle(msg, c.deliver(ctx, msg.ID, msg.PublishTime, msg.Data))
	})
}

func (c *PubSubConsumer) deliver(ctx context.Context, id string, published time.Time, data []byte) Verdict {
	logger := c.logger.With().
		Str("message_id", id).
		Dur("queued", time.Since(published)).
		Logger()
	return c.dispatcher.Deliver(ctx, data, logger)
}

type settler interface {
	Ack()
	Nack()
}

func settle(m settler, v Verdict) {
	if v == Retry {
		m.Nack()
		return
	}
	m.Ack()
}

// Close releases the client.
func (c *PubSubConsumer) Close() error {
	return c.client.Close()
}
