package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/syilabs-io/syi-staking-engine/internal/config"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
)

// EventsExchange is the topic exchange events are published to; the routing
// key is the event type, so consumers can bind to e.g. "syi.staking.v1.*".
const EventsExchange = "syi.staking.events"

type QueueManager struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	pool    pond.Pool
	logger  *zap.Logger
	timeout time.Duration
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build queue logger: %w", err)
	}

	amqpURI := fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, cfg.Url)
	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare events exchange: %w", err)
	}

	pool := pond.NewPool(cfg.PublishWorkers, pond.WithQueueSize(cfg.PublishBuffer))

	return &QueueManager{
		conn:    conn,
		channel: channel,
		pool:    pool,
		logger:  logger,
		timeout: cfg.ProcessingTimeout,
	}, nil
}

// PublishEvent hands the payload to the publish pool and returns immediately.
// Publishing is best-effort: a failed publish is logged and counted, never
// surfaced to the caller, since the event is already durably stored in the db.
func (qm *QueueManager) PublishEvent(eventType, messageId string, payload []byte) {
	qm.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), qm.timeout)
		defer cancel()

		err := qm.channel.PublishWithContext(ctx,
			EventsExchange,
			eventType, // routing key
			false,     // mandatory
			false,     // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    messageId,
				Timestamp:    time.Now().UTC(),
				Body:         payload,
			})
		if err != nil {
			metrics.RecordQueueSendError()
			qm.logger.Error("failed to publish event",
				zap.String("event_type", eventType),
				zap.String("message_id", messageId),
				zap.Error(err),
			)
		}
	})
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	qm.pool.StopAndWait()
	if err := qm.channel.Close(); err != nil {
		qm.logger.Warn("failed to close rabbitmq channel", zap.Error(err))
	}
	if err := qm.conn.Close(); err != nil {
		qm.logger.Warn("failed to close rabbitmq connection", zap.Error(err))
	}
	_ = qm.logger.Sync()
}
