package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/retry"
)

const (
	ExchangeName  = "notify-exchange"
	MainQueueName = "notify-queue"
	DLQName       = "notify-dlq"
	RoutingKey    = "notify"
)

// NotificationMessage is the wire schema shared by the primary and
// dead-letter queues. It carries enough for a worker to attempt delivery
// without a store round-trip, but the store remains authoritative for status.
type NotificationMessage struct {
	ID          uuid.UUID `json:"notification_id"`
	UserID      string    `json:"user_id"`
	Channel     string    `json:"channel"`
	Message     string    `json:"message"`
	Destination string    `json:"destination"`
	RetryCount  int       `json:"retry_count"`
}

// NotificationQueue wraps the broker topology used by the delivery pipeline:
// a direct exchange feeding the durable primary queue, and a durable
// dead-letter queue that receives both broker-rejected messages (via the
// primary queue's DLX arguments) and explicit publishes of permanently
// failed notifications.
type NotificationQueue struct {
	ch        *rabbitmq.Channel
	publisher *rabbitmq.Publisher
	dlq       *rabbitmq.Publisher
}

func NewNotificationQueue(ch *rabbitmq.Channel) (*NotificationQueue, error) {
	exchange := rabbitmq.NewExchange(ExchangeName, "direct")
	if err := exchange.BindToChannel(ch); err != nil {
		return nil, fmt.Errorf("failed to bind to exchange: %w", err)
	}

	qm := rabbitmq.NewQueueManager(ch)

	_, err := qm.DeclareQueue(DLQName, rabbitmq.QueueConfig{Durable: true})
	if err != nil {
		return nil, fmt.Errorf("failed to declare DLQ queue: %w", err)
	}

	mainArgs := map[string]interface{}{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": DLQName,
	}

	mainQ, err := qm.DeclareQueue(MainQueueName, rabbitmq.QueueConfig{
		Durable: true,
		Args:    mainArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare main queue: %w", err)
	}

	if err := ch.QueueBind(mainQ.Name, RoutingKey, exchange.Name(), false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind the exchange to the main queue: %w", err)
	}

	pub := rabbitmq.NewPublisher(ch, exchange.Name())
	// Permanently failed records go to the DLQ through the default exchange.
	dlqPub := rabbitmq.NewPublisher(ch, "")

	return &NotificationQueue{ch: ch, publisher: pub, dlq: dlqPub}, nil
}

// Publish sends a notification message to the primary queue.
func (q *NotificationQueue) Publish(msg NotificationMessage, strategy retry.Strategy) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.publisher.PublishWithRetry(body, RoutingKey, "application/json", strategy)
}

// PublishToDLQ sends a notification message to the dead-letter queue for
// inspection. Done exactly once per notification, by the worker that won the
// failed_permanently transition.
func (q *NotificationQueue) PublishToDLQ(msg NotificationMessage, strategy retry.Strategy) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.dlq.PublishWithRetry(body, DLQName, "application/json", strategy)
}

// Consume opens a manual-ack delivery stream from the primary queue. The
// caller must Ack each delivery after recording an outcome, Nack with
// requeue on infrastructure errors, and Nack without requeue (dead-letter)
// on malformed payloads.
func (q *NotificationQueue) Consume() (<-chan amqp.Delivery, error) {
	return q.ch.Consume(MainQueueName, "", false, false, false, false, nil)
}
