package service

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/maternal-health/internal/config"
    "github.com/iliyamo/maternal-health/internal/queue"
)

// Publisher hands submission events to the message broker.
type Publisher interface {
    PublishSubmission(ctx context.Context, ev queue.SubmissionEvent) error
}

// NopPublisher drops every event.  Used when EVENTS_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) PublishSubmission(context.Context, queue.SubmissionEvent) error { return nil }

// AMQPPublisher publishes to a durable RabbitMQ queue through the default
// exchange.  Each publish opens and closes its own connection.
type AMQPPublisher struct {
    url   string
    queue string
}

func NewAMQPPublisher(cfg config.QueueConfig) *AMQPPublisher {
    return &AMQPPublisher{url: cfg.URL, queue: cfg.Queue}
}

// NewPublisher returns an AMQPPublisher when events are enabled and a
// NopPublisher otherwise.
func NewPublisher(cfg config.QueueConfig) Publisher {
    if !cfg.Enabled {
        return NopPublisher{}
    }
    return NewAMQPPublisher(cfg)
}

// PublishSubmission sends ev as a persistent JSON message.
func (p *AMQPPublisher) PublishSubmission(ctx context.Context, ev queue.SubmissionEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := queue.Dial(ctx, p.url)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        return fmt.Errorf("rabbitmq queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}
