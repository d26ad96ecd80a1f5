package queue

import (
    "context"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds connect plus AMQP handshake when ctx carries no
// deadline.
const DefaultDialTimeout = 5 * time.Second

// Dial connects to RabbitMQ.  TCP connect and handshake together end by
// ctx's deadline (DefaultDialTimeout without one), so a broker that
// accepts connections but never answers cannot stall the caller.
func Dial(ctx context.Context, url string) (*amqp.Connection, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    return amqp.DialConfig(url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout(ctx, time.Now())),
    })
}

// dialTimeout is the time left until ctx's deadline, never below 1ms.
func dialTimeout(ctx context.Context, now time.Time) time.Duration {
    dl, ok := ctx.Deadline()
    if !ok {
        return DefaultDialTimeout
    }
    return max(dl.Sub(now), time.Millisecond)
}
