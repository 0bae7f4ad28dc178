package queue

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const dialTimeout = 5 * time.Second

// Publisher sends domain events to RabbitMQ.  Each publish opens a short
// lived connection and channel.  Errors are
// logged and returned so callers can ignore failures without
// interrupting the main request flow.
type Publisher struct {
    URL    string
    Logger *slog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
    if logger == nil {
        logger = slog.Default()
    }
    return &Publisher{URL: url, Logger: logger}
}

// PublishRentalConfirmed publishes ev to the rental.confirmed queue.
// Messages are marked as persistent.
func (p *Publisher) PublishRentalConfirmed(ctx context.Context, ev RentalConfirmedEvent) error {
    return p.publish(ctx, RentalConfirmedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
    log := p.Logger.With("queue", queueName)
    conn, err := amqp.DialConfig(p.URL, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout),
    })
    if err != nil {
        log.Error("rabbitmq: dial failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Error("rabbitmq: channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        log.Error("rabbitmq: queue declare failed", "err", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Error("rabbitmq: marshal event failed", "err", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",        // default exchange
        queueName, // routing key = queue name
        false,     // mandatory
        false,     // immediate
        pub,
    ); err != nil {
        log.Error("rabbitmq: publish failed", "err", err)
        return err
    }
    return nil
}
