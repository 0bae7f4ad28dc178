package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer listens to the rental.confirmed queue and appends one line per
// event to a log file, by default logs/rentals.log.
type Consumer struct {
    URL     string
    LogDir  string
    Logger  *slog.Logger
    MaxWait time.Duration
}

// NewConsumer returns a Consumer writing into logDir.
func NewConsumer(url, logDir string, logger *slog.Logger) *Consumer {
    if logger == nil {
        logger = slog.Default()
    }
    if logDir == "" {
        logDir = "logs"
    }
    return &Consumer{URL: url, LogDir: logDir, Logger: logger, MaxWait: 30 * time.Second}
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// messages until ctx is cancelled.  Broker failures trigger a reconnect
// with exponential backoff; a message that cannot be processed is
// rejected without requeue so the loop keeps going.
func (c *Consumer) Run(ctx context.Context) error {
    log := c.Logger.With("component", "rental-consumer")
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Warn("failed to dial broker", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < c.MaxWait {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended; reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Logger.Warn("rental-consumer: set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(RentalConfirmedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(RentalConfirmedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                c.Logger.Error("rental-consumer: handle message failed", "err", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one event body and appends it to rentals.log.
func (c *Consumer) Handle(body []byte) error {
    var ev RentalConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.RentalID == 0 {
        return errors.New("event without rental_id")
    }
    if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(c.LogDir, "rentals.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as a single human-friendly log line.
func FormatLine(ev RentalConfirmedEvent) string {
    return fmt.Sprintf("[%s] Rental confirmed | rental_id=%d | item_id=%d | item=%q | tenant_id=%d | owner_id=%d | period=%s..%s | total=%d cents\n",
        ev.ConfirmedAt, ev.RentalID, ev.ItemID, ev.ItemTitle, ev.TenantID, ev.OwnerID, ev.StartsAt, ev.EndsAt, ev.TotalPriceCents)
}

// sleep waits for d or until ctx is done; it reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
