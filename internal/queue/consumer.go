package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strconv"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/config"
)

// LogFileName is the file the consumer appends to inside QueueConfig.LogDir.
const LogFileName = "submissions.log"

const maxBackoff = 30 * time.Second

// StartSubmissionConsumer connects to RabbitMQ, declares the submission
// queue (durable) and appends every event to <LogDir>/submissions.log.  It
// reconnects with exponential backoff and only returns once ctx is done.
// Bad messages are rejected without requeue so one poison message cannot
// spin the loop.
func StartSubmissionConsumer(ctx context.Context, cfg config.QueueConfig, log *zap.Logger) error {
    log = log.With(zap.String("queue", cfg.Queue))
    backoff := time.Second
    for {
        dctx, cancel := context.WithTimeout(ctx, DefaultDialTimeout)
        conn, err := Dial(dctx, cfg.URL)
        cancel()
        if err != nil {
            log.Warn("submission-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if err := wait(ctx, backoff); err != nil {
                return err
            }
            if backoff < maxBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, cfg, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("submission-consumer: consume loop ended, reconnecting", zap.Error(err))
        if err := wait(ctx, 2*time.Second); err != nil {
            return err
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg config.QueueConfig, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("submission-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    log.Info("submission-consumer: consuming")

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(cfg.LogDir, d.Body); err != nil {
                log.Error("submission-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// handleMessage decodes one event and appends its line to the log file.
func handleMessage(dir string, body []byte) error {
    var ev SubmissionEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.RecordID == 0 {
        return errors.New("event without record_id")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev SubmissionEvent) string {
    user := "-"
    if ev.UserID != nil {
        user = strconv.FormatUint(*ev.UserID, 10)
    }
    risk := "-"
    if ev.Risk != nil {
        risk = strconv.FormatFloat(*ev.Risk, 'f', 4, 64)
    }
    file := ev.PredictionFile
    if file == "" {
        file = "-"
    }
    return fmt.Sprintf("[%s] Maternal record submitted | record_id=%d | user_id=%s | external_id=%q | risk=%s | prediction_file=%s\n",
        ev.SubmittedAt, ev.RecordID, user, ev.ExternalID, risk, file)
}

func wait(ctx context.Context, d time.Duration) error {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}
