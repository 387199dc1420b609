// Package queue contains the background consumer that listens to the
// auth.events queue and writes structured audit lines to logs/auth.log.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const authQueueName = "auth.events"

// StartAuthConsumer connects to RabbitMQ, declares the auth.events queue
// (durable), and starts consuming messages. Each message is appended to
// logs/auth.log in a single-line, human-friendly format. The function runs
// a reconnect loop: it keeps running and logs any processing errors while
// rejecting the offending message so the server continues operating.  With
// no broker URL configured it returns immediately and the audit trail is
// skipped.
func StartAuthConsumer() error {
    url := os.Getenv("RABBITMQ_URL")
    if url == "" {
        url = os.Getenv("AMQP_URL")
    }
    if url == "" {
        log.Printf("auth-consumer: no broker URL configured; audit trail disabled")
        return nil
    }

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("auth-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("auth-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("auth-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(authQueueName, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(authQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(d.Body); err != nil {
            log.Printf("auth-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
    var ev AuthEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    // Ensure logs directory exists
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "auth.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := formatLine(ev)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatLine(ev AuthEvent) string {
    switch ev.Type {
    case EventSessionsRevoked:
        return fmt.Sprintf("[%s] Sessions revoked | user_id=%d | email=%s | role=%s | revoked=%d\n",
            ev.OccurredAt, ev.UserID, ev.Email, ev.Role, ev.RevokedCount)
    case EventLogout:
        return fmt.Sprintf("[%s] Logout | user_id=%d | email=%s | role=%s | session_id=%d\n",
            ev.OccurredAt, ev.UserID, ev.Email, ev.Role, ev.SessionID)
    default:
        return fmt.Sprintf("[%s] Login | user_id=%d | email=%s | role=%s | session_id=%d | ip=%s | agent=%q\n",
            ev.OccurredAt, ev.UserID, ev.Email, ev.Role, ev.SessionID, ev.IPAddress, ev.UserAgent)
    }
}
