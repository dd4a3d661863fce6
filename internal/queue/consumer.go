// Package queue also contains the consumer loop used by the mail worker to
// drain the email.send queue.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/online-movie-store/internal/config"
)

// JobHandler processes one email job. A returned error causes the delivery
// to be rejected without requeue; broker-side redelivery policy handles
// transient failures.
type JobHandler func(EmailJob) error

// StartEmailConsumer connects to RabbitMQ, declares the durable email.send
// queue and consumes jobs forever, dispatching each to handle. It runs a
// reconnect loop with exponential backoff and never returns under normal
// operation; processing errors are logged and the offending message is
// Nacked so the worker keeps running.
func StartEmailConsumer(handle JobHandler) error {
	url := config.AMQPURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("mail-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, handle); err != nil {
			log.Printf("mail-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, handle JobHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("mail-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(EmailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, handle); err != nil {
			log.Printf("mail-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, handle JobHandler) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if job.Recipient == "" || job.Template == "" {
		return errors.New("job missing recipient or template")
	}
	return handle(job)
}
