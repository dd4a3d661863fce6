// Package service holds the domain services that sit between HTTP handlers
// and the persistence layer. This file publishes email jobs to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/online-movie-store/internal/config"
	"github.com/iliyamo/online-movie-store/internal/queue"
)

// EmailPublisher enqueues email jobs. The queue implementation publishes to
// RabbitMQ; tests substitute a recorder.
type EmailPublisher interface {
	PublishEmail(ctx context.Context, job queue.EmailJob) error
}

// AMQPEmailPublisher publishes jobs to the durable email.send queue as
// persistent JSON messages. It dials per publish, which keeps the request
// path free of long-lived broker state; failures never panic.
type AMQPEmailPublisher struct{}

// PublishEmail declares the queue (idempotent) and publishes the job. Any
// error is logged and returned; callers treat dispatch as fire-and-forget.
func (AMQPEmailPublisher) PublishEmail(ctx context.Context, job queue.EmailJob) error {
	conn, err := amqp.Dial(config.AMQPURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so jobs survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.EmailQueueName, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		log.Printf("rabbitmq: marshal job failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		queue.EmailQueueName, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
