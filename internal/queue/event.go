// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailQueueName is the durable queue that carries outgoing email jobs.
const EmailQueueName = "email.send"

// Email template identifiers understood by the mail worker.
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateAccountActivation = "account_activation"
)

// EmailJob is one asynchronous email to send: which template, to whom, and
// for which order (zero when the mail is not order-related). Params carries
// template-specific values such as the activation link or the order total.
type EmailJob struct {
	OrderID   uint64            `json:"order_id"`
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Params    map[string]string `json:"params,omitempty"`
}
