package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-movie-store/internal/queue"
)

func TestRenderOrderConfirmation(t *testing.T) {
	subject, body, err := Render(queue.EmailJob{
		OrderID:   42,
		Recipient: "user@example.com",
		Template:  queue.TemplateOrderConfirmation,
		Params:    map[string]string{"amount": "24.98"},
	})
	require.NoError(t, err)
	require.Contains(t, subject, "42")
	require.Contains(t, body, "24.98")
}

func TestRenderActivation(t *testing.T) {
	subject, body, err := Render(queue.EmailJob{
		Recipient: "user@example.com",
		Template:  queue.TemplateAccountActivation,
		Params:    map[string]string{"activation_link": "http://localhost:8080/v1/auth/activate?token=abc"},
	})
	require.NoError(t, err)
	require.Contains(t, subject, "Activate")
	require.Contains(t, body, "token=abc")
}

func TestRenderActivationMissingLink(t *testing.T) {
	_, _, err := Render(queue.EmailJob{
		Recipient: "user@example.com",
		Template:  queue.TemplateAccountActivation,
	})
	require.Error(t, err)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render(queue.EmailJob{
		Recipient: "user@example.com",
		Template:  "password_reset",
	})
	require.Error(t, err)
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("Movie Store", "no-reply@example.com", "user@example.com", "Hi", "body\r\n"))
	require.Contains(t, msg, "From: Movie Store <no-reply@example.com>\r\n")
	require.Contains(t, msg, "To: user@example.com\r\n")
	require.Contains(t, msg, "Subject: Hi\r\n")
	require.Contains(t, msg, "\r\n\r\nbody")
}
