// Package mailer renders email templates and delivers them over SMTP. It is
// used only by the mail worker; the API server never talks to SMTP
// directly, it enqueues jobs instead.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/iliyamo/online-movie-store/internal/config"
	"github.com/iliyamo/online-movie-store/internal/queue"
)

// Mailer sends rendered email jobs through a single SMTP relay.
type Mailer struct {
	cfg config.SMTP
}

func New(cfg config.SMTP) *Mailer { return &Mailer{cfg: cfg} }

// Render produces the subject and plain-text body for a job. Unknown
// template identifiers are an error so bad jobs land in the log instead of
// sending empty mail.
func Render(job queue.EmailJob) (subject, body string, err error) {
	switch job.Template {
	case queue.TemplateOrderConfirmation:
		subject = fmt.Sprintf("Order #%d confirmed", job.OrderID)
		body = fmt.Sprintf(
			"Thank you for your purchase!\r\n\r\n"+
				"Your order #%d has been paid in full (%s). The movies are now\r\n"+
				"available in your library.\r\n",
			job.OrderID, job.Params["amount"])
		return subject, body, nil
	case queue.TemplateAccountActivation:
		link := job.Params["activation_link"]
		if link == "" {
			return "", "", fmt.Errorf("activation job missing activation_link")
		}
		subject = "Activate your account"
		body = fmt.Sprintf(
			"Welcome!\r\n\r\nClick the link below to activate your account:\r\n%s\r\n",
			link)
		return subject, body, nil
	default:
		return "", "", fmt.Errorf("unknown email template %q", job.Template)
	}
}

// Send renders the job and delivers it. Authentication is skipped when no
// SMTP username is configured, which matches local development relays.
func (m *Mailer) Send(job queue.EmailJob) error {
	subject, body, err := Render(job)
	if err != nil {
		return err
	}

	from := m.cfg.Username
	if from == "" {
		from = "no-reply@localhost"
	}
	msg := buildMessage(m.cfg.FromName, from, job.Recipient, subject, body)

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, from, []string{job.Recipient}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", job.Recipient, err)
	}
	return nil
}

func buildMessage(fromName, from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
