// The mail worker drains the email.send queue and delivers rendered
// messages over SMTP. It runs as a separate binary so the API server
// never blocks on mail delivery.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/iliyamo/online-movie-store/internal/config"
	"github.com/iliyamo/online-movie-store/internal/mailer"
	"github.com/iliyamo/online-movie-store/internal/queue"
)

func main() {
	_ = godotenv.Load()

	m := mailer.New(config.LoadSMTP())

	log.Printf("mail worker: consuming %s", queue.EmailQueueName)
	if err := queue.StartEmailConsumer(m.Send); err != nil {
		log.Fatalf("mail worker: %v", err)
	}
}
