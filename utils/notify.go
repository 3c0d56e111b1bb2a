package utils

import (
	"fmt"
	"log"

	"learnly/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendPaymentConfirmationEmail emails the student after a payment settles.
// Best effort: callers run it in a goroutine after the enrollment state is
// saved, and a delivery failure is only logged. Skipped when no API key is
// configured (local and test environments).
func SendPaymentConfirmationEmail(toEmail, toName, courseTitle string, amount float64) {
	if config.AppConfig.SendGridApiKey == "" {
		log.Printf("[NOTIFY] SendGrid not configured, skipping payment confirmation to %s", toEmail)
		return
	}

	from := mail.NewEmail("Learnly", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	subject := "Payment confirmed: " + courseTitle

	plain := fmt.Sprintf("Hi %s,\n\nYour payment of INR %.2f for %s is confirmed. The course is now unlocked in your dashboard.\n\nHappy learning!", toName, amount, courseTitle)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your payment of <b>INR %.2f</b> for <b>%s</b> is confirmed. The course is now unlocked in your dashboard.</p><p>Happy learning!</p>", toName, amount, courseTitle)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)

	resp, err := client.Send(message)
	if err != nil {
		log.Printf("[NOTIFY] Failed to send payment confirmation to %s: %v", toEmail, err)
		return
	}
	if resp.StatusCode >= 300 {
		log.Printf("[NOTIFY] SendGrid returned %d for payment confirmation to %s", resp.StatusCode, toEmail)
	}
}
