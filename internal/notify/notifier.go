package notify

import (
	"context"
	"fmt"
	"html"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers a message to a user. Implementations must be safe for
// concurrent use; callers usually send from a background goroutine.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

func JobPosted(email, title string, remaining int) Message {
	if title == "" {
		title = "your job"
	}
	return Message{
		To:      email,
		Subject: "Your job is live",
		HTML: fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
	<h2 style="color: #333;">%s is now posted</h2>
	<p>You can post %d more job(s) before a payment is required.</p>
</div>`, html.EscapeString(title), remaining),
	}
}

func PaymentReceived(email, amount, currency string, credits int) Message {
	return Message{
		To:      email,
		Subject: "Payment received",
		HTML: fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
	<h2 style="color: #333;">Thanks for your payment</h2>
	<p>We received %s %s. %d additional job post(s) have been added to your account.</p>
</div>`, html.EscapeString(amount), html.EscapeString(currency), credits),
	}
}
