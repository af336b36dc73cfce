// Package template holds the reminder message catalog: a pure mapping from
// notification kind to a renderable message body.
package template

import (
	"strings"

	"github.com/kaisan-events/registration-service/internal/domain"
)

// EventDetails carries the deployment-specific values baked into every
// message body.
type EventDetails struct {
	Name         string
	Date         string
	Venue        string
	Fee          string
	PaymentLink  string
	ContactPhone string
	ContactEmail string
	Organizer    string
}

// Message is a rendered-once-per-dispatch reminder body. Only {{name}} is
// substituted at render time; event details are baked in at catalog
// construction.
type Message struct {
	Kind    domain.NotificationKind
	content string
}

// Render substitutes the recipient name into the message body
func (m *Message) Render(name string) string {
	return strings.ReplaceAll(m.content, "{{name}}", name)
}

// Catalog maps notification kinds to message templates. It has no state
// beyond its construction-time contents and no failure modes besides an
// unknown kind.
type Catalog struct {
	messages map[domain.NotificationKind]*Message
}

// NewCatalog builds the reminder catalog for one event
func NewCatalog(event EventDetails) *Catalog {
	bake := strings.NewReplacer(
		"{{event}}", event.Name,
		"{{date}}", event.Date,
		"{{venue}}", event.Venue,
		"{{fee}}", event.Fee,
		"{{payment_link}}", event.PaymentLink,
		"{{contact_phone}}", event.ContactPhone,
		"{{contact_email}}", event.ContactEmail,
		"{{organizer}}", event.Organizer,
	)

	messages := make(map[domain.NotificationKind]*Message, len(bodies))
	for kind, body := range bodies {
		messages[kind] = &Message{Kind: kind, content: bake.Replace(body)}
	}
	return &Catalog{messages: messages}
}

// Resolve returns the message template for a kind, or ErrUnknownKind
func (c *Catalog) Resolve(kind domain.NotificationKind) (*Message, error) {
	msg, ok := c.messages[kind]
	if !ok {
		return nil, domain.ErrUnknownKind
	}
	return msg, nil
}

// Kinds returns the known notification kinds
func (c *Catalog) Kinds() []domain.NotificationKind {
	kinds := make([]domain.NotificationKind, 0, len(c.messages))
	for k := range c.messages {
		kinds = append(kinds, k)
	}
	return kinds
}

var bodies = map[domain.NotificationKind]string{
	domain.KindInitial: `🎉 Hello {{name}}!

Thank you for registering for {{event}}

📅 Event Date: {{date}}
📍 Venue: {{venue}}

⚠️ Payment Pending
Your registration is confirmed, but we haven't received your payment yet.

💰 Registration Fee: {{fee}}

💳 Click below to pay now:
{{payment_link}}

Please complete your payment at your earliest convenience to secure your spot.

For queries, contact:
📞 {{contact_phone}}
📧 {{contact_email}}

{{organizer}}`,

	domain.KindFollowUp: `👋 Hello {{name}},

This is a gentle reminder about your pending payment for {{event}}.

📅 Event Date: {{date}}

⏰ Your registration is on hold until we receive your payment.

💰 Amount: {{fee}}

💳 Click below to pay now:
{{payment_link}}

Don't miss out! Complete your payment today.

Questions? We're here to help:
📞 {{contact_phone}}
📧 {{contact_email}}

{{organizer}}`,

	domain.KindFinalWarning: `Hello {{name}},

{{event}} is just around the corner! 🎯

📅 Event Date: {{date}}

⚠️ PAYMENT STILL PENDING

This is your final reminder to complete your registration payment. Your spot may be released if payment is not received soon.

💰 Amount: {{fee}}

💳 PAY NOW - Click below:
{{payment_link}}

⏰ Time is running out!

For immediate assistance:
📞 {{contact_phone}}
📧 {{contact_email}}

{{organizer}}`,

	domain.KindConfirmed: `Congratulations {{name}}!

Your seat is confirmed for {{event}}.

📍 {{venue}}
🗓 {{date}}

We're excited to have you join this journey of growth, learning, and inspiration.

{{organizer}}`,

	domain.KindTwoDayReminder: `Hello {{name}}!

Just 2 days to go! 🎯

Your seat is confirmed for {{event}}.

📍 {{venue}}
🗓 {{date}}

See you soon! 🚀

{{organizer}}`,
}
