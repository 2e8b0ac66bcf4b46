// Package notification queues and delivers the emails residents receive
// about their registrations.
package notification

import (
	"context"
	"time"
)

// Kind identifies which template a message is rendered from
type Kind string

const (
	KindRegistrationConfirmation Kind = "registration_confirmation"
	KindWaitlistPromotion        Kind = "waitlist_promotion"
)

// Notice carries the facts a notification is rendered from
type Notice struct {
	ContactAddress string    `json:"contactAddress"`
	DisplayName    string    `json:"displayName"`
	ActivityName   string    `json:"activityName"`
	ActivityDate   time.Time `json:"activityDate"`
	LocationText   string    `json:"locationText"`
}

// Message is a rendered notification ready for a Sender
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	To        string    `json:"to"`
	ToName    string    `json:"toName"`
	Subject   string    `json:"subject"`
	HTMLBody  string    `json:"htmlBody"`
	TextBody  string    `json:"textBody"`
	Notice    Notice    `json:"notice"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
