package api

import (
	"encoding/json"
	"time"
)

// Ticket statuses the workflow cares about. The server owns the full set;
// anything other than CLOSED after submission means manual follow-up.
const (
	StatusClosed = "CLOSED"
	StatusOpen   = "OPEN"
)

// SubscriptionPlan describes the purchased tier.
type SubscriptionPlan struct {
	Tier           string `json:"tier"`
	Description    string `json:"description"`
	SupportsRefill bool   `json:"supportsRefill"`
}

// Subscription is one entry of GET /subscriptions/active, newest first.
// Timestamps are kept as the wire strings; callers parse what they need.
type Subscription struct {
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Plan      SubscriptionPlan `json:"subscription"`
}

// SubscriptionList is the response of GET /subscriptions/active.
type SubscriptionList struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// TicketMessage is a single message on a ticket thread.
type TicketMessage struct {
	Message string `json:"message"`
}

// Ticket is a support request record. CreatedAt stays a string because the
// duplicate guard must tolerate malformed values without failing decode.
type Ticket struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Messages  []TicketMessage `json:"messages"`
}

// LatestMessage returns the newest message text, or "" when there is none.
func (t *Ticket) LatestMessage() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[len(t.Messages)-1].Message
}

// TicketList is the response of GET /tickets, most recent first.
type TicketList struct {
	Tickets []Ticket `json:"tickets"`
}

// TicketEnvelope wraps single-ticket responses ({"ticket": {...}}).
type TicketEnvelope struct {
	Ticket *Ticket `json:"ticket"`
}

// Preflight is the response of GET /tickets/recaptcha-required.
type Preflight struct {
	RequiresRecaptcha bool `json:"requiresRecaptcha"`
	TicketCountToday  int  `json:"ticketCountToday"`
	DailyLimit        int  `json:"dailyLimit"`
}

// CreateTicketRequest is the POST /tickets payload.
type CreateTicketRequest struct {
	CategoryID  int    `json:"categoryId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Balance is the response of GET /credits/balance.
type Balance struct {
	Balance json.Number `json:"balance"`
}

// ParseTimestamp parses the API's Z-suffixed ISO 8601 timestamps.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
