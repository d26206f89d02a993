package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cluster_kita/internal/domain"

	svix "github.com/svix/svix-webhooks/go"
)

// Event types delivered by the identity provider
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Webhook headers
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// ErrMissingHeaders is returned when a webhook arrives without its signature headers
var ErrMissingHeaders = errors.New("missing webhook signature headers")

// WebhookVerifier checks svix signatures of identity provider webhooks
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier accepts the "whsec_" prefixed secret of the endpoint
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("identity webhook secret is required")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("decode identity webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Sign returns the "v1,<base64>" signature of a payload
func (w *WebhookVerifier) Sign(id string, ts time.Time, body []byte) (string, error) {
	return w.wh.Sign(id, ts, body)
}

// Verify validates the signature headers against the raw body.
// Timestamps more than five minutes away from now are rejected.
func (w *WebhookVerifier) Verify(headers http.Header, body []byte) error {
	if headers.Get(HeaderID) == "" || headers.Get(HeaderTimestamp) == "" || headers.Get(HeaderSignature) == "" {
		return ErrMissingHeaders
	}
	if err := w.wh.Verify(body, headers); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return nil
}

// UserData is the user object carried by user.* events
type UserData struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PhoneNumbers []struct {
		PhoneNumber string `json:"phone_number"`
	} `json:"phone_numbers"`
}

// Event is a decoded identity webhook
type Event struct {
	Type      string   `json:"type"`
	EventType string   `json:"event_type"`
	Data      UserData `json:"data"`
}

// Kind returns the event type, whichever field carried it
func (e *Event) Kind() string {
	if e.Type != "" {
		return e.Type
	}
	return e.EventType
}

// ParseEvent decodes a verified webhook body
func ParseEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode identity event: %w", err)
	}
	if evt.Data.ID == "" {
		return nil, domain.Invalid("data.id", "user id is missing")
	}
	return &evt, nil
}

// Profile is the provider-owned part of a user profile
type Profile struct {
	ID    string
	Name  string
	Email string
	Phone *string
}

// Profile maps the event payload onto profile fields
func (d UserData) Profile() Profile {
	p := Profile{ID: d.ID, Name: displayName(d.FirstName, d.LastName, d.Username)}
	if len(d.EmailAddresses) > 0 {
		p.Email = d.EmailAddresses[0].EmailAddress
	}
	if len(d.PhoneNumbers) > 0 && d.PhoneNumbers[0].PhoneNumber != "" {
		phone := d.PhoneNumbers[0].PhoneNumber
		p.Phone = &phone
	}
	return p
}

// Profile maps session claims onto profile fields
func (s *Session) Profile() Profile {
	p := Profile{ID: s.UserID, Name: s.Name, Email: s.Email}
	if p.Name == "" {
		p.Name = "User"
	}
	if s.Phone != "" {
		phone := s.Phone
		p.Phone = &phone
	}
	return p
}

func displayName(first, last, username string) string {
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	if username != "" {
		return username
	}
	return "User"
}
