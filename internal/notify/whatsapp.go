package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const sendTimeout = 10 * time.Second

// ErrNotConfigured is returned when no gateway URL or key is set
var ErrNotConfigured = errors.New("whatsapp gateway is not configured")

type textBody struct {
	Body string `json:"body"`
}

type message struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// WhatsApp sends text messages through a WhatsApp Business style gateway
type WhatsApp struct {
	http       *resty.Client
	url        string
	configured bool
}

// NewWhatsApp builds a client for the gateway at url
func NewWhatsApp(url, apiKey string) *WhatsApp {
	client := resty.New().
		SetTimeout(sendTimeout).
		SetAuthToken(apiKey). // Bearer key
		SetHeader("Content-Type", "application/json")

	return &WhatsApp{http: client, url: url, configured: url != "" && apiKey != ""}
}

// Send delivers body to the phone number to
func (w *WhatsApp) Send(ctx context.Context, to, body string) error {
	if !w.configured {
		return ErrNotConfigured
	}
	if to == "" {
		return errors.New("recipient phone number is empty")
	}
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(message{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body},
		}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("call whatsapp gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("whatsapp gateway returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}
