// Package midtrans is a small client for the Midtrans Core API: QRIS
// charges, status lookups and notification signatures.
package midtrans

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	SandboxBaseURL    = "https://api.sandbox.midtrans.com"
	ProductionBaseURL = "https://api.midtrans.com"

	PaymentTypeQRIS = "qris"
	requestTimeout  = 15 * time.Second
)

// GatewayError is a rejected or failed gateway call
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("midtrans error %d: %s", e.StatusCode, e.Message)
}

// Customer is sent as customer_details when known
type Customer struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Charge is the result of a successful charge request
type Charge struct {
	TransactionID string
	Token         string
	RedirectURL   string
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type chargeRequest struct {
	PaymentType        string             `json:"payment_type"`
	TransactionDetails transactionDetails `json:"transaction_details"`
	CustomerDetails    *Customer          `json:"customer_details,omitempty"`
}

type action struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

type chargeResponse struct {
	StatusCode    string   `json:"status_code"`
	StatusMessage string   `json:"status_message"`
	TransactionID string   `json:"transaction_id"`
	OrderID       string   `json:"order_id"`
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	Actions       []action `json:"actions"`
}

// redirect picks the page the payer should be sent to
func (r *chargeResponse) redirect() string {
	if r.RedirectURL != "" {
		return r.RedirectURL
	}
	for _, a := range r.Actions {
		if a.Name == "generate-qr-code" {
			return a.URL
		}
	}
	if len(r.Actions) > 0 {
		return r.Actions[0].URL
	}
	return ""
}

// Client talks to the Midtrans Core API
type Client struct {
	http      *resty.Client
	serverKey string
}

// NewClient targets the sandbox or production environment
func NewClient(serverKey string, production bool) *Client {
	baseURL := SandboxBaseURL
	if production {
		baseURL = ProductionBaseURL
	}
	return NewClientWithBaseURL(serverKey, baseURL)
}

// NewClientWithBaseURL targets an arbitrary base URL
func NewClientWithBaseURL(serverKey, baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetBasicAuth(serverKey, ""). // Server key as user, empty password
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: client, serverKey: serverKey}
}

// CreateCharge requests a QRIS charge for orderID
func (c *Client) CreateCharge(ctx context.Context, orderID string, amount decimal.Decimal, customer *Customer) (*Charge, error) {
	body := chargeRequest{
		PaymentType: PaymentTypeQRIS,
		TransactionDetails: transactionDetails{
			OrderID:     orderID,
			GrossAmount: amount.Round(0).IntPart(), // IDR has no minor unit
		},
		CustomerDetails: customer,
	}

	var out chargeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/v2/charge")
	if err != nil {
		return nil, fmt.Errorf("call midtrans charge: %w", err)
	}
	if err := check(resp, out.StatusCode, out.StatusMessage); err != nil {
		return nil, err
	}
	return &Charge{
		TransactionID: out.TransactionID,
		Token:         out.Token,
		RedirectURL:   out.redirect(),
	}, nil
}

// VerifyCharge fetches the authoritative status of a transaction id or order id
func (c *Client) VerifyCharge(ctx context.Context, ref string) (*Status, error) {
	var out Status
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("ref", ref).
		SetResult(&out).
		SetError(&out).
		Get("/v2/{ref}/status")
	if err != nil {
		return nil, fmt.Errorf("call midtrans status: %w", err)
	}
	if err := check(resp, out.StatusCode, out.StatusMessage); err != nil {
		return nil, err
	}
	return &out, nil
}

// check turns an HTTP or body level failure into a GatewayError
func check(resp *resty.Response, bodyCode, message string) error {
	if resp.IsError() {
		if message == "" {
			message = resp.Status()
		}
		return &GatewayError{StatusCode: resp.StatusCode(), Message: message}
	}
	if code, err := strconv.Atoi(bodyCode); err == nil && code >= 300 {
		return &GatewayError{StatusCode: code, Message: message}
	}
	return nil
}
